package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"registru/internal/charts"
	"registru/internal/core"
	"registru/internal/report"
	"registru/internal/services"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
	Session   sessionView `json:"session"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.reg.Login(r.Context(), sanitizeInput(req.Login), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, expires, err := s.tokens.Issue(sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format("2006-01-02T15:04:05Z"),
		Session:   newSessionView(sess),
	})
}

// handleSession lists what the caller may see and do.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.reg.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(txs, newTransactionView))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in services.TransactionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Description = sanitizeInput(in.Description)

	t, err := s.reg.CreateTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionView(t))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.reg.ListRules(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rules, newRuleView))
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var in services.RuleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Description = sanitizeInput(in.Description)

	rule, err := s.reg.CreateRule(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRuleView(rule))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.reg.ListBudgets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(budgets, newBudgetView))
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var in services.BudgetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := s.reg.SaveBudget(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBudgetView(b))
}

func (s *Server) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	allocs, err := s.reg.ListAllocations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(allocs, newAllocationView))
}

func (s *Server) handleRunAllocation(w http.ResponseWriter, r *http.Request) {
	res, err := s.reg.RunAllocation(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAllocationBatchView(res))
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	exports, err := s.reg.ListExports(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(exports, newExportView))
}

func (s *Server) handleExportSystems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.ExportSystems)
}

func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		System string `json:"system"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.reg.RunExport(r.Context(), strings.TrimSpace(req.System))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExportBatchView(res))
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.reg.ListEmployees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(employees, newEmployeeView))
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in services.EmployeeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := s.reg.CreateEmployee(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEmployeeView(e))
}

func (s *Server) handleListPayroll(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reg.ListPayroll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, newPayrollView))
}

func (s *Server) handleCalculatePayroll(w http.ResponseWriter, r *http.Request) {
	var in services.PayrollInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := s.reg.CalculatePayroll(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPayrollView(p))
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reg.ListAppointments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, newAppointmentView))
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in services.AppointmentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := s.reg.CreateAppointment(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAppointmentView(a))
}

type reportResponse struct {
	Period string   `json:"period"`
	Lines  []string `json:"lines"`
}

func (s *Server) handleIncomeExpenseReport(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	lines, err := s.reg.Reports().IncomeExpense(r.Context(), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Period: periodLabel(period), Lines: lines})
}

// periodLabel is the normalised period filter, empty for all time.
func periodLabel(raw string) string {
	return report.ParsePeriod(raw).Label
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	lines, err := s.reg.Reports().BudgetsByCenter(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Lines: lines})
}

func (s *Server) handleIncomeExpenseChart(w http.ResponseWriter, r *http.Request) {
	totals, period, err := s.reg.Reports().Totals(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	label := period.Label
	if period.AllTime() {
		label = "all time"
	}
	png, err := charts.IncomeExpenseBars(fmt.Sprintf("Income vs Expense (%s)", label), totals)
	if err != nil {
		slog.ErrorContext(r.Context(), "Chart rendering failed", "error", err)
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := s.reg.RecentAudit(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(entries, newAuditView))
}
