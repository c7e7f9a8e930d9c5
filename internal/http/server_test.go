package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"registru/internal/services"
	"registru/internal/storage"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "registru.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	reg := services.NewRegistry(repo, services.WithErrorClassifiers(storage.IsDuplicate, storage.IsNotFound))
	ctx := context.Background()
	if _, err := reg.CreateUser(ctx, "admin", "admin-pass", "admin"); err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	if _, err := reg.CreateUser(ctx, "clerk", "clerk-pass", "client"); err != nil {
		t.Fatalf("CreateUser clerk: %v", err)
	}

	if opts.JWTSecret == nil {
		opts.JWTSecret = testSecret
	}
	srv := NewServer(":0", reg, opts)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server, user, password string) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/login", "", loginRequest{Login: user, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", user, rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: missing X-Request-ID", path)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", loginRequest{Login: "admin", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", loginRequest{Login: "ghost", Password: "x"}, http.StatusUnauthorized},
		{"empty credentials", loginRequest{}, http.StatusUnprocessableEntity},
		{"malformed body", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/login", "", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestAuthenticationRequired(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "abc.def.ghi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/transactions", tt.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}

	// A token signed with another secret is rejected.
	other := newTestServer(t, Options{JWTSecret: []byte("ffffffffffffffffffffffffffffffff")})
	foreign := login(t, other, "admin", "admin-pass")
	if rec := do(t, srv, http.MethodGet, "/api/transactions", foreign, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("foreign token: status = %d, want 401", rec.Code)
	}
}

func TestSessionCapabilities(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		user, password string
		role           string
		views          int
		actions        int
	}{
		{"admin", "admin-pass", "admin", 9, 8},
		{"clerk", "clerk-pass", "standard", 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			token := login(t, srv, tt.user, tt.password)
			rec := do(t, srv, http.MethodGet, "/api/session", token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status %d", rec.Code)
			}
			var got sessionView
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Role != tt.role || len(got.Views) != tt.views || len(got.Actions) != tt.actions {
				t.Errorf("session = %+v, want role %s with %d views and %d actions", got, tt.role, tt.views, tt.actions)
			}
		})
	}
}

func TestStandardUserCannotReachHiddenRoutes(t *testing.T) {
	srv := newTestServer(t, Options{})
	token := login(t, srv, "clerk", "clerk-pass")

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/transactions", http.StatusOK},
		{http.MethodGet, "/api/budgets", http.StatusOK},
		{http.MethodGet, "/api/audit", http.StatusOK},
		{http.MethodGet, "/api/reports/income-expense", http.StatusOK},
		{http.MethodPost, "/api/transactions", http.StatusNotFound},
		{http.MethodPost, "/api/budgets", http.StatusNotFound},
		{http.MethodGet, "/api/rules", http.StatusNotFound},
		{http.MethodGet, "/api/employees", http.StatusNotFound},
		{http.MethodPost, "/api/allocations/run", http.StatusNotFound},
		{http.MethodPost, "/api/exports/run", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, token, map[string]string{})
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCreateAndList(t *testing.T) {
	srv := newTestServer(t, Options{})
	token := login(t, srv, "admin", "admin-pass")

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"transaction", "/api/transactions", services.TransactionInput{Type: "Income", Amount: "1500", Date: "2025-04-01", CostCenter: "CR002"}, http.StatusCreated},
		{"expense", "/api/transactions", services.TransactionInput{Type: "Expense", Amount: "400,25", Date: "2025-04-03"}, http.StatusCreated},
		{"zero amount", "/api/transactions", services.TransactionInput{Type: "Income", Amount: "0", Date: "2025-04-01"}, http.StatusUnprocessableEntity},
		{"bad type", "/api/transactions", services.TransactionInput{Type: "Gift", Amount: "10", Date: "2025-04-01"}, http.StatusUnprocessableEntity},
		{"rule", "/api/rules", services.RuleInput{Description: "by center", CriterionType: "Center", CriterionValue: "CR002", Percentage: "100"}, http.StatusCreated},
		{"rule over 100", "/api/rules", services.RuleInput{Description: "x", CriterionType: "Type", Percentage: "120"}, http.StatusUnprocessableEntity},
		{"employee", "/api/employees", services.EmployeeInput{IDNP: "2001234567890", LastName: "Rusu", FirstName: "Ion", Position: "Engineer", BaseSalary: "8400"}, http.StatusCreated},
		{"duplicate employee", "/api/employees", services.EmployeeInput{IDNP: "2001234567890", LastName: "Rusu", FirstName: "Ion", Position: "Engineer"}, http.StatusConflict},
		{"payroll", "/api/payroll", services.PayrollInput{IDNP: "2001234567890", Month: "2025-04", HoursWorked: 84}, http.StatusCreated},
		{"payroll unknown employee", "/api/payroll", services.PayrollInput{IDNP: "999", Month: "2025-04", HoursWorked: 10}, http.StatusNotFound},
		{"appointment", "/api/appointments", services.AppointmentInput{ClientID: "C-17", Date: "2025-04-10", Time: "09:30", Service: "Meter check", Responsible: "Rusu"}, http.StatusCreated},
		{"appointment bad time", "/api/appointments", services.AppointmentInput{ClientID: "C-17", Date: "2025-04-10", Time: "25:00", Service: "x", Responsible: "y"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/transactions", token, nil)
	var txs []transactionView
	if err := json.NewDecoder(rec.Body).Decode(&txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs) != 2 || txs[0].Date != "2025-04-03" || txs[0].Amount != "400.25" {
		t.Errorf("transactions = %+v, want two, newest first", txs)
	}

	rec = do(t, srv, http.MethodGet, "/api/payroll", token, nil)
	var payroll []payrollView
	if err := json.NewDecoder(rec.Body).Decode(&payroll); err != nil {
		t.Fatalf("decode payroll: %v", err)
	}
	if len(payroll) != 1 || payroll[0].Amount != "4200.00" {
		t.Errorf("payroll = %+v, want one row of 4200.00", payroll)
	}
}

func TestBudgetHighlight(t *testing.T) {
	srv := newTestServer(t, Options{})
	token := login(t, srv, "admin", "admin-pass")

	tests := []struct {
		allocated, spent string
		status, highlight string
	}{
		{"1000", "1200", "Overspent", "danger"},
		{"1000", "100", "Underutilized", "warning"},
		{"1000", "700", "OnTarget", ""},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/budgets", token, services.BudgetInput{
				CostCenter: "CR001", Year: "2025", Allocated: tt.allocated, Spent: tt.spent,
			})
			if rec.Code != http.StatusCreated {
				t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
			}
			var got budgetView
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tt.status || got.Highlight != tt.highlight {
				t.Errorf("budget = %+v, want %s/%q", got, tt.status, tt.highlight)
			}
		})
	}
}

func TestAllocationExportAndReports(t *testing.T) {
	srv := newTestServer(t, Options{})
	token := login(t, srv, "admin", "admin-pass")

	do(t, srv, http.MethodPost, "/api/transactions", token, services.TransactionInput{Type: "Income", Amount: "250", Date: "2025-02-14"})
	do(t, srv, http.MethodPost, "/api/rules", token, services.RuleInput{Description: "all income", CriterionType: "Type", CriterionValue: "Income", Percentage: "50"})

	rec := do(t, srv, http.MethodPost, "/api/allocations/run", token, nil)
	var batch batchView
	if err := json.NewDecoder(rec.Body).Decode(&batch); err != nil {
		t.Fatalf("decode allocation batch: %v", err)
	}
	if batch.Inserted != 1 || batch.Items[0].CostCenter != "CR001" {
		t.Errorf("allocation batch = %+v, want one insert on the fallback center", batch)
	}

	rec = do(t, srv, http.MethodPost, "/api/exports/run", token, map[string]string{"system": "Excel"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown system: status = %d, want 422", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/api/exports/run", token, map[string]string{"system": "1C Contabilitate"})
	if rec.Code != http.StatusOK {
		t.Fatalf("export run: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/api/exports/systems", token, nil)
	var systems []string
	if err := json.NewDecoder(rec.Body).Decode(&systems); err != nil {
		t.Fatalf("decode systems: %v", err)
	}
	if !slices.Contains(systems, "M-EnergoSoft") {
		t.Errorf("systems = %v", systems)
	}

	rec = do(t, srv, http.MethodGet, "/api/reports/income-expense?period=2025-02", token, nil)
	var report reportResponse
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Period != "2025-02" || len(report.Lines) != 1 || report.Lines[0] != "Income: 250.00 MDL" {
		t.Errorf("report = %+v", report)
	}

	rec = do(t, srv, http.MethodGet, "/api/reports/income-expense.png", token, nil)
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("chart Content-Type = %q", ct)
	}

	rec = do(t, srv, http.MethodGet, "/api/audit", token, nil)
	if !strings.Contains(rec.Body.String(), `"action":"Export"`) {
		t.Errorf("audit log lacks the export entry: %s", rec.Body.String())
	}
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{LoginRequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodPost, "/api/login", "", loginRequest{Login: "admin", Password: "wrong"}); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d, want 401", i+1, rec.Code)
		}
	}
	rec := do(t, srv, http.MethodPost, "/api/login", "", loginRequest{Login: "admin", Password: "admin-pass"})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
