package http

import (
	"time"

	"registru/internal/allocation"
	"registru/internal/core"
	"registru/internal/services"
)

// JSON shapes of the records. Amounts are fixed two-decimal strings.
type (
	transactionView struct {
		ID          string  `json:"id"`
		Type        string  `json:"type"`
		Amount      string  `json:"amount"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		CostCenter  *string `json:"cost_center"`
	}

	ruleView struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		CriterionType  string `json:"criterion_type"`
		CriterionValue string `json:"criterion_value"`
		Percentage     string `json:"percentage"`
	}

	budgetView struct {
		ID         string `json:"id"`
		CostCenter string `json:"cost_center"`
		Year       int    `json:"year"`
		Allocated  string `json:"allocated"`
		Spent      string `json:"spent"`
		Status     string `json:"status"`
		Highlight  string `json:"highlight,omitempty"`
	}

	allocationView struct {
		ID            string `json:"id"`
		TransactionID string `json:"transaction_id"`
		CostCenter    string `json:"cost_center"`
		Percentage    string `json:"percentage"`
		Coefficient   string `json:"coefficient"`
	}

	exportView struct {
		ID            string `json:"id"`
		TransactionID string `json:"transaction_id"`
		System        string `json:"system"`
		ExportedOn    string `json:"exported_on"`
		Amount        string `json:"amount"`
	}

	employeeView struct {
		IDNP       string `json:"idnp"`
		LastName   string `json:"last_name"`
		FirstName  string `json:"first_name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Position   string `json:"position"`
		HiredOn    string `json:"hired_on"`
		BaseSalary string `json:"base_salary"`
	}

	payrollView struct {
		ID          string `json:"id"`
		IDNP        string `json:"idnp"`
		Month       string `json:"month"`
		HoursWorked int    `json:"hours_worked"`
		Amount      string `json:"amount"`
	}

	appointmentView struct {
		ID          string `json:"id"`
		ClientID    string `json:"client_id"`
		Date        string `json:"date"`
		Time        string `json:"time"`
		Service     string `json:"service"`
		Responsible string `json:"responsible"`
	}

	auditView struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		Action      string    `json:"action"`
		At          time.Time `json:"at"`
		Description string    `json:"description"`
	}

	batchItemView struct {
		TransactionID string `json:"transaction_id"`
		RuleID        string `json:"rule_id,omitempty"`
		ExportID      string `json:"export_id,omitempty"`
		CostCenter    string `json:"cost_center,omitempty"`
		Outcome       string `json:"outcome"`
		Error         string `json:"error,omitempty"`
	}

	batchView struct {
		Inserted         int             `json:"inserted"`
		SkippedDuplicate int             `json:"skipped_duplicate"`
		Failed           int             `json:"failed"`
		Items            []batchItemView `json:"items"`
	}

	sessionView struct {
		UserID  string   `json:"user_id"`
		Login   string   `json:"login"`
		Role    string   `json:"role"`
		Views   []string `json:"views"`
		Actions []string `json:"actions"`
	}
)

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      core.FormatAmount(t.Amount),
		Date:        t.Date.String(),
		Description: t.Description,
		CostCenter:  t.CostCenter,
	}
}

func newRuleView(r core.AllocationRule) ruleView {
	return ruleView{
		ID:             r.ID,
		Description:    r.Description,
		CriterionType:  r.CriterionType,
		CriterionValue: r.CriterionValue,
		Percentage:     core.FormatAmount(r.Percentage),
	}
}

func newBudgetView(b core.Budget) budgetView {
	return budgetView{
		ID:         b.ID,
		CostCenter: b.CostCenter,
		Year:       b.Year,
		Allocated:  core.FormatAmount(b.Allocated),
		Spent:      core.FormatAmount(b.Spent),
		Status:     string(b.Status),
		Highlight:  b.Status.Highlight(),
	}
}

func newAllocationView(a core.Allocation) allocationView {
	return allocationView{
		ID:            a.ID,
		TransactionID: a.TransactionID,
		CostCenter:    a.CostCenter,
		Percentage:    core.FormatAmount(a.Percentage),
		Coefficient:   core.FormatAmount(a.Coefficient),
	}
}

func newExportView(e core.ExportRecord) exportView {
	return exportView{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		System:        e.System,
		ExportedOn:    e.ExportedOn.String(),
		Amount:        core.FormatAmount(e.Amount),
	}
}

func newEmployeeView(e core.Employee) employeeView {
	return employeeView{
		IDNP:       e.IDNP,
		LastName:   e.LastName,
		FirstName:  e.FirstName,
		Email:      e.Email,
		Phone:      e.Phone,
		Position:   e.Position,
		HiredOn:    e.HiredOn.String(),
		BaseSalary: core.FormatAmount(e.BaseSalary),
	}
}

func newPayrollView(p core.PayrollCalculation) payrollView {
	return payrollView{
		ID:          p.ID,
		IDNP:        p.IDNP,
		Month:       p.Month,
		HoursWorked: p.HoursWorked,
		Amount:      core.FormatAmount(p.Amount),
	}
}

func newAppointmentView(a core.Appointment) appointmentView {
	return appointmentView{
		ID:          a.ID,
		ClientID:    a.ClientID,
		Date:        a.Date.String(),
		Time:        a.Time,
		Service:     a.Service,
		Responsible: a.Responsible,
	}
}

func newAuditView(e core.AuditEntry) auditView {
	return auditView{ID: e.ID, UserID: e.UserID, Action: e.Action, At: e.At, Description: e.Description}
}

func newAllocationBatchView(res allocation.BatchResult) batchView {
	v := batchView{
		Inserted:         res.Inserted,
		SkippedDuplicate: res.SkippedDuplicate,
		Failed:           res.Failed,
		Items:            make([]batchItemView, 0, len(res.Items)),
	}
	for _, it := range res.Items {
		item := batchItemView{
			TransactionID: it.TransactionID,
			RuleID:        it.RuleID,
			CostCenter:    it.CostCenter,
			Outcome:       string(it.Outcome),
		}
		if it.Err != nil {
			item.Error = it.Err.Error()
		}
		v.Items = append(v.Items, item)
	}
	return v
}

func newExportBatchView(res services.ExportResult) batchView {
	v := batchView{
		Inserted: res.Exported,
		Failed:   res.Failed,
		Items:    make([]batchItemView, 0, len(res.Items)),
	}
	for _, it := range res.Items {
		item := batchItemView{
			TransactionID: it.TransactionID,
			ExportID:      it.ExportID,
			Outcome:       string(it.Outcome),
		}
		if it.Err != nil {
			item.Error = it.Err.Error()
		}
		v.Items = append(v.Items, item)
	}
	return v
}

func newSessionView(s services.Session) sessionView {
	v := sessionView{
		UserID:  s.UserID,
		Login:   s.Login,
		Role:    string(s.Role),
		Views:   make([]string, 0, len(s.Capabilities.Views)),
		Actions: make([]string, 0, len(s.Capabilities.Actions)),
	}
	for _, view := range s.Capabilities.Views {
		v.Views = append(v.Views, string(view))
	}
	for _, a := range s.Capabilities.Actions {
		v.Actions = append(v.Actions, string(a))
	}
	return v
}

func mapSlice[T, V any](in []T, fn func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, x := range in {
		out = append(out, fn(x))
	}
	return out
}
