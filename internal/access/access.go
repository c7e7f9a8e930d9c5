// Package access decides which views and actions a session may see.
//
// The gate is a presentation concern: it hides what a role should not
// reach, while the services underneath perform no checks of their own.
package access

import (
	"slices"

	"registru/internal/core"
)

type (
	Role   string
	View   string
	Action string
)

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

const (
	ViewTransactions View = "transactions"
	ViewRules        View = "rules"
	ViewBudgets      View = "budgets"
	ViewAllocations  View = "allocations"
	ViewExports      View = "exports"
	ViewEmployees    View = "employees"
	ViewAppointments View = "appointments"
	ViewReports      View = "reports"
	ViewAudit        View = "audit"
)

const (
	ActionCreateTransaction Action = "create_transaction"
	ActionCreateRule        Action = "create_rule"
	ActionSaveBudget        Action = "save_budget"
	ActionRunAllocation     Action = "run_allocation"
	ActionRunExport         Action = "run_export"
	ActionCreateEmployee    Action = "create_employee"
	ActionCalculatePayroll  Action = "calculate_payroll"
	ActionCreateAppointment Action = "create_appointment"
)

// AllViews lists every view in display order.
var AllViews = []View{
	ViewTransactions, ViewRules, ViewBudgets, ViewAllocations, ViewExports,
	ViewEmployees, ViewAppointments, ViewReports, ViewAudit,
}

// AllActions lists every mutating action.
var AllActions = []Action{
	ActionCreateTransaction, ActionCreateRule, ActionSaveBudget, ActionRunAllocation,
	ActionRunExport, ActionCreateEmployee, ActionCalculatePayroll, ActionCreateAppointment,
}

// Capabilities is the resolved set of views and actions for one session.
type Capabilities struct {
	Role    Role
	Views   []View
	Actions []Action
}

var table = map[Role]Capabilities{
	RoleAdmin: {
		Role:    RoleAdmin,
		Views:   AllViews,
		Actions: AllActions,
	},
	RoleStandard: {
		Role:  RoleStandard,
		Views: []View{ViewTransactions, ViewBudgets, ViewReports, ViewAudit},
	},
}

// RoleFor maps an account type to a role. Only "admin", compared
// case-insensitively, grants the admin role.
func RoleFor(u core.User) Role {
	if u.IsAdmin() {
		return RoleAdmin
	}
	return RoleStandard
}

// For returns the capabilities of role. Unknown roles get the standard set.
func For(role Role) Capabilities {
	if c, ok := table[role]; ok {
		return c
	}
	return table[RoleStandard]
}

func (c Capabilities) CanView(v View) bool {
	return slices.Contains(c.Views, v)
}

func (c Capabilities) CanDo(a Action) bool {
	return slices.Contains(c.Actions, a)
}

// ParseRole converts a stored role name back into a Role.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleStandard
}
