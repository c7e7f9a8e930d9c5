package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"registru/internal/core"
)

// Raw form inputs, as typed by the operator.
type (
	TransactionInput struct {
		Type        string `json:"type"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
		Description string `json:"description"`
		CostCenter  string `json:"cost_center"`
	}

	RuleInput struct {
		Description    string `json:"description"`
		CriterionType  string `json:"criterion_type"`
		CriterionValue string `json:"criterion_value"`
		Percentage     string `json:"percentage"`
	}

	BudgetInput struct {
		CostCenter string `json:"cost_center"`
		Year       string `json:"year"`
		Allocated  string `json:"allocated"`
		Spent      string `json:"spent"`
	}

	EmployeeInput struct {
		IDNP       string `json:"idnp"`
		LastName   string `json:"last_name"`
		FirstName  string `json:"first_name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Position   string `json:"position"`
		HiredOn    string `json:"hired_on"`
		BaseSalary string `json:"base_salary"`
	}

	PayrollInput struct {
		IDNP        string `json:"idnp"`
		Month       string `json:"month"`
		HoursWorked int    `json:"hours_worked"`
	}

	AppointmentInput struct {
		ClientID    string `json:"client_id"`
		Date        string `json:"date"`
		Time        string `json:"time"`
		Service     string `json:"service"`
		Responsible string `json:"responsible"`
	}
)

func parseTransaction(in TransactionInput) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Type:        typ,
		Amount:      amount,
		Date:        date,
		Description: strings.TrimSpace(in.Description),
	}
	if c := strings.TrimSpace(in.CostCenter); c != "" {
		t.CostCenter = &c
	}
	return t, t.Validate()
}

func parseRule(in RuleInput) (core.AllocationRule, error) {
	pct := decimal.Zero
	if strings.TrimSpace(in.Percentage) != "" {
		var err error
		if pct, err = core.ParsePercentage(in.Percentage); err != nil {
			return core.AllocationRule{}, err
		}
	}
	r := core.AllocationRule{
		Description:    strings.TrimSpace(in.Description),
		CriterionType:  strings.TrimSpace(in.CriterionType),
		CriterionValue: strings.TrimSpace(in.CriterionValue),
		Percentage:     pct,
	}
	return r, r.Validate()
}

func parseBudget(in BudgetInput) (core.Budget, error) {
	center := strings.TrimSpace(in.CostCenter)
	if center == "" {
		return core.Budget{}, core.ErrEmptyCostCenter
	}
	year, err := strconv.Atoi(strings.TrimSpace(in.Year))
	if err != nil {
		return core.Budget{}, fmt.Errorf("%w: %q", core.ErrInvalidYear, in.Year)
	}
	allocated, err := optionalAmount(in.Allocated)
	if err != nil {
		return core.Budget{}, err
	}
	spent, err := optionalAmount(in.Spent)
	if err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{CostCenter: center, Year: year, Allocated: allocated, Spent: spent}.WithDerivedStatus()
	return b, b.Validate()
}

func parseEmployee(in EmployeeInput, today core.Date) (core.Employee, error) {
	hired := today
	if strings.TrimSpace(in.HiredOn) != "" {
		d, err := core.ParseDate(in.HiredOn)
		if err != nil {
			return core.Employee{}, err
		}
		hired = d
	}
	salary, err := optionalAmount(in.BaseSalary)
	if err != nil {
		return core.Employee{}, err
	}

	e := core.Employee{
		IDNP:       strings.TrimSpace(in.IDNP),
		LastName:   strings.TrimSpace(in.LastName),
		FirstName:  strings.TrimSpace(in.FirstName),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Position:   strings.TrimSpace(in.Position),
		HiredOn:    hired,
		BaseSalary: salary,
	}
	return e, e.Validate()
}

func parseAppointment(in AppointmentInput) (core.Appointment, error) {
	a := core.Appointment{
		ClientID:    strings.TrimSpace(in.ClientID),
		Time:        strings.TrimSpace(in.Time),
		Service:     strings.TrimSpace(in.Service),
		Responsible: strings.TrimSpace(in.Responsible),
	}
	if a.ClientID == "" {
		return core.Appointment{}, core.ErrEmptyClient
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Appointment{}, err
	}
	a.Date = date
	return a, a.Validate()
}

// optionalAmount treats an empty field as zero.
func optionalAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return core.ParseAmount(s)
}
