package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

const (
	CriterionType   CriterionKind = "Type"
	CriterionCenter CriterionKind = "Center"
)

const (
	OnTarget      BudgetStatus = "OnTarget"
	Overspent     BudgetStatus = "Overspent"
	Underutilized BudgetStatus = "Underutilized"
)

const (
	// DefaultCostCenter is written on allocations of transactions that carry no center.
	DefaultCostCenter = "CR001"

	// StandardHours is the monthly hour norm used by the payroll formula.
	StandardHours = 168

	MaxHoursWorked    = 300
	MaxDescriptionLen = 200
	AccountTypeAdmin  = "admin"
)

// Accounting systems an export run can target.
var ExportSystems = []string{"1C Contabilitate", "SAP Financials", "M-EnergoSoft"}

type (
	TransactionType string
	CriterionKind   string
	BudgetStatus    string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      decimal.Decimal
		Date        Date
		Description string
		CostCenter  *string // nil when the transaction is not attributed to a center
	}

	AllocationRule struct {
		ID             string
		Description    string
		CriterionType  string // free text; only Type and Center are recognised
		CriterionValue string
		Percentage     decimal.Decimal
	}

	Allocation struct {
		ID            string
		TransactionID string
		CostCenter    string
		Percentage    decimal.Decimal
		Coefficient   decimal.Decimal
	}

	Budget struct {
		ID         string
		CostCenter string
		Year       int
		Allocated  decimal.Decimal
		Spent      decimal.Decimal
		Status     BudgetStatus
	}

	Employee struct {
		IDNP       string
		LastName   string
		FirstName  string
		Email      string
		Phone      string
		Position   string
		HiredOn    Date
		BaseSalary decimal.Decimal
	}

	PayrollCalculation struct {
		ID          string
		IDNP        string
		Month       string // YYYY-MM
		HoursWorked int
		Amount      decimal.Decimal
	}

	Appointment struct {
		ID          string
		ClientID    string
		Date        Date
		Time        string // HH:MM
		Service     string
		Responsible string
	}

	ExportRecord struct {
		ID            string
		TransactionID string
		System        string
		ExportedOn    Date
		Amount        decimal.Decimal
	}

	AuditEntry struct {
		ID          string
		UserID      string
		Action      string
		At          time.Time
		Description string
	}

	User struct {
		ID           string
		Login        string
		PasswordHash string
		AccountType  string
	}
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCriterionType  = errors.New("empty criterion type")
	ErrInvalidPercentage   = errors.New("percentage must be between 0 and 100")
	ErrEmptyCostCenter     = errors.New("empty cost center")
	ErrInvalidYear         = errors.New("invalid year")
	ErrEmptyIDNP           = errors.New("empty IDNP")
	ErrEmptyName           = errors.New("last name and first name are required")
	ErrEmptyPosition       = errors.New("empty position")
	ErrInvalidMonth        = errors.New("month must be in YYYY-MM format")
	ErrInvalidHours        = errors.New("hours worked must be between 0 and 300")
	ErrEmptyClient         = errors.New("empty client id")
	ErrInvalidTime         = errors.New("time must be in HH:MM format")
	ErrEmptyService        = errors.New("empty service")
	ErrEmptyResponsible    = errors.New("empty responsible")
	ErrUnknownExportSystem = errors.New("unknown export system")
	ErrEmptyCredentials    = errors.New("login and password are required")
	ErrInvalidCredentials  = errors.New("invalid login or password")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrDuplicate           = errors.New("record already exists")
)

var (
	monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	timePattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Valid reports whether the transaction type is Income or Expense.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts the canonical names and the legacy Romanian labels.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "venit":
		return Income, nil
	case "expense", "cheltuiala":
		return Expense, nil
	}
	return "", ErrInvalidType
}

// Kind maps a free-text criterion type to a recognised kind. Unknown
// criteria return the empty kind and never match anything.
func (r AllocationRule) Kind() CriterionKind {
	switch r.CriterionType {
	case string(CriterionType), "Tip_Operatiune":
		return CriterionType
	case string(CriterionCenter), "Centru":
		return CriterionCenter
	}
	return ""
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// HasCostCenter reports whether the transaction is attributed to a center.
func (t Transaction) HasCostCenter() bool {
	return t.CostCenter != nil && *t.CostCenter != ""
}

func (r AllocationRule) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(r.CriterionType) == "" {
		return ErrEmptyCriterionType
	}
	if r.Percentage.IsNegative() || r.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPercentage
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CostCenter) == "" {
		return ErrEmptyCostCenter
	}
	if b.Year < 1900 || b.Year > 9999 {
		return ErrInvalidYear
	}
	if b.Allocated.IsNegative() || b.Spent.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.IDNP) == "" {
		return ErrEmptyIDNP
	}
	if strings.TrimSpace(e.LastName) == "" || strings.TrimSpace(e.FirstName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(e.Position) == "" {
		return ErrEmptyPosition
	}
	if err := e.HiredOn.Validate(); err != nil {
		return err
	}
	if e.BaseSalary.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ValidatePayrollInput checks the inputs of a payroll calculation.
func ValidatePayrollInput(idnp, month string, hours int) error {
	if strings.TrimSpace(idnp) == "" {
		return ErrEmptyIDNP
	}
	if !monthPattern.MatchString(strings.TrimSpace(month)) {
		return ErrInvalidMonth
	}
	if hours < 0 || hours > MaxHoursWorked {
		return ErrInvalidHours
	}
	return nil
}

func (a Appointment) Validate() error {
	if strings.TrimSpace(a.ClientID) == "" {
		return ErrEmptyClient
	}
	if err := a.Date.Validate(); err != nil {
		return err
	}
	if !timePattern.MatchString(strings.TrimSpace(a.Time)) {
		return ErrInvalidTime
	}
	if strings.TrimSpace(a.Service) == "" {
		return ErrEmptyService
	}
	if strings.TrimSpace(a.Responsible) == "" {
		return ErrEmptyResponsible
	}
	return nil
}

// ValidExportSystem reports whether system is one of ExportSystems.
func ValidExportSystem(system string) bool {
	for _, s := range ExportSystems {
		if s == system {
			return true
		}
	}
	return false
}

// IsAdmin compares the account type to "admin" case-insensitively.
func (u User) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(u.AccountType), AccountTypeAdmin)
}

// IsValidationError reports whether err is one of the input validation
// sentinels, i.e. it was raised before any persistence call.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrInvalidAmount, ErrNegativeAmount, ErrInvalidType, ErrInvalidDate,
	ErrEmptyDescription, ErrDescriptionTooLong, ErrEmptyCriterionType,
	ErrInvalidPercentage, ErrEmptyCostCenter, ErrInvalidYear, ErrEmptyIDNP,
	ErrEmptyName, ErrEmptyPosition, ErrInvalidMonth, ErrInvalidHours,
	ErrEmptyClient, ErrInvalidTime, ErrEmptyService, ErrEmptyResponsible,
	ErrUnknownExportSystem, ErrEmptyCredentials,
}
