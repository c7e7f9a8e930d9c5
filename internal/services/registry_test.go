package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"registru/internal/access"
	"registru/internal/allocation"
	"registru/internal/amqp"
	"registru/internal/audit"
	"registru/internal/core"
	"registru/internal/storage"
)

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "registru.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	base := []Option{
		WithErrorClassifiers(storage.IsDuplicate, storage.IsNotFound),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewRegistry(repo, append(base, opts...)...), repo
}

// countingStore records how many writes reach persistence.
type countingStore struct {
	Store
	writes int
}

func (s *countingStore) InsertTransaction(context.Context, core.Transaction) error {
	s.writes++
	return nil
}

func (s *countingStore) InsertRule(context.Context, core.AllocationRule) error {
	s.writes++
	return nil
}

func (s *countingStore) InsertBudget(context.Context, core.Budget) error {
	s.writes++
	return nil
}

func (s *countingStore) InsertAppointment(context.Context, core.Appointment) error {
	s.writes++
	return nil
}

func (s *countingStore) InsertAudit(context.Context, core.AuditEntry) error {
	s.writes++
	return nil
}

func TestValidationHappensBeforePersistence(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func(r *Registry) error
		wantErr error
	}{
		{
			name: "zero amount",
			run: func(r *Registry) error {
				_, err := r.CreateTransaction(ctx, TransactionInput{Type: "Income", Amount: "0", Date: "2025-01-01"})
				return err
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			run: func(r *Registry) error {
				_, err := r.CreateTransaction(ctx, TransactionInput{Type: "Expense", Amount: "-5", Date: "2025-01-01"})
				return err
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "unknown type",
			run: func(r *Registry) error {
				_, err := r.CreateTransaction(ctx, TransactionInput{Type: "Transfer", Amount: "5", Date: "2025-01-01"})
				return err
			},
			wantErr: core.ErrInvalidType,
		},
		{
			name: "rule without description",
			run: func(r *Registry) error {
				_, err := r.CreateRule(ctx, RuleInput{CriterionType: "Type", Percentage: "10"})
				return err
			},
			wantErr: core.ErrEmptyDescription,
		},
		{
			name: "rule percentage above 100",
			run: func(r *Registry) error {
				_, err := r.CreateRule(ctx, RuleInput{Description: "d", CriterionType: "Type", Percentage: "150"})
				return err
			},
			wantErr: core.ErrInvalidPercentage,
		},
		{
			name: "budget without center",
			run: func(r *Registry) error {
				_, err := r.SaveBudget(ctx, BudgetInput{Year: "2025"})
				return err
			},
			wantErr: core.ErrEmptyCostCenter,
		},
		{
			name: "budget with bad year",
			run: func(r *Registry) error {
				_, err := r.SaveBudget(ctx, BudgetInput{CostCenter: "C1", Year: "next"})
				return err
			},
			wantErr: core.ErrInvalidYear,
		},
		{
			name: "appointment with bad time",
			run: func(r *Registry) error {
				_, err := r.CreateAppointment(ctx, AppointmentInput{ClientID: "CL1", Date: "2025-01-01", Time: "25:00", Service: "s", Responsible: "r"})
				return err
			},
			wantErr: core.ErrInvalidTime,
		},
		{
			name: "unknown export system",
			run: func(r *Registry) error {
				_, err := r.RunExport(ctx, "Excel")
				return err
			},
			wantErr: core.ErrUnknownExportSystem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &countingStore{}
			r := NewRegistry(store)

			err := tt.run(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !core.IsValidationError(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
			if store.writes != 0 {
				t.Errorf("expected no writes, got %d", store.writes)
			}
		})
	}
}

func TestCreateTransactionWritesRowAndAudit(t *testing.T) {
	r, repo := newTestRegistry(t)
	ctx := audit.WithActor(context.Background(), "US1")

	tx, err := r.CreateTransaction(ctx, TransactionInput{
		Type:        "Income",
		Amount:      "1200,505",
		Date:        "2025-02-01",
		Description: "  connection fee ",
		CostCenter:  "C7",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if !strings.HasPrefix(tx.ID, core.PrefixTransaction) || len(tx.ID) != core.IDLength {
		t.Errorf("unexpected id %q", tx.ID)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("1200.51")) {
		t.Errorf("expected amount rounded to 1200.51, got %s", tx.Amount)
	}

	stored, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(stored) != 1 || stored[0].Description != "connection fee" || *stored[0].CostCenter != "C7" {
		t.Fatalf("unexpected stored transactions: %+v", stored)
	}

	entries, err := r.RecentAudit(ctx)
	if err != nil {
		t.Fatalf("RecentAudit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Action != audit.ActionCreate || entries[0].UserID != "US1" {
		t.Errorf("unexpected audit entry %+v", entries[0])
	}
	if !strings.Contains(entries[0].Description, tx.ID) {
		t.Errorf("audit description %q does not name %s", entries[0].Description, tx.ID)
	}
}

func TestSaveBudgetDerivesStatus(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		allocated, spent string
		want             core.BudgetStatus
	}{
		{"1000", "1200", core.Overspent},
		{"1000", "400", core.Underutilized},
		{"1000", "500", core.OnTarget},
		{"", "", core.OnTarget},
	}
	for _, tt := range tests {
		b, err := r.SaveBudget(ctx, BudgetInput{CostCenter: "C1", Year: "2025", Allocated: tt.allocated, Spent: tt.spent})
		if err != nil {
			t.Fatalf("SaveBudget(%s/%s): %v", tt.allocated, tt.spent, err)
		}
		if b.Status != tt.want {
			t.Errorf("SaveBudget(%s/%s) status = %s, want %s", tt.allocated, tt.spent, b.Status, tt.want)
		}
	}

	budgets, err := r.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(budgets) != len(tests) {
		t.Errorf("expected %d budgets, got %d", len(tests), len(budgets))
	}
}

func TestRunAllocationSkipsExistingOnRerun(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	mustCreate := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	_, err := r.CreateTransaction(ctx, TransactionInput{Type: "Expense", Amount: "100", Date: "2025-01-10", CostCenter: "C1"})
	mustCreate(err)
	_, err = r.CreateTransaction(ctx, TransactionInput{Type: "Income", Amount: "50", Date: "2025-01-11"})
	mustCreate(err)
	_, err = r.CreateRule(ctx, RuleInput{Description: "expenses", CriterionType: "Type", CriterionValue: "Expense", Percentage: "60"})
	mustCreate(err)
	_, err = r.CreateRule(ctx, RuleInput{Description: "center", CriterionType: "Center", CriterionValue: "C1", Percentage: "40"})
	mustCreate(err)

	first, err := r.RunAllocation(ctx)
	if err != nil {
		t.Fatalf("RunAllocation: %v", err)
	}
	if first.Inserted != 2 || first.SkippedDuplicate != 0 || first.Failed != 0 {
		t.Fatalf("first run: %+v", first)
	}

	second, err := r.RunAllocation(ctx)
	if err != nil {
		t.Fatalf("RunAllocation: %v", err)
	}
	if second.Inserted != 0 || second.SkippedDuplicate != 2 {
		t.Fatalf("second run: %+v", second)
	}
	for _, item := range second.Items {
		if item.Outcome != allocation.SkippedDuplicate {
			t.Errorf("expected skipped duplicate, got %s", item.Outcome)
		}
	}

	allocs, err := r.ListAllocations(ctx)
	if err != nil {
		t.Fatalf("ListAllocations: %v", err)
	}
	if len(allocs) != 2 {
		t.Errorf("expected 2 allocations after rerun, got %d", len(allocs))
	}

	entries, err := r.RecentAudit(ctx)
	if err != nil {
		t.Fatalf("RecentAudit: %v", err)
	}
	var runs []string
	for _, e := range entries {
		if e.Action == audit.ActionAllocation {
			runs = append(runs, e.Description)
		}
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 allocation audit entries, got %d", len(runs))
	}
	if !strings.Contains(runs[0], "0 new records") && !strings.Contains(runs[1], "0 new records") {
		t.Errorf("expected one run to report 0 new records: %v", runs)
	}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ExportRecordedMessage
	err  error
}

func (p *fakePublisher) PublishExportRecorded(_ context.Context, msg *amqp.ExportRecordedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestRunExport(t *testing.T) {
	pub := &fakePublisher{}
	r, _ := newTestRegistry(t, WithPublisher(pub))
	ctx := context.Background()

	for _, amount := range []string{"10", "20.5"} {
		if _, err := r.CreateTransaction(ctx, TransactionInput{Type: "Income", Amount: amount, Date: "2025-03-01"}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := r.RunExport(ctx, "SAP Financials")
	if err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	if res.Exported != 2 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	exports, err := r.ListExports(ctx)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}
	for _, e := range exports {
		if e.System != "SAP Financials" {
			t.Errorf("unexpected system %q", e.System)
		}
		if e.ExportedOn.String() != "2025-06-15" {
			t.Errorf("expected export dated today, got %s", e.ExportedOn)
		}
	}
	if len(pub.msgs) != 2 {
		t.Errorf("expected 2 published messages, got %d", len(pub.msgs))
	}
}

func TestRunExportIgnoresPublishFailures(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrCircuitOpen}
	r, _ := newTestRegistry(t, WithPublisher(pub))
	ctx := context.Background()

	if _, err := r.CreateTransaction(ctx, TransactionInput{Type: "Expense", Amount: "3", Date: "2025-03-01"}); err != nil {
		t.Fatal(err)
	}
	res, err := r.RunExport(ctx, "1C Contabilitate")
	if err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	if res.Exported != 1 {
		t.Errorf("expected the row to be exported despite the publisher, got %+v", res)
	}
}

func TestCalculatePayroll(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	emp, err := r.CreateEmployee(ctx, EmployeeInput{
		IDNP:       "2001234567890",
		LastName:   "Rusu",
		FirstName:  "Ana",
		Position:   "Accountant",
		BaseSalary: "8400",
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	if emp.HiredOn.String() != "2025-06-15" {
		t.Errorf("expected hire date to default to today, got %s", emp.HiredOn)
	}

	if _, err := r.CreateEmployee(ctx, EmployeeInput{IDNP: "2001234567890", LastName: "X", FirstName: "Y", Position: "Z"}); !errors.Is(err, core.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for a repeated IDNP, got %v", err)
	}

	p, err := r.CalculatePayroll(ctx, PayrollInput{IDNP: emp.IDNP, Month: "2025-05", HoursWorked: 84})
	if err != nil {
		t.Fatalf("CalculatePayroll: %v", err)
	}
	if !p.Amount.Equal(decimal.RequireFromString("4200")) {
		t.Errorf("expected 4200.00, got %s", p.Amount)
	}

	_, err = r.CalculatePayroll(ctx, PayrollInput{IDNP: "missing", Month: "2025-05", HoursWorked: 10})
	if !errors.Is(err, core.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}

	_, err = r.CalculatePayroll(ctx, PayrollInput{IDNP: emp.IDNP, Month: "2025-13", HoursWorked: 10})
	if !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}

	rows, err := r.ListPayroll(ctx)
	if err != nil {
		t.Fatalf("ListPayroll: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 payroll row, got %d", len(rows))
	}
}

func TestLogin(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	if _, err := r.CreateUser(ctx, "ion", "secret", "Admin"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := r.CreateUser(ctx, "maria", "hunter2", "client"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := r.CreateUser(ctx, "ion", "other", "client"); !errors.Is(err, core.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for a repeated login, got %v", err)
	}

	tests := []struct {
		name      string
		login     string
		password  string
		wantErr   error
		wantAdmin bool
	}{
		{name: "admin", login: "ion", password: "secret", wantAdmin: true},
		{name: "standard", login: "maria", password: "hunter2"},
		{name: "wrong password", login: "ion", password: "nope", wantErr: core.ErrInvalidCredentials},
		{name: "unknown login", login: "ghost", password: "x", wantErr: core.ErrInvalidCredentials},
		{name: "padded credentials", login: " maria ", password: "\thunter2 "},
		{name: "blank password", login: "maria", password: "   ", wantErr: core.ErrEmptyCredentials},
		{name: "empty", login: "", password: "", wantErr: core.ErrEmptyCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := r.Login(ctx, tt.login, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if got := s.Capabilities.CanDo(access.ActionRunAllocation); got != tt.wantAdmin {
				t.Errorf("CanDo(run_allocation) = %v, want %v", got, tt.wantAdmin)
			}
			if !s.Capabilities.CanView(access.ViewReports) {
				t.Error("every role sees reports")
			}
		})
	}

	entries, err := r.RecentAudit(ctx)
	if err != nil {
		t.Fatalf("RecentAudit: %v", err)
	}
	logins := 0
	for _, e := range entries {
		if e.Action == audit.ActionLogin {
			logins++
		}
	}
	if logins != 3 {
		t.Errorf("expected 3 login audit entries, got %d", logins)
	}
}
