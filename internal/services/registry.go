// Package services implements the registrars and batch runs behind every
// page of the back office. Each operation validates its input before any
// persistence call, writes one row, and records an audit entry.
package services

import (
	"context"
	"time"

	"registru/internal/allocation"
	"registru/internal/amqp"
	"registru/internal/audit"
	"registru/internal/core"
	"registru/internal/report"
)

// Store is the persistence the registrars need.
type Store interface {
	InsertTransaction(ctx context.Context, t core.Transaction) error
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	InsertRule(ctx context.Context, r core.AllocationRule) error
	ListRules(ctx context.Context) ([]core.AllocationRule, error)
	InsertBudget(ctx context.Context, b core.Budget) error
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	InsertAllocation(ctx context.Context, a core.Allocation) error
	ListAllocations(ctx context.Context) ([]core.Allocation, error)
	InsertExport(ctx context.Context, e core.ExportRecord) error
	ListExports(ctx context.Context) ([]core.ExportRecord, error)
	InsertEmployee(ctx context.Context, e core.Employee) error
	ListEmployees(ctx context.Context) ([]core.Employee, error)
	GetEmployee(ctx context.Context, idnp string) (core.Employee, error)
	InsertPayroll(ctx context.Context, p core.PayrollCalculation) error
	ListPayroll(ctx context.Context) ([]core.PayrollCalculation, error)
	InsertAppointment(ctx context.Context, a core.Appointment) error
	ListAppointments(ctx context.Context) ([]core.Appointment, error)
	InsertUser(ctx context.Context, u core.User) error
	FindUserByLogin(ctx context.Context, login string) (core.User, error)
	InsertAudit(ctx context.Context, e core.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]core.AuditEntry, error)
	SumByType(ctx context.Context, p core.Period) ([]core.TypeTotal, error)
}

// Publisher announces export rows to downstream consumers.
type Publisher interface {
	PublishExportRecorded(ctx context.Context, msg *amqp.ExportRecordedMessage) error
}

type Registry struct {
	store       Store
	audit       *audit.Recorder
	reports     *report.Generator
	engine      *allocation.Engine
	publisher   Publisher
	isDuplicate func(error) bool
	isNotFound  func(error) bool
	now         func() time.Time
}

// Option customises a Registry.
type Option func(*Registry)

// WithPublisher enables export notifications.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) { r.publisher = p }
}

// WithReports sets the report generator whose cache is invalidated on writes.
func WithReports(g *report.Generator) Option {
	return func(r *Registry) { r.reports = g }
}

// WithErrorClassifiers tells the registry how the store reports duplicate
// keys and missing rows.
func WithErrorClassifiers(isDuplicate, isNotFound func(error) bool) Option {
	return func(r *Registry) {
		if isDuplicate != nil {
			r.isDuplicate = isDuplicate
		}
		if isNotFound != nil {
			r.isNotFound = isNotFound
		}
	}
}

// WithDefaultCenter sets the fallback center of the allocation run.
func WithDefaultCenter(center string) Option {
	return func(r *Registry) {
		r.engine = allocation.NewEngine(r.store,
			allocation.WithDefaultCenter(center),
			allocation.WithDuplicateClassifier(func(err error) bool { return r.isDuplicate(err) }))
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:       store,
		audit:       audit.NewRecorder(store),
		isDuplicate: func(error) bool { return false },
		isNotFound:  func(error) bool { return false },
		now:         time.Now,
	}
	r.engine = allocation.NewEngine(store,
		allocation.WithDuplicateClassifier(func(err error) bool { return r.isDuplicate(err) }))

	for _, opt := range opts {
		opt(r)
	}
	if r.reports == nil {
		r.reports = report.NewGenerator(store, nil)
	}
	return r
}

// Reports returns the report generator backed by this registry's store.
func (r *Registry) Reports() *report.Generator {
	return r.reports
}

// RecentAudit returns the newest audit entries.
func (r *Registry) RecentAudit(ctx context.Context) ([]core.AuditEntry, error) {
	return r.audit.Recent(ctx)
}

func (r *Registry) record(ctx context.Context, action, description string) {
	r.audit.Record(ctx, audit.ActorFrom(ctx), action, description)
}

func (r *Registry) today() core.Date {
	y, m, d := r.now().Date()
	return core.NewDate(y, int(m), d)
}
