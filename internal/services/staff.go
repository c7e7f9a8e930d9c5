package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"registru/internal/audit"
	"registru/internal/core"
)

func (r *Registry) CreateEmployee(ctx context.Context, in EmployeeInput) (core.Employee, error) {
	e, err := parseEmployee(in, r.today())
	if err != nil {
		return core.Employee{}, err
	}

	if err := r.store.InsertEmployee(ctx, e); err != nil {
		if r.isDuplicate(err) {
			return core.Employee{}, fmt.Errorf("employee %s: %w", e.IDNP, core.ErrDuplicate)
		}
		return core.Employee{}, err
	}
	r.record(ctx, audit.ActionCreate, fmt.Sprintf("Employee %s created", e.IDNP))
	return e, nil
}

func (r *Registry) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	return r.store.ListEmployees(ctx)
}

// CalculatePayroll computes base / 168 * hours for one employee and month
// and stores the result.
func (r *Registry) CalculatePayroll(ctx context.Context, in PayrollInput) (core.PayrollCalculation, error) {
	idnp, month := strings.TrimSpace(in.IDNP), strings.TrimSpace(in.Month)
	if err := core.ValidatePayrollInput(idnp, month, in.HoursWorked); err != nil {
		return core.PayrollCalculation{}, err
	}

	emp, err := r.store.GetEmployee(ctx, idnp)
	if err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) || r.isNotFound(err) {
			return core.PayrollCalculation{}, fmt.Errorf("payroll for %s: %w", idnp, core.ErrEmployeeNotFound)
		}
		return core.PayrollCalculation{}, err
	}

	p := core.PayrollCalculation{
		ID:          core.NewID(core.PrefixPayroll),
		IDNP:        idnp,
		Month:       month,
		HoursWorked: in.HoursWorked,
		Amount:      core.CalculatePay(emp.BaseSalary, in.HoursWorked),
	}
	if err := r.store.InsertPayroll(ctx, p); err != nil {
		return core.PayrollCalculation{}, err
	}
	r.record(ctx, audit.ActionPayroll, fmt.Sprintf("Salary calculated for %s, %s", idnp, month))
	return p, nil
}

func (r *Registry) ListPayroll(ctx context.Context) ([]core.PayrollCalculation, error) {
	return r.store.ListPayroll(ctx)
}

func (r *Registry) CreateAppointment(ctx context.Context, in AppointmentInput) (core.Appointment, error) {
	a, err := parseAppointment(in)
	if err != nil {
		return core.Appointment{}, err
	}
	a.ID = core.NewID(core.PrefixAppointment)

	if err := r.store.InsertAppointment(ctx, a); err != nil {
		return core.Appointment{}, err
	}
	r.record(ctx, audit.ActionCreate, fmt.Sprintf("Appointment %s created", a.ID))
	return a, nil
}

func (r *Registry) ListAppointments(ctx context.Context) ([]core.Appointment, error) {
	return r.store.ListAppointments(ctx)
}
