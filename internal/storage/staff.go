package storage

import (
	"context"
	"database/sql"
	"fmt"

	"registru/internal/core"
)

func (r *Repository) InsertEmployee(ctx context.Context, e core.Employee) error {
	err := r.exec(ctx, `
		INSERT INTO Angajati
		(IDNP, Nume, Prenume, Email, Telefon, Functie, Data_Angajarii, Salariu_Baza)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.IDNP, e.LastName, e.FirstName, e.Email, e.Phone, e.Position, e.HiredOn.String(), e.BaseSalary)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// ListEmployees returns every employee ordered by last name.
func (r *Repository) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	var out []core.Employee
	err := r.query(ctx, `
		SELECT IDNP, Nume, Prenume, Email, Telefon, Functie, Data_Angajarii, Salariu_Baza
		FROM Angajati
		ORDER BY Nume, Prenume, IDNP`,
		func(rows *sql.Rows) error {
			e, err := scanEmployee(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

// GetEmployee looks an employee up by IDNP. It returns core.ErrEmployeeNotFound
// when no row matches.
func (r *Repository) GetEmployee(ctx context.Context, idnp string) (core.Employee, error) {
	var (
		e     core.Employee
		found bool
	)
	err := r.query(ctx, `
		SELECT IDNP, Nume, Prenume, Email, Telefon, Functie, Data_Angajarii, Salariu_Baza
		FROM Angajati
		WHERE IDNP = ?`,
		func(rows *sql.Rows) error {
			var err error
			e, err = scanEmployee(rows)
			found = err == nil
			return err
		}, idnp)
	if err != nil {
		return core.Employee{}, fmt.Errorf("get employee %s: %w", idnp, err)
	}
	if !found {
		return core.Employee{}, fmt.Errorf("get employee %s: %w", idnp, core.ErrEmployeeNotFound)
	}
	return e, nil
}

func scanEmployee(rows *sql.Rows) (core.Employee, error) {
	var (
		e            core.Employee
		email, phone sql.NullString
		hired        string
	)
	if err := rows.Scan(&e.IDNP, &e.LastName, &e.FirstName, &email, &phone, &e.Position, &hired, &e.BaseSalary); err != nil {
		return core.Employee{}, err
	}
	date, err := parseDay(hired)
	if err != nil {
		return core.Employee{}, err
	}
	e.Email = email.String
	e.Phone = phone.String
	e.HiredOn = date
	return e, nil
}

func (r *Repository) InsertPayroll(ctx context.Context, p core.PayrollCalculation) error {
	err := r.exec(ctx, `
		INSERT INTO CalculSalarii
		(ID_Calcul, IDNP, Luna, Nr_Ore_Lucrate, Salariu_Calculat)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.IDNP, p.Month, p.HoursWorked, p.Amount)
	if err != nil {
		return fmt.Errorf("insert payroll calculation: %w", err)
	}
	return nil
}

// ListPayroll returns payroll calculations, newest month first.
func (r *Repository) ListPayroll(ctx context.Context) ([]core.PayrollCalculation, error) {
	var out []core.PayrollCalculation
	err := r.query(ctx, `
		SELECT ID_Calcul, IDNP, Luna, Nr_Ore_Lucrate, Salariu_Calculat
		FROM CalculSalarii
		ORDER BY Luna DESC, IDNP`,
		func(rows *sql.Rows) error {
			var p core.PayrollCalculation
			if err := rows.Scan(&p.ID, &p.IDNP, &p.Month, &p.HoursWorked, &p.Amount); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list payroll calculations: %w", err)
	}
	return out, nil
}

func (r *Repository) InsertAppointment(ctx context.Context, a core.Appointment) error {
	err := r.exec(ctx, `
		INSERT INTO Programari
		(ID_Programare, ID_Client, Data_Programarii, Ora_Programarii, Serviciu, Responsabil)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, a.Date.String(), a.Time, a.Service, a.Responsible)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// ListAppointments returns every appointment, latest date first.
func (r *Repository) ListAppointments(ctx context.Context) ([]core.Appointment, error) {
	var out []core.Appointment
	err := r.query(ctx, `
		SELECT ID_Programare, ID_Client, Data_Programarii, Ora_Programarii, Serviciu, Responsabil
		FROM Programari
		ORDER BY Data_Programarii DESC, Ora_Programarii DESC`,
		func(rows *sql.Rows) error {
			var (
				a   core.Appointment
				day string
			)
			if err := rows.Scan(&a.ID, &a.ClientID, &day, &a.Time, &a.Service, &a.Responsible); err != nil {
				return err
			}
			date, err := parseDay(day)
			if err != nil {
				return err
			}
			a.Date = date
			if len(a.Time) > 5 {
				a.Time = a.Time[:5] // MySQL TIME comes back as HH:MM:SS
			}
			out = append(out, a)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}
