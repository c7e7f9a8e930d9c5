package storage

import (
	"context"
	"database/sql"
	"fmt"

	"registru/internal/core"
)

func (r *Repository) InsertBudget(ctx context.Context, b core.Budget) error {
	err := r.exec(ctx, `
		INSERT INTO Bugete
		(ID_Buget, ID_CentruResponsabil, An_Buget, Suma_Alocata, Suma_EfectivaCheltuita, Status_Executie)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.CostCenter, b.Year, b.Allocated, b.Spent, string(b.Status))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

// ListBudgets returns every budget, most recent year first.
func (r *Repository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var out []core.Budget
	err := r.query(ctx, `
		SELECT ID_Buget, ID_CentruResponsabil, An_Buget, Suma_Alocata, Suma_EfectivaCheltuita, Status_Executie
		FROM Bugete
		ORDER BY An_Buget DESC, ID_CentruResponsabil`,
		func(rows *sql.Rows) error {
			var (
				b      core.Budget
				status string
			)
			if err := rows.Scan(&b.ID, &b.CostCenter, &b.Year, &b.Allocated, &b.Spent, &status); err != nil {
				return err
			}
			b.Status = core.BudgetStatus(status)
			out = append(out, b)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}
