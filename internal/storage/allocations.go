package storage

import (
	"context"
	"database/sql"
	"fmt"

	"registru/internal/core"
)

// InsertAllocation appends one allocation record. On SQLite a repeated
// (transaction, center, percentage) triple fails with an error for which
// IsDuplicate reports true; on MySQL that depends on the external schema.
func (r *Repository) InsertAllocation(ctx context.Context, a core.Allocation) error {
	err := r.exec(ctx, `
		INSERT INTO Repartizari
		(ID_Repartizare, ID_Transactie, ID_CentruResponsabil, Procent_Repartizare, Coeficient)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.TransactionID, a.CostCenter, a.Percentage, a.Coefficient)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

// ListAllocations returns every allocation record ordered by transaction.
func (r *Repository) ListAllocations(ctx context.Context) ([]core.Allocation, error) {
	var out []core.Allocation
	err := r.query(ctx, `
		SELECT ID_Repartizare, ID_Transactie, ID_CentruResponsabil, Procent_Repartizare, Coeficient
		FROM Repartizari
		ORDER BY ID_Transactie, ID_Repartizare`,
		func(rows *sql.Rows) error {
			var a core.Allocation
			if err := rows.Scan(&a.ID, &a.TransactionID, &a.CostCenter, &a.Percentage, &a.Coefficient); err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return out, nil
}
