package storage

import (
	"context"
	"database/sql"
	"fmt"

	"registru/internal/core"
)

func (r *Repository) InsertExport(ctx context.Context, e core.ExportRecord) error {
	err := r.exec(ctx, `
		INSERT INTO Exporturi
		(ID_Export, ID_Transactie, Sistem_Export, Data_Exportata, Suma_Exportata)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.TransactionID, e.System, e.ExportedOn.String(), e.Amount)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// ListExports returns every export row, newest export date first.
func (r *Repository) ListExports(ctx context.Context) ([]core.ExportRecord, error) {
	var out []core.ExportRecord
	err := r.query(ctx, `
		SELECT ID_Export, ID_Transactie, Sistem_Export, Data_Exportata, Suma_Exportata
		FROM Exporturi
		ORDER BY Data_Exportata DESC, ID_Export`,
		func(rows *sql.Rows) error {
			var (
				e   core.ExportRecord
				day string
			)
			if err := rows.Scan(&e.ID, &e.TransactionID, &e.System, &day, &e.Amount); err != nil {
				return err
			}
			date, err := parseDay(day)
			if err != nil {
				return err
			}
			e.ExportedOn = date
			out = append(out, e)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return out, nil
}
