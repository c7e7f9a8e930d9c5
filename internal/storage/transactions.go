package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"registru/internal/core"
)

// InsertTransaction appends one row to Tranzactii.
func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	err := r.exec(ctx, `
		INSERT INTO Tranzactii
		(ID_Transactie, Tip_Operatiune, Suma, Data_Operatiune, Descriere, ID_CentruResponsabil)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), t.Amount, t.Date.String(), t.Description, nullString(t.CostCenter))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved", "id", t.ID, "type", t.Type, "amount", t.Amount.StringFixed(2))
	return nil
}

// ListTransactions returns every transaction, newest operation date first.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	err := r.query(ctx, `
		SELECT ID_Transactie, Tip_Operatiune, Suma, Data_Operatiune, Descriere, ID_CentruResponsabil
		FROM Tranzactii
		ORDER BY Data_Operatiune DESC, ID_Transactie`,
		func(rows *sql.Rows) error {
			var (
				t           core.Transaction
				typ, day    string
				description sql.NullString
				center      sql.NullString
			)
			if err := rows.Scan(&t.ID, &typ, &t.Amount, &day, &description, &center); err != nil {
				return err
			}
			date, err := parseDay(day)
			if err != nil {
				return err
			}
			t.Type = core.TransactionType(typ)
			t.Date = date
			t.Description = description.String
			t.CostCenter = stringPtr(center)
			out = append(out, t)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// SumByType groups transactions by operation type and sums their amounts,
// optionally restricted to a period. The period is matched on the leading
// characters of the operation date. Rows are ordered by type.
func (r *Repository) SumByType(ctx context.Context, p core.Period) ([]core.TypeTotal, error) {
	q := `SELECT Tip_Operatiune, SUM(Suma) FROM Tranzactii`
	var args []any
	if !p.AllTime() {
		prefix := p.Prefix()
		q += ` WHERE SUBSTR(Data_Operatiune, 1, ?) = ?`
		args = append(args, len(prefix), prefix)
	}
	q += ` GROUP BY Tip_Operatiune ORDER BY Tip_Operatiune`

	var out []core.TypeTotal
	err := r.query(ctx, q, func(rows *sql.Rows) error {
		var (
			typ   string
			total decimal.NullDecimal
		)
		if err := rows.Scan(&typ, &total); err != nil {
			return err
		}
		out = append(out, core.TypeTotal{Type: core.TransactionType(typ), Total: total.Decimal.Round(2)})
		return nil
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("sum transactions by type: %w", err)
	}
	return out, nil
}
