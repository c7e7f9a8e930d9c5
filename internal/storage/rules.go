package storage

import (
	"context"
	"database/sql"
	"fmt"

	"registru/internal/core"
)

func (r *Repository) InsertRule(ctx context.Context, rule core.AllocationRule) error {
	value := rule.CriterionValue
	err := r.exec(ctx, `
		INSERT INTO ReguliRepartizare
		(ID_Regula, Descriere_Regula, Tip_Criteriu, Valoare_Criteriu, Procent_Repartizare)
		VALUES (?, ?, ?, ?, ?)`,
		rule.ID, rule.Description, rule.CriterionType, nullString(&value), rule.Percentage)
	if err != nil {
		return fmt.Errorf("insert allocation rule: %w", err)
	}
	return nil
}

// ListRules returns every allocation rule ordered by id.
func (r *Repository) ListRules(ctx context.Context) ([]core.AllocationRule, error) {
	var out []core.AllocationRule
	err := r.query(ctx, `
		SELECT ID_Regula, Descriere_Regula, Tip_Criteriu, Valoare_Criteriu, Procent_Repartizare
		FROM ReguliRepartizare
		ORDER BY ID_Regula`,
		func(rows *sql.Rows) error {
			var (
				rule  core.AllocationRule
				value sql.NullString
			)
			if err := rows.Scan(&rule.ID, &rule.Description, &rule.CriterionType, &value, &rule.Percentage); err != nil {
				return err
			}
			rule.CriterionValue = value.String
			out = append(out, rule)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list allocation rules: %w", err)
	}
	return out, nil
}
