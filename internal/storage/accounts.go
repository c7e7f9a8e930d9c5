package storage

import (
	"context"
	"database/sql"
	"fmt"

	"registru/internal/core"
)

// InsertUser stores an account. PasswordHash must already be hashed.
func (r *Repository) InsertUser(ctx context.Context, u core.User) error {
	err := r.exec(ctx, `
		INSERT INTO Utilizatori (ID_Utilizator, Login, Parola, Tip_Cont)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Login, u.PasswordHash, u.AccountType)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindUserByLogin returns the account with the given login or ErrNotFound.
func (r *Repository) FindUserByLogin(ctx context.Context, login string) (core.User, error) {
	var (
		u     core.User
		found bool
	)
	err := r.query(ctx, `
		SELECT ID_Utilizator, Login, Parola, Tip_Cont
		FROM Utilizatori
		WHERE Login = ?`,
		func(rows *sql.Rows) error {
			if err := rows.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.AccountType); err != nil {
				return err
			}
			found = true
			return nil
		}, login)
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if !found {
		return core.User{}, fmt.Errorf("find user %q: %w", login, ErrNotFound)
	}
	return u, nil
}

// InsertAudit appends one audit entry.
func (r *Repository) InsertAudit(ctx context.Context, e core.AuditEntry) error {
	err := r.exec(ctx, `
		INSERT INTO LogAudit (ID_Log, ID_Utilizator, Tip_Actiune, Data_Ora, Descriere)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Action, formatTimestamp(e.At), e.Description)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAudit returns at most limit entries, newest first.
func (r *Repository) ListAudit(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	var out []core.AuditEntry
	err := r.query(ctx, `
		SELECT ID_Log, ID_Utilizator, Tip_Actiune, Data_Ora, Descriere
		FROM LogAudit
		ORDER BY Data_Ora DESC, ID_Log DESC
		LIMIT ?`,
		func(rows *sql.Rows) error {
			var (
				e           core.AuditEntry
				at          string
				description sql.NullString
			)
			if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &at, &description); err != nil {
				return err
			}
			ts, err := parseTimestamp(at)
			if err != nil {
				return err
			}
			e.At = ts
			e.Description = description.String
			out = append(out, e)
			return nil
		}, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}
