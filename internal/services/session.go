package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"registru/internal/access"
	"registru/internal/audit"
	"registru/internal/core"
)

// Session is the authenticated identity plus what it may see and do.
type Session struct {
	UserID       string
	Login        string
	AccountType  string
	Role         access.Role
	Capabilities access.Capabilities
}

// NewSession resolves capabilities once for u.
func NewSession(u core.User) Session {
	role := access.RoleFor(u)
	return Session{
		UserID:       u.ID,
		Login:        u.Login,
		AccountType:  u.AccountType,
		Role:         role,
		Capabilities: access.For(role),
	}
}

// Login checks credentials and records a Login audit entry on success.
// Surrounding whitespace is stripped from both fields. Unknown logins and
// wrong passwords both yield core.ErrInvalidCredentials.
func (r *Registry) Login(ctx context.Context, login, password string) (Session, error) {
	login, password = strings.TrimSpace(login), strings.TrimSpace(password)
	if login == "" || password == "" {
		return Session{}, core.ErrEmptyCredentials
	}

	u, err := r.store.FindUserByLogin(ctx, login)
	if err != nil {
		if r.isNotFound(err) {
			return Session{}, core.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Session{}, core.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("login: verify password: %w", err)
	}

	r.audit.Record(ctx, u.ID, audit.ActionLogin, "Authentication succeeded")
	return NewSession(u), nil
}

// CreateUser stores an account with a bcrypt hash of the trimmed password.
func (r *Registry) CreateUser(ctx context.Context, login, password, accountType string) (core.User, error) {
	login, password = strings.TrimSpace(login), strings.TrimSpace(password)
	if login == "" || password == "" {
		return core.User{}, core.ErrEmptyCredentials
	}
	accountType = strings.TrimSpace(accountType)
	if accountType == "" {
		accountType = "client"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:           core.NewID(core.PrefixUser),
		Login:        login,
		PasswordHash: string(hash),
		AccountType:  accountType,
	}
	if err := r.store.InsertUser(ctx, u); err != nil {
		if r.isDuplicate(err) {
			return core.User{}, fmt.Errorf("user %s: %w", login, core.ErrDuplicate)
		}
		return core.User{}, err
	}
	r.record(ctx, audit.ActionCreate, fmt.Sprintf("User %s created", login))
	return u, nil
}
