package services

import (
	"context"
	"fmt"
	"log/slog"

	"registru/internal/audit"
	"registru/internal/core"
)

// CreateTransaction validates and stores one transaction. Validation
// failures are returned before the store is touched.
func (r *Registry) CreateTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	t, err := parseTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = core.NewID(core.PrefixTransaction)

	if err := r.store.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	r.reports.Invalidate()
	r.record(ctx, audit.ActionCreate, fmt.Sprintf("Transaction %s created", t.ID))

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"type", t.Type,
		"amount", core.FormatAmount(t.Amount))
	return t, nil
}

func (r *Registry) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.store.ListTransactions(ctx)
}

func (r *Registry) CreateRule(ctx context.Context, in RuleInput) (core.AllocationRule, error) {
	rule, err := parseRule(in)
	if err != nil {
		return core.AllocationRule{}, err
	}
	rule.ID = core.NewID(core.PrefixRule)

	if err := r.store.InsertRule(ctx, rule); err != nil {
		return core.AllocationRule{}, err
	}
	r.record(ctx, audit.ActionCreate, fmt.Sprintf("Rule %s created", rule.ID))
	return rule, nil
}

func (r *Registry) ListRules(ctx context.Context) ([]core.AllocationRule, error) {
	return r.store.ListRules(ctx)
}

// SaveBudget stores a budget whose status is derived from its amounts.
func (r *Registry) SaveBudget(ctx context.Context, in BudgetInput) (core.Budget, error) {
	b, err := parseBudget(in)
	if err != nil {
		return core.Budget{}, err
	}
	b.ID = core.NewID(core.PrefixBudget)

	if err := r.store.InsertBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	r.reports.Invalidate()
	r.record(ctx, audit.ActionCreate, fmt.Sprintf("Budget %s created", b.ID))
	return b, nil
}

func (r *Registry) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return r.store.ListBudgets(ctx)
}
