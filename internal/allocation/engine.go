// Package allocation distributes transactions across cost centers by
// matching them against allocation rules.
package allocation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"registru/internal/core"
)

// Outcome of one attempted allocation insert.
type Outcome string

const (
	Inserted         Outcome = "inserted"
	SkippedDuplicate Outcome = "skipped_duplicate"
	Failed           Outcome = "failed"
)

// Coefficient written on every allocation record.
var Coefficient = decimal.NewFromInt(1)

// Store is the persistence the engine needs.
type Store interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListRules(ctx context.Context) ([]core.AllocationRule, error)
	InsertAllocation(ctx context.Context, a core.Allocation) error
}

// ItemResult describes what happened to one (transaction, rule) match.
type ItemResult struct {
	TransactionID string
	RuleID        string
	CostCenter    string
	Outcome       Outcome
	Err           error
}

// BatchResult is the report of one run.
type BatchResult struct {
	Items            []ItemResult
	Inserted         int
	SkippedDuplicate int
	Failed           int
}

func (b *BatchResult) add(item ItemResult) {
	b.Items = append(b.Items, item)
	switch item.Outcome {
	case Inserted:
		b.Inserted++
	case SkippedDuplicate:
		b.SkippedDuplicate++
	case Failed:
		b.Failed++
	}
}

// Engine runs allocation over the whole transaction and rule tables.
type Engine struct {
	store         Store
	defaultCenter string
	isDuplicate   func(error) bool
	newID         func() string
}

// Option customises an Engine.
type Option func(*Engine)

// WithDefaultCenter overrides the center written for transactions without one.
func WithDefaultCenter(center string) Option {
	return func(e *Engine) {
		if center != "" {
			e.defaultCenter = center
		}
	}
}

// WithDuplicateClassifier sets the function that recognises duplicate-key
// errors returned by the store.
func WithDuplicateClassifier(fn func(error) bool) Option {
	return func(e *Engine) {
		if fn != nil {
			e.isDuplicate = fn
		}
	}
}

// WithIDGenerator replaces the allocation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		defaultCenter: core.DefaultCostCenter,
		isDuplicate:   func(error) bool { return false },
		newID:         func() string { return core.NewID(core.PrefixAllocation) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Matches reports whether rule applies to tx. Only the operation type and
// cost center criteria are recognised; anything else never matches.
func Matches(rule core.AllocationRule, tx core.Transaction) bool {
	switch rule.Kind() {
	case core.CriterionType:
		return rule.CriterionValue == string(tx.Type)
	case core.CriterionCenter:
		return tx.HasCostCenter() && rule.CriterionValue == *tx.CostCenter
	default:
		return false
	}
}

// Planned is an allocation record together with the rule that produced it.
// The rule is reported in run results but not persisted.
type Planned struct {
	core.Allocation
	RuleID string
}

// Plan returns the allocation records that the given transactions and rules
// produce, in transaction then rule order. Ids are left empty.
func Plan(txs []core.Transaction, rules []core.AllocationRule, defaultCenter string) []Planned {
	var out []Planned
	for _, tx := range txs {
		center := defaultCenter
		if tx.HasCostCenter() {
			center = *tx.CostCenter
		}
		for _, rule := range rules {
			if !Matches(rule, tx) {
				continue
			}
			out = append(out, Planned{
				Allocation: core.Allocation{
					TransactionID: tx.ID,
					CostCenter:    center,
					Percentage:    rule.Percentage,
					Coefficient:   Coefficient,
				},
				RuleID: rule.ID,
			})
		}
	}
	return out
}

// Run loads every transaction and rule, then inserts one allocation record
// per match. Insert failures never abort the batch: duplicates are reported
// as skipped and other errors as failed. Only a failure to load the inputs
// returns an error.
func (e *Engine) Run(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	txs, err := e.store.ListTransactions(ctx)
	if err != nil {
		return result, fmt.Errorf("load transactions: %w", err)
	}
	rules, err := e.store.ListRules(ctx)
	if err != nil {
		return result, fmt.Errorf("load rules: %w", err)
	}

	for _, a := range Plan(txs, rules, e.defaultCenter) {
		a.ID = e.newID()
		item := ItemResult{TransactionID: a.TransactionID, RuleID: a.RuleID, CostCenter: a.CostCenter}

		switch err := e.store.InsertAllocation(ctx, a.Allocation); {
		case err == nil:
			item.Outcome = Inserted
		case e.isDuplicate(err):
			item.Outcome = SkippedDuplicate
		default:
			item.Outcome = Failed
			item.Err = err
			slog.WarnContext(ctx, "Allocation insert failed",
				"transaction_id", a.TransactionID,
				"rule_id", a.RuleID,
				"error", err)
		}
		result.add(item)
	}

	slog.InfoContext(ctx, "Allocation run finished",
		"transactions", len(txs),
		"rules", len(rules),
		"inserted", result.Inserted,
		"skipped_duplicate", result.SkippedDuplicate,
		"failed", result.Failed)

	return result, nil
}
