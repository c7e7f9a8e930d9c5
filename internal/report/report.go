// Package report renders the plain-text summaries shown on the reports page.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"registru/internal/cache"
	"registru/internal/core"
)

// Placeholder lines for empty reports.
const (
	NoTransactions = "No transactions for the selected period."
	NoBudgets      = "No budgets recorded."
)

// Source provides the aggregated data a report needs.
type Source interface {
	SumByType(ctx context.Context, p core.Period) ([]core.TypeTotal, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
}

// Generator builds report lines, optionally caching them.
type Generator struct {
	src   Source
	cache cache.Cache[[]string]
}

// NewGenerator returns a Generator. c may be nil to disable caching.
func NewGenerator(src Source, c cache.Cache[[]string]) *Generator {
	return &Generator{src: src, cache: c}
}

// ParsePeriod interprets a period filter. "YYYY" selects a calendar year,
// "YYYY-MM" a month. Anything else, including the empty string, selects
// all time.
func ParsePeriod(s string) core.Period {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 4:
		year, err := strconv.Atoi(s)
		if err != nil || year < 1 {
			return core.Period{}
		}
		return core.Period{Label: s, Year: year}
	case len(s) == 7 && s[4] == '-':
		year, yerr := strconv.Atoi(s[:4])
		month, merr := strconv.Atoi(s[5:])
		if yerr != nil || merr != nil || year < 1 || month < 1 || month > 12 {
			return core.Period{}
		}
		return core.Period{Label: s, Year: year, Month: month}
	}
	return core.Period{}
}

// IncomeExpense returns one "<Type>: <sum> MDL" line per operation type in
// the period, or the NoTransactions placeholder.
func (g *Generator) IncomeExpense(ctx context.Context, period string) ([]string, error) {
	p := ParsePeriod(period)
	key := "income-expense:" + p.Label

	if lines, ok := g.cached(key); ok {
		return lines, nil
	}

	totals, err := g.src.SumByType(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("income/expense report: %w", err)
	}

	lines := IncomeExpenseLines(totals)
	g.store(key, lines)
	return lines, nil
}

// BudgetsByCenter returns one line per recorded budget, or the NoBudgets
// placeholder.
func (g *Generator) BudgetsByCenter(ctx context.Context) ([]string, error) {
	const key = "budgets"

	if lines, ok := g.cached(key); ok {
		return lines, nil
	}

	budgets, err := g.src.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("budget report: %w", err)
	}

	lines := BudgetLines(budgets)
	g.store(key, lines)
	return lines, nil
}

// Totals returns the raw per-type totals for a period, bypassing the cache.
func (g *Generator) Totals(ctx context.Context, period string) ([]core.TypeTotal, core.Period, error) {
	p := ParsePeriod(period)
	totals, err := g.src.SumByType(ctx, p)
	if err != nil {
		return nil, p, fmt.Errorf("income/expense totals: %w", err)
	}
	return totals, p, nil
}

// Invalidate drops every cached report.
func (g *Generator) Invalidate() {
	if g.cache != nil {
		g.cache.Purge()
	}
}

func (g *Generator) cached(key string) ([]string, bool) {
	if g.cache == nil {
		return nil, false
	}
	return g.cache.Get(key)
}

func (g *Generator) store(key string, lines []string) {
	if g.cache != nil {
		g.cache.Set(key, lines)
	}
}

func IncomeExpenseLines(totals []core.TypeTotal) []string {
	if len(totals) == 0 {
		return []string{NoTransactions}
	}
	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Type, core.FormatMDL(t.Total)))
	}
	return lines
}

func BudgetLines(budgets []core.Budget) []string {
	if len(budgets) == 0 {
		return []string{NoBudgets}
	}
	lines := make([]string, 0, len(budgets))
	for _, b := range budgets {
		lines = append(lines, fmt.Sprintf("Center %s | Year %d | Allocated %s | Spent %s | Status %s",
			b.CostCenter, b.Year, core.FormatAmount(b.Allocated), core.FormatAmount(b.Spent), b.Status))
	}
	return lines
}
