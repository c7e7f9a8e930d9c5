package report

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"registru/internal/cache"
	"registru/internal/core"
)

type fakeSource struct {
	txs     []core.Transaction
	budgets []core.Budget
	calls   int
}

func (f *fakeSource) SumByType(_ context.Context, p core.Period) ([]core.TypeTotal, error) {
	f.calls++
	sums := map[core.TransactionType]decimal.Decimal{}
	for _, tx := range f.txs {
		if !p.Contains(tx.Date) {
			continue
		}
		sums[tx.Type] = sums[tx.Type].Add(tx.Amount)
	}
	var out []core.TypeTotal
	for _, typ := range []core.TransactionType{core.Expense, core.Income} {
		if s, ok := sums[typ]; ok {
			out = append(out, core.TypeTotal{Type: typ, Total: s})
		}
	}
	return out, nil
}

func (f *fakeSource) ListBudgets(context.Context) ([]core.Budget, error) {
	f.calls++
	return f.budgets, nil
}

func tx(typ core.TransactionType, amount string, y, m, d int) core.Transaction {
	return core.Transaction{Type: typ, Amount: decimal.RequireFromString(amount), Date: core.NewDate(y, m, d)}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		prefix  string
		allTime bool
	}{
		{in: "2025", prefix: "2025"},
		{in: "2025-02", prefix: "2025-02"},
		{in: "2025-12", prefix: "2025-12"},
		{in: " 2024 ", prefix: "2024"},
		{in: "9999", prefix: "9999"},
		{in: "", allTime: true},
		{in: "abcd", allTime: true},
		{in: "2025-13", allTime: true},
		{in: "2025/02", allTime: true},
		{in: "25", allTime: true},
		{in: "2025-02-01", allTime: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := ParsePeriod(tt.in)
			if p.AllTime() != tt.allTime {
				t.Fatalf("AllTime() = %v, want %v", p.AllTime(), tt.allTime)
			}
			if tt.allTime {
				return
			}
			if p.Prefix() != tt.prefix {
				t.Fatalf("Prefix() = %q, want %q", p.Prefix(), tt.prefix)
			}
		})
	}
}

func TestIncomeExpenseByYear(t *testing.T) {
	src := &fakeSource{txs: []core.Transaction{
		tx(core.Income, "1000", 2025, 1, 5),
		tx(core.Income, "250.5", 2025, 11, 30),
		tx(core.Expense, "300", 2025, 6, 1),
		tx(core.Expense, "999", 2024, 12, 31),
		tx(core.Income, "1", 2026, 1, 1),
	}}
	g := NewGenerator(src, nil)

	lines, err := g.IncomeExpense(context.Background(), "2025")
	if err != nil {
		t.Fatalf("IncomeExpense: %v", err)
	}
	want := []string{"Expense: 300.00 MDL", "Income: 1250.50 MDL"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %q, want %q", lines, want)
	}
}

func TestIncomeExpenseEmptyYear(t *testing.T) {
	g := NewGenerator(&fakeSource{txs: []core.Transaction{tx(core.Income, "5", 2024, 1, 1)}}, nil)

	lines, err := g.IncomeExpense(context.Background(), "2025")
	if err != nil {
		t.Fatalf("IncomeExpense: %v", err)
	}
	if len(lines) != 1 || lines[0] != NoTransactions {
		t.Fatalf("expected placeholder, got %q", lines)
	}
}

func TestIncomeExpenseUnparsableMeansAllTime(t *testing.T) {
	src := &fakeSource{txs: []core.Transaction{
		tx(core.Income, "10", 2020, 1, 1),
		tx(core.Income, "20", 2025, 1, 1),
	}}
	lines, err := NewGenerator(src, nil).IncomeExpense(context.Background(), "last year")
	if err != nil {
		t.Fatalf("IncomeExpense: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"Income: 30.00 MDL"}) {
		t.Fatalf("got %q", lines)
	}
}

func TestBudgetsByCenter(t *testing.T) {
	src := &fakeSource{budgets: []core.Budget{
		{CostCenter: "C1", Year: 2025, Allocated: decimal.NewFromInt(1000), Spent: decimal.NewFromInt(1200), Status: core.Overspent},
		{CostCenter: "C2", Year: 2024, Allocated: decimal.RequireFromString("500.5"), Spent: decimal.Zero, Status: core.Underutilized},
	}}
	lines, err := NewGenerator(src, nil).BudgetsByCenter(context.Background())
	if err != nil {
		t.Fatalf("BudgetsByCenter: %v", err)
	}
	want := []string{
		"Center C1 | Year 2025 | Allocated 1000.00 | Spent 1200.00 | Status Overspent",
		"Center C2 | Year 2024 | Allocated 500.50 | Spent 0.00 | Status Underutilized",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %q, want %q", lines, want)
	}

	empty, _ := NewGenerator(&fakeSource{}, nil).BudgetsByCenter(context.Background())
	if !reflect.DeepEqual(empty, []string{NoBudgets}) {
		t.Fatalf("expected placeholder, got %q", empty)
	}
}

func TestGeneratorCachesUntilInvalidated(t *testing.T) {
	src := &fakeSource{txs: []core.Transaction{tx(core.Income, "10", 2025, 1, 1)}}
	g := NewGenerator(src, cache.NewLRUCache[[]string](8, time.Minute))
	ctx := context.Background()

	first, _ := g.IncomeExpense(ctx, "2025")
	src.txs = append(src.txs, tx(core.Income, "5", 2025, 2, 1))
	second, _ := g.IncomeExpense(ctx, "2025")
	if src.calls != 1 || !reflect.DeepEqual(first, second) {
		t.Fatalf("expected cached result, calls=%d", src.calls)
	}

	g.Invalidate()
	third, _ := g.IncomeExpense(ctx, "2025")
	if src.calls != 2 || third[0] != "Income: 15.00 MDL" {
		t.Fatalf("expected fresh result after invalidation, got %q (calls=%d)", third, src.calls)
	}
}
