package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
	"carteira/internal/storage/memory"
)

// Balance equals the income total minus the expense total for any sequence.
func TestBalanceMatchesReduction(t *testing.T) {
	ctx := context.Background()
	for seed := int64(1); seed <= 20; seed++ {
		f := gofakeit.New(seed)
		store := memory.New()
		want := decimal.Zero
		n := f.IntRange(0, 40)
		for i := 0; i < n; i++ {
			typ := core.Expense
			if f.Bool() {
				typ = core.Income
			}
			amount := decimal.NewFromFloat(f.Float64Range(0.01, 5000)).Round(2)
			if !amount.IsPositive() {
				continue
			}
			tx := core.Transaction{Type: typ, Amount: amount, Description: f.Word(), Category: core.FallbackCategory(typ)}
			if _, err := store.Record(ctx, "owner", tx); err != nil {
				t.Fatalf("seed %d: Record: %v", seed, err)
			}
			if typ == core.Income {
				want = want.Add(amount)
			} else {
				want = want.Sub(amount)
			}
		}
		// noise for another owner must not leak in
		_, _ = store.Record(ctx, "other", core.Transaction{Type: core.Income, Amount: decimal.NewFromInt(99), Category: "Salário"})

		got, err := ledger.Balance(ctx, store, "owner")
		if err != nil {
			t.Fatalf("seed %d: Balance: %v", seed, err)
		}
		if !got.Equal(want) {
			t.Fatalf("seed %d: balance %s, want %s", seed, got, want)
		}
	}
}

func TestPrepare(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tx, err := ledger.Prepare("alice", core.Transaction{Type: core.Expense, Amount: decimal.NewFromInt(3), Category: "Lazer"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if tx.ID == "" || tx.Owner != "alice" || !tx.CreatedAt.Equal(now) || !tx.Timestamp.Equal(now) {
		t.Fatalf("unexpected prepared transaction %+v", tx)
	}
	if _, err := ledger.Prepare("alice", core.Transaction{Type: core.Expense, Amount: decimal.Zero, Category: "Lazer"}, now); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGroupBy(t *testing.T) {
	mk := func(desc, amount string) core.Transaction {
		return core.Transaction{Type: core.Expense, Description: desc, Amount: decimal.RequireFromString(amount)}
	}
	txs := []core.Transaction{mk("mercado", "50"), mk("uber", "30"), mk("mercado", "25.50"), mk("bar", "75.50"), mk("uber", "20")}
	groups := ledger.GroupBy(txs, ledger.ByDescription)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	// mercado and bar tie at 75.50; mercado appeared first
	if groups[0].Label != "mercado" || groups[0].Count != 2 || !groups[0].Total.Equal(decimal.RequireFromString("75.5")) {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].Label != "bar" || groups[2].Label != "uber" {
		t.Fatalf("unexpected order %+v", groups)
	}
}

func TestFilterAndByWeekday(t *testing.T) {
	monday := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		{Type: core.Expense, Amount: decimal.NewFromInt(10), Timestamp: monday},
		{Type: core.Expense, Amount: decimal.NewFromInt(5), Timestamp: monday.AddDate(0, 0, 6)},
		{Type: core.Income, Amount: decimal.NewFromInt(100), Timestamp: monday},
		{Type: core.Expense, Amount: decimal.NewFromInt(7), Timestamp: monday.AddDate(0, 0, 7)},
	}
	week := ledger.Filter(txs, core.Expense, core.WeekOf(monday))
	if len(week) != 2 || !ledger.Total(week).Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected weekly expenses %+v", week)
	}
	days := ledger.ByWeekday(week)
	if !days[0].Equal(decimal.NewFromInt(10)) || !days[6].Equal(decimal.NewFromInt(5)) || !days[3].IsZero() {
		t.Fatalf("unexpected weekday totals %v", days)
	}
}
