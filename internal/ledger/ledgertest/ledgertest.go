// Package ledgertest is a behavioural test suite shared by every ledger
// backend.
package ledgertest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

// Factory returns an empty backend; the suite closes it.
type Factory func(t *testing.T) ledger.Backend

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func tx(typ core.TransactionType, amount, desc, category string, at time.Time) core.Transaction {
	return core.Transaction{
		Type:        typ,
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
		Category:    category,
		Timestamp:   at,
	}
}

// Run exercises the ledger.Backend contract.
func Run(t *testing.T, newBackend Factory) {
	t.Run("RecordAndList", func(t *testing.T) { testRecordAndList(t, newBackend(t)) })
	t.Run("RecordRejectsInvalid", func(t *testing.T) { testRecordRejectsInvalid(t, newBackend(t)) })
	t.Run("RangeSum", func(t *testing.T) { testRangeSum(t, newBackend(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newBackend(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newBackend(t)) })
}

func testRecordAndList(t *testing.T, b ledger.Backend) {
	defer b.Close()
	ctx := context.Background()

	rec1, err := b.Record(ctx, "alice", tx(core.Expense, "45.90", "no mercado", "Alimentação", base))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	rec2, err := b.Record(ctx, "alice", tx(core.Income, "1000", "de salário", "Salário", base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := b.Record(ctx, "bob", tx(core.Expense, "5", "café", "Alimentação", base)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	id1, id2 := rec1.ID, rec2.ID
	if id1 == "" || id1 == id2 {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", id1, id2)
	}

	got, err := b.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions for alice, got %d", len(got))
	}
	first := got[0]
	if first.ID != id1 || first.Owner != "alice" || first.Type != core.Expense {
		t.Fatalf("unexpected first transaction %+v", first)
	}
	if !first.Amount.Equal(decimal.RequireFromString("45.90")) {
		t.Fatalf("amount not preserved: %s", first.Amount)
	}
	if first.Description != "no mercado" || first.Category != "Alimentação" {
		t.Fatalf("text fields not preserved: %+v", first)
	}
	if !first.Timestamp.Equal(base) {
		t.Fatalf("timestamp not preserved: %v", first.Timestamp)
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
	if rec1.Owner != "alice" || !rec1.CreatedAt.Equal(first.CreatedAt) || !rec1.Timestamp.Equal(first.Timestamp) {
		t.Fatalf("Record returned %+v, stored %+v", rec1, first)
	}
	if got[1].ID != id2 {
		t.Fatalf("expected insertion order, got %q second", got[1].ID)
	}

	none, err := b.ListByOwner(ctx, "carol")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty list for unknown owner, got %v, %v", none, err)
	}
}

func testRecordRejectsInvalid(t *testing.T, b ledger.Backend) {
	defer b.Close()
	ctx := context.Background()
	bad := []core.Transaction{
		tx(core.Expense, "0", "nada", "Outros Gastos", base),
		tx("transfer", "10", "x", "Outros Gastos", base),
	}
	for i, tr := range bad {
		if _, err := b.Record(ctx, "alice", tr); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	if _, err := b.Record(ctx, "", tx(core.Expense, "1", "x", "Outros Gastos", base)); err == nil {
		t.Fatal("expected error for empty owner")
	}
	got, _ := b.ListByOwner(ctx, "alice")
	if len(got) != 0 {
		t.Fatalf("rejected transactions must not be stored, got %d", len(got))
	}
}

func testRangeSum(t *testing.T, b ledger.Backend) {
	defer b.Close()
	ctx := context.Background()
	day := 24 * time.Hour
	records := []core.Transaction{
		tx(core.Income, "200.00", "freela", "Freelance", base),
		tx(core.Expense, "100.00", "mercado", "Alimentação", base.Add(day)),
		tx(core.Expense, "50.00", "uber", "Transporte", base.Add(2*day)),
		tx(core.Expense, "30.00", "cinema", "Lazer", base.Add(10*day)),
	}
	for _, r := range records {
		if _, err := b.Record(ctx, "alice", r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	cases := []struct {
		name       string
		typ        core.TransactionType
		start, end time.Time
		want       string
	}{
		{"all expenses", core.Expense, time.Time{}, time.Time{}, "180"},
		{"inclusive bounds", core.Expense, base.Add(day), base.Add(2 * day), "150"},
		{"open start", core.Expense, time.Time{}, base.Add(day), "100"},
		{"open end", core.Expense, base.Add(2 * day), time.Time{}, "80"},
		{"income", core.Income, base, base, "200"},
		{"empty range", core.Income, base.Add(day), base.Add(3 * day), "0"},
	}
	for _, tc := range cases {
		got, err := b.RangeSum(ctx, "alice", tc.typ, tc.start, tc.end)
		if err != nil {
			t.Fatalf("%s: RangeSum: %v", tc.name, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}

	other, err := b.RangeSum(ctx, "bob", core.Expense, time.Time{}, time.Time{})
	if err != nil || !other.IsZero() {
		t.Fatalf("expected 0 for another owner, got %s, %v", other, err)
	}

	bal, err := ledger.Balance(ctx, b, "alice")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("balance = %s, want 20", bal)
	}
}

func testUsers(t *testing.T, b ledger.Backend) {
	defer b.Close()
	ctx := context.Background()

	if _, err := b.GetUser(ctx, "alice"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u := core.NewUser("alice", base)
	u.Remember(core.Interaction{Message: "oi", Reply: "olá", At: base.Add(time.Minute)})
	if err := b.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	got, err := b.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.ID != "alice" || !got.Preferences.NotificationsEnabled || got.Preferences.SummaryFrequency != "weekly" {
		t.Fatalf("unexpected user %+v", got)
	}
	if len(got.RecentInteractions) != 1 || got.RecentInteractions[0].Message != "oi" {
		t.Fatalf("interactions not preserved: %+v", got.RecentInteractions)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("UpdatedAt not preserved: %v", got.UpdatedAt)
	}
}

func testCategories(t *testing.T, b ledger.Backend) {
	defer b.Close()
	ctx := context.Background()

	set, err := b.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if !set.Has(core.Expense, "Alimentação") || !set.Has(core.Income, "Salário") {
		t.Fatalf("expected default categories, got %+v", set)
	}

	if err := b.AddCategory(ctx, core.Expense, "Pets"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if err := b.AddCategory(ctx, core.Expense, "Pets"); err != nil {
		t.Fatalf("duplicate AddCategory should be ignored, got %v", err)
	}
	if err := b.AddCategory(ctx, "transfer", "X"); err == nil {
		t.Fatal("expected error for unknown type")
	}

	set, _ = b.Categories(ctx)
	count := 0
	for _, c := range set.Expense {
		if c == "Pets" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected Pets once, got %d in %v", count, set.Expense)
	}
	if set.Expense[len(set.Expense)-1] != "Pets" {
		t.Fatalf("expected Pets appended last, got %v", set.Expense)
	}
}
