package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

// Group is a total over transactions sharing a label.
type Group struct {
	Label string
	Total decimal.Decimal
	Count int
}

// Filter keeps transactions of typ inside p.
func Filter(txs []core.Transaction, typ core.TransactionType, p core.Period) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Type == typ && p.Contains(tx.Timestamp) {
			out = append(out, tx)
		}
	}
	return out
}

// Total adds up the amounts of txs.
func Total(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// GroupBy totals txs by key, largest total first; equal totals keep the order
// in which their label first appeared.
func GroupBy(txs []core.Transaction, key func(core.Transaction) string) []Group {
	index := map[string]int{}
	var groups []Group
	for _, tx := range txs {
		label := key(tx)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label, Total: decimal.Zero})
		}
		groups[i].Total = groups[i].Total.Add(tx.Amount)
		groups[i].Count++
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Total.GreaterThan(groups[b].Total)
	})
	return groups
}

// ByDescription groups by description, falling back to the category for
// transactions recorded without one.
func ByDescription(tx core.Transaction) string {
	if tx.Description != "" {
		return tx.Description
	}
	return tx.Category
}

func ByCategory(tx core.Transaction) string {
	return tx.Category
}

// ByWeekday totals txs per weekday, Monday first.
func ByWeekday(txs []core.Transaction) [7]decimal.Decimal {
	var days [7]decimal.Decimal
	for i := range days {
		days[i] = decimal.Zero
	}
	for _, tx := range txs {
		i := core.WeekdayIndex(tx.Timestamp)
		days[i] = days[i].Add(tx.Amount)
	}
	return days
}
