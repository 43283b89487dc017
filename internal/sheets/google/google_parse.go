package google

import (
	"fmt"
	"strings"

	"carteira/internal/core"
)

// Transactions tab layout: Data, Descrição, Valor, Tipo, Categoria, Cliente, ID.
const (
	lastColumn = "G"
	idColumn   = 6
)

func transactionRow(tx core.Transaction) []any {
	return []any{
		tx.Timestamp.Format(core.DateLayout),
		tx.Description,
		tx.Amount.StringFixed(2),
		tx.Type.Label(),
		tx.Category,
		tx.Owner,
		tx.ID,
	}
}

// findRow returns the 1-based row holding id, or 0.
func findRow(values [][]any, id string) int {
	if id == "" {
		return 0
	}
	for i, row := range values {
		if len(row) > idColumn && strings.TrimSpace(fmt.Sprint(row[idColumn])) == id {
			return i + 1
		}
	}
	return 0
}

// columnValues flattens a single-column range, dropping blanks, "#" comments
// and duplicates while keeping order.
func columnValues(values [][]any) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
