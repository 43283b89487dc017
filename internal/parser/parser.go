// Package parser extracts income/expense transactions from free chat text.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

var (
	amountPattern = regexp.MustCompile(`\d+[,.]?\d*`)
	spaces        = regexp.MustCompile(`\s+`)
)

// IncomeKeywords are scanned before ExpenseKeywords; the first list with a
// hit decides the type. "pix" appears in both and therefore means income.
var IncomeKeywords = []string{"recebi", "ganhei", "salário", "freela", "aluguel", "pix", "depositaram"}

var ExpenseKeywords = []string{"gastei", "paguei", "comprei", "ifood", "gasolina", "uber", "mercado", "loja", "pix"}

// IncomeFirst names the tie-break between the two keyword lists.
const IncomeFirst = true

var leadingVerbs = []string{"gastei", "paguei", "comprei", "recebi", "ganhei", "depositaram"}

// Parsed is the outcome of a successful parse.
type Parsed struct {
	Amount      decimal.Decimal
	Type        core.TransactionType
	Description string
	// Keyword is the word that decided Type, empty when it defaulted to expense.
	Keyword string
}

// Confident reports whether the parse can be recorded without asking.
func (p Parsed) Confident() bool {
	return p.Amount.IsPositive() && p.Type.Valid()
}

// Parse returns false when the text carries no amount.
func Parse(text string) (Parsed, bool) {
	lower := strings.ToLower(text)
	loc := amountPattern.FindStringIndex(lower)
	if loc == nil {
		return Parsed{}, false
	}
	amount, err := core.ParseAmount(lower[loc[0]:loc[1]])
	if err != nil {
		return Parsed{}, false
	}

	typ, kw := classify(lower)
	return Parsed{
		Amount:      amount,
		Type:        typ,
		Description: describe(lower[:loc[0]] + " " + lower[loc[1]:]),
		Keyword:     kw,
	}, true
}

func classify(lower string) (core.TransactionType, string) {
	first, second := IncomeKeywords, ExpenseKeywords
	firstType, secondType := core.Income, core.Expense
	if !IncomeFirst {
		first, second = second, first
		firstType, secondType = secondType, firstType
	}
	if kw := firstHit(lower, first); kw != "" {
		return firstType, kw
	}
	if kw := firstHit(lower, second); kw != "" {
		return secondType, kw
	}
	return core.Expense, ""
}

func firstHit(text string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

func describe(rest string) string {
	rest = strings.ReplaceAll(rest, "r$", " ")
	rest = strings.TrimSpace(spaces.ReplaceAllString(rest, " "))
	for _, verb := range leadingVerbs {
		if rest == verb {
			return ""
		}
		if strings.HasPrefix(rest, verb+" ") {
			return strings.TrimSpace(rest[len(verb):])
		}
	}
	return rest
}
