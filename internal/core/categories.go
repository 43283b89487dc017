package core

import "strings"

const (
	FallbackExpenseCategory = "Outros Gastos"
	FallbackIncomeCategory  = "Outras Receitas"
)

// CategorySet holds the ordered category names per transaction type.
type CategorySet struct {
	Expense []string `json:"expense"`
	Income  []string `json:"income"`
}

// DefaultCategories returns a fresh copy of the built-in set.
func DefaultCategories() CategorySet {
	return CategorySet{
		Expense: []string{"Alimentação", "Transporte", "Moradia", "Saúde", "Educação", "Lazer", "Vestuário", "Outros Gastos"},
		Income:  []string{"Salário", "Freelance", "Investimentos", "Outras Receitas"},
	}
}

// FallbackCategory is the category used when classification fails.
func FallbackCategory(t TransactionType) string {
	if t == Income {
		return FallbackIncomeCategory
	}
	return FallbackExpenseCategory
}

// For returns the candidates for a transaction type.
func (s CategorySet) For(t TransactionType) []string {
	if t == Income {
		return s.Income
	}
	return s.Expense
}

// Has reports whether name is a literal member of the list for t.
func (s CategorySet) Has(t TransactionType, name string) bool {
	for _, c := range s.For(t) {
		if c == name {
			return true
		}
	}
	return false
}

// Empty reports whether either list is missing, which makes the set unusable.
func (s CategorySet) Empty() bool {
	return len(s.Expense) == 0 || len(s.Income) == 0
}

// Add appends name to the list for t unless it is already present.
func (s *CategorySet) Add(t TransactionType, name string) error {
	if !t.Valid() {
		return ErrInvalidType
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategory
	}
	if s.Has(t, name) {
		return ErrDuplicateCategory
	}
	if t == Income {
		s.Income = append(s.Income, name)
	} else {
		s.Expense = append(s.Expense, name)
	}
	return nil
}
