package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// MaxRecentInteractions bounds User.RecentInteractions.
const MaxRecentInteractions = 10

type (
	TransactionType string

	Transaction struct {
		ID          string          `json:"id"`
		Owner       string          `json:"owner"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Timestamp   time.Time       `json:"timestamp"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Preferences struct {
		NotificationsEnabled bool   `json:"notificationEnabled"`
		SummaryFrequency     string `json:"summaryFrequency"`
	}

	Interaction struct {
		Message string    `json:"message"`
		Reply   string    `json:"reply"`
		At      time.Time `json:"timestamp"`
	}

	User struct {
		ID                 string        `json:"id"`
		DisplayName        string        `json:"name"`
		Preferences        Preferences   `json:"preferences"`
		RecentInteractions []Interaction `json:"recentInteractions"`
		CreatedAt          time.Time     `json:"createdAt"`
		UpdatedAt          time.Time     `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrEmptyOwner        = errors.New("empty owner")
	ErrEmptyCategory     = errors.New("empty category")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrNotFound          = errors.New("not found")
)

// ParseTransactionType accepts "income"/"expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Label is the Portuguese noun used in replies.
func (t TransactionType) Label() string {
	if t == Income {
		return "Receita"
	}
	return "Despesa"
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.Owner) == "" {
		return ErrEmptyOwner
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// NewUser returns a user with the default preferences.
func NewUser(id string, now time.Time) User {
	return User{
		ID:          id,
		DisplayName: id,
		Preferences: Preferences{
			NotificationsEnabled: true,
			SummaryFrequency:     "weekly",
		},
		RecentInteractions: []Interaction{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Remember prepends an interaction, keeping at most MaxRecentInteractions.
func (u *User) Remember(in Interaction) {
	list := make([]Interaction, 0, MaxRecentInteractions)
	list = append(list, in)
	for _, old := range u.RecentInteractions {
		if len(list) == MaxRecentInteractions {
			break
		}
		list = append(list, old)
	}
	u.RecentInteractions = list
	u.UpdatedAt = in.At
}
