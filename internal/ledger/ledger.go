// Package ledger defines the transaction store contract and the reductions
// computed over a user's transactions.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

// Store is the append-only transaction ledger.
type Store interface {
	// Record stores tx for owner and returns it as stored, with its id,
	// owner and creation time filled in.
	Record(ctx context.Context, owner string, tx core.Transaction) (core.Transaction, error)
	ListByOwner(ctx context.Context, owner string) ([]core.Transaction, error)
	// RangeSum adds up owner's amounts of one type with start <= timestamp <= end.
	// A zero start or end leaves that side open.
	RangeSum(ctx context.Context, owner string, typ core.TransactionType, start, end time.Time) (decimal.Decimal, error)
}

// UserStore persists per-user context.
type UserStore interface {
	// GetUser returns core.ErrNotFound for unknown ids.
	GetUser(ctx context.Context, id string) (core.User, error)
	SaveUser(ctx context.Context, u core.User) error
}

// CategoryStore persists the category set.
type CategoryStore interface {
	Categories(ctx context.Context) (core.CategorySet, error)
	// AddCategory rejects unknown types and ignores names already present.
	AddCategory(ctx context.Context, typ core.TransactionType, name string) error
}

// Backend is everything the assistant needs from persistence.
type Backend interface {
	Store
	UserStore
	CategoryStore
	Close() error
}

// Prepare validates tx and fills in the fields owned by the store.
func Prepare(owner string, tx core.Transaction, now time.Time) (core.Transaction, error) {
	tx.Owner = owner
	if tx.Timestamp.IsZero() {
		tx.Timestamp = now
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	tx.ID = uuid.NewString()
	// microseconds are the finest precision every backend keeps
	tx.CreatedAt = now.Truncate(time.Microsecond)
	return tx, nil
}

// InRange reports whether t is within the inclusive bounds, zero meaning open.
func InRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

// SumRange is RangeSum over an in-memory slice.
func SumRange(txs []core.Transaction, typ core.TransactionType, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == typ && InRange(tx.Timestamp, start, end) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Balance is total income minus total expense for owner.
func Balance(ctx context.Context, s Store, owner string) (decimal.Decimal, error) {
	in, err := s.RangeSum(ctx, owner, core.Income, time.Time{}, time.Time{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum income: %w", err)
	}
	out, err := s.RangeSum(ctx, owner, core.Expense, time.Time{}, time.Time{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expense: %w", err)
	}
	return in.Sub(out), nil
}
