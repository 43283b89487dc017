// Package memory is an in-process ledger backend for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	txs   map[string][]core.Transaction
	users map[string]core.User
	cats  core.CategorySet
}

func New() *Store {
	return &Store{
		now:   time.Now,
		txs:   map[string][]core.Transaction{},
		users: map[string]core.User{},
		cats:  core.DefaultCategories(),
	}
}

// SetClock replaces time.Now for CreatedAt and default timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) Record(_ context.Context, owner string, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := ledger.Prepare(owner, tx, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	s.txs[owner] = append(s.txs[owner], tx)
	return tx, nil
}

func (s *Store) ListByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs[owner]...), nil
}

func (s *Store) RangeSum(_ context.Context, owner string, typ core.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.SumRange(s.txs[owner], typ, start, end), nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	u.RecentInteractions = append([]core.Interaction(nil), u.RecentInteractions...)
	return u, nil
}

func (s *Store) SaveUser(_ context.Context, u core.User) error {
	if u.ID == "" {
		return core.ErrEmptyOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u.RecentInteractions = append([]core.Interaction(nil), u.RecentInteractions...)
	s.users[u.ID] = u
	return nil
}

func (s *Store) Categories(_ context.Context) (core.CategorySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CategorySet{
		Expense: append([]string(nil), s.cats.Expense...),
		Income:  append([]string(nil), s.cats.Income...),
	}, nil
}

func (s *Store) AddCategory(_ context.Context, typ core.TransactionType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cats.Add(typ, name); err != nil && !errors.Is(err, core.ErrDuplicateCategory) {
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

var _ ledger.Backend = (*Store)(nil)
