// Package jsonfile stores the ledger as three whole JSON documents in a
// directory: users.json, transactions.json and categories.json. Every write
// reads, mutates and rewrites the whole document. Writers in this process are
// serialized; separate processes sharing the directory are last-writer-wins.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

const (
	UsersFile        = "users.json"
	TransactionsFile = "transactions.json"
	CategoriesFile   = "categories.json"
)

type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// Open prepares dir and seeds the category document when it is missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}
	path := s.path(CategoriesFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeJSON(path, core.DefaultCategories()); err != nil {
			return nil, fmt.Errorf("seed categories: %w", err)
		}
	}
	return s, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON decodes path into v; a missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path atomically through a temp file in the same dir.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) loadTransactions() (map[string][]core.Transaction, error) {
	all := map[string][]core.Transaction{}
	if err := readJSON(s.path(TransactionsFile), &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *Store) Record(_ context.Context, owner string, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := ledger.Prepare(owner, tx, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	all, err := s.loadTransactions()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	all[owner] = append(all[owner], tx)
	if err := writeJSON(s.path(TransactionsFile), all); err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) ListByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadTransactions()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return all[owner], nil
}

func (s *Store) RangeSum(ctx context.Context, owner string, typ core.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	txs, err := s.ListByOwner(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.SumRange(txs, typ, start, end), nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := map[string]core.User{}
	if err := readJSON(s.path(UsersFile), &users); err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u, ok := users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) SaveUser(_ context.Context, u core.User) error {
	if u.ID == "" {
		return core.ErrEmptyOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	users := map[string]core.User{}
	if err := readJSON(s.path(UsersFile), &users); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	users[u.ID] = u
	if err := writeJSON(s.path(UsersFile), users); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) Categories(_ context.Context) (core.CategorySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var set core.CategorySet
	if err := readJSON(s.path(CategoriesFile), &set); err != nil {
		return core.CategorySet{}, fmt.Errorf("read categories: %w", err)
	}
	if set.Empty() {
		return core.DefaultCategories(), nil
	}
	return set, nil
}

func (s *Store) AddCategory(_ context.Context, typ core.TransactionType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var set core.CategorySet
	if err := readJSON(s.path(CategoriesFile), &set); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	if set.Empty() {
		set = core.DefaultCategories()
	}
	if err := set.Add(typ, name); err != nil {
		if errors.Is(err, core.ErrDuplicateCategory) {
			return nil
		}
		return err
	}
	if err := writeJSON(s.path(CategoriesFile), set); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

var _ ledger.Backend = (*Store)(nil)
