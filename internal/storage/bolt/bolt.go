// Package bolt keeps the ledger in a single boltdb file: one nested bucket per
// owner under "transactions", keyed by an insertion sequence.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

var (
	transactionsBucket = []byte("transactions")
	usersBucket        = []byte("users")
	categoriesBucket   = []byte("categories")
	categorySetKey     = []byte("set")
)

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{transactionsBucket, usersBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucketIfNotExists(categoriesBucket)
		if err != nil {
			return err
		}
		if b.Get(categorySetKey) == nil {
			return putJSON(b, categorySetKey, core.DefaultCategories())
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

func (s *Store) Record(_ context.Context, owner string, t core.Transaction) (core.Transaction, error) {
	t, err := ledger.Prepare(owner, t, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(transactionsBucket).CreateBucketIfNotExists([]byte(owner))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return putJSON(b, seqKey(seq), t)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	return t, nil
}

func (s *Store) ListByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(transactionsBucket).Bucket([]byte(owner))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var t core.Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decode transaction %x: %w", k, err)
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *Store) RangeSum(ctx context.Context, owner string, typ core.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	txs, err := s.ListByOwner(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.SumRange(txs, typ, start, end), nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	var u core.User
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(usersBucket).Get([]byte(id))
		if v == nil {
			return core.ErrNotFound
		}
		return json.Unmarshal(v, &u)
	})
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, err
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) SaveUser(_ context.Context, u core.User) error {
	if u.ID == "" {
		return core.ErrEmptyOwner
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(usersBucket), []byte(u.ID), u)
	})
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) Categories(_ context.Context) (core.CategorySet, error) {
	var set core.CategorySet
	err := s.db.View(func(tx *bolt.Tx) error {
		return json.Unmarshal(tx.Bucket(categoriesBucket).Get(categorySetKey), &set)
	})
	if err != nil {
		return core.CategorySet{}, fmt.Errorf("read categories: %w", err)
	}
	return set, nil
}

func (s *Store) AddCategory(_ context.Context, typ core.TransactionType, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(categoriesBucket)
		var set core.CategorySet
		if err := json.Unmarshal(b.Get(categorySetKey), &set); err != nil {
			return fmt.Errorf("read categories: %w", err)
		}
		if err := set.Add(typ, name); err != nil {
			if errors.Is(err, core.ErrDuplicateCategory) {
				return nil
			}
			return err
		}
		return putJSON(b, categorySetKey, set)
	})
}

var _ ledger.Backend = (*Store)(nil)
