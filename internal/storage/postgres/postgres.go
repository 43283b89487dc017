// Package postgres is the ledger backend on a pgx connection pool, using the
// same registros layout as the SQLite backend.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository migrates the database at url and opens a pool on it.
func NewRepository(ctx context.Context, url string) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool, now: time.Now}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Record(ctx context.Context, owner string, tx core.Transaction) (core.Transaction, error) {
	tx, err := ledger.Prepare(owner, tx, r.now())
	if err != nil {
		return core.Transaction{}, err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO registros (id, cliente, produto, valor, tipo, categoria, data, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
		tx.ID, tx.Owner, tx.Description, tx.Amount.String(), string(tx.Type), tx.Category, tx.Timestamp, tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert registro: %w", err)
	}
	return tx, nil
}

func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, cliente, produto, valor::text, tipo, categoria, data, created_at
		 FROM registros WHERE cliente = $1 ORDER BY seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("query registros: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx          core.Transaction
			valor, tipo string
		)
		if err := rows.Scan(&tx.ID, &tx.Owner, &tx.Description, &valor, &tipo, &tx.Category, &tx.Timestamp, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registro: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(valor); err != nil {
			return nil, fmt.Errorf("registro %s: parse valor: %w", tx.ID, err)
		}
		tx.Type = core.TransactionType(tipo)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) RangeSum(ctx context.Context, owner string, typ core.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	var lo, hi *time.Time
	if !start.IsZero() {
		lo = &start
	}
	if !end.IsZero() {
		hi = &end
	}
	var total string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(valor), 0)::text FROM registros
		 WHERE cliente = $1 AND tipo = $2
		   AND ($3::timestamptz IS NULL OR data >= $3)
		   AND ($4::timestamptz IS NULL OR data <= $4)`,
		owner, string(typ), lo, hi).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query range sum: %w", err)
	}
	return decimal.NewFromString(total)
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT documento FROM usuarios WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	var u core.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return core.User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	return u, nil
}

func (r *Repository) SaveUser(ctx context.Context, u core.User) error {
	if u.ID == "" {
		return core.ErrEmptyOwner
	}
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO usuarios (id, documento, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET documento = EXCLUDED.documento, updated_at = EXCLUDED.updated_at`,
		u.ID, doc, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *Repository) Categories(ctx context.Context) (core.CategorySet, error) {
	rows, err := r.pool.Query(ctx, `SELECT tipo, nome FROM categorias ORDER BY posicao`)
	if err != nil {
		return core.CategorySet{}, fmt.Errorf("query categorias: %w", err)
	}
	defer rows.Close()

	var set core.CategorySet
	for rows.Next() {
		var tipo, nome string
		if err := rows.Scan(&tipo, &nome); err != nil {
			return core.CategorySet{}, fmt.Errorf("scan categoria: %w", err)
		}
		if core.TransactionType(tipo) == core.Income {
			set.Income = append(set.Income, nome)
		} else {
			set.Expense = append(set.Expense, nome)
		}
	}
	return set, rows.Err()
}

func (r *Repository) AddCategory(ctx context.Context, typ core.TransactionType, name string) error {
	if !typ.Valid() {
		return core.ErrInvalidType
	}
	if name == "" {
		return core.ErrEmptyCategory
	}
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO categorias (tipo, nome) VALUES ($1, $2) ON CONFLICT (tipo, nome) DO NOTHING`,
		string(typ), name); err != nil {
		return fmt.Errorf("insert categoria: %w", err)
	}
	return nil
}

var _ ledger.Backend = (*Repository)(nil)
