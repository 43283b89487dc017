// Package sqlite is the SQL ledger backend on modernc.org/sqlite. Transactions
// live in the registros table; cliente holds the owner and filters every query.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so that text comparison orders like time.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func (r *Repository) Record(ctx context.Context, owner string, tx core.Transaction) (core.Transaction, error) {
	tx, err := ledger.Prepare(owner, tx, r.now())
	if err != nil {
		return core.Transaction{}, err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO registros (id, cliente, produto, valor, tipo, categoria, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Owner, tx.Description, tx.Amount.String(), string(tx.Type), tx.Category,
		formatTime(tx.Timestamp), formatTime(tx.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert registro: %w", err)
	}
	return tx, nil
}

func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cliente, produto, valor, tipo, categoria, data, created_at
		 FROM registros WHERE cliente = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("query registros: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx              core.Transaction
			valor, tipo     string
			data, createdAt string
		)
		if err := rows.Scan(&tx.ID, &tx.Owner, &tx.Description, &valor, &tipo, &tx.Category, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("scan registro: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(valor); err != nil {
			return nil, fmt.Errorf("registro %s: parse valor: %w", tx.ID, err)
		}
		tx.Type = core.TransactionType(tipo)
		if tx.Timestamp, err = parseTime(data); err != nil {
			return nil, fmt.Errorf("registro %s: parse data: %w", tx.ID, err)
		}
		if tx.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("registro %s: parse created_at: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// RangeSum adds the stored decimal strings in Go to keep exact amounts.
func (r *Repository) RangeSum(ctx context.Context, owner string, typ core.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	query := `SELECT valor FROM registros WHERE cliente = ? AND tipo = ?`
	args := []any{owner, string(typ)}
	if !start.IsZero() {
		query += ` AND data >= ?`
		args = append(args, formatTime(start))
	}
	if !end.IsZero() {
		query += ` AND data <= ?`
		args = append(args, formatTime(end))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query range sum: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var valor string
		if err := rows.Scan(&valor); err != nil {
			return decimal.Zero, fmt.Errorf("scan valor: %w", err)
		}
		d, err := decimal.NewFromString(valor)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse valor %q: %w", valor, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT documento FROM usuarios WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	var u core.User
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
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
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO usuarios (id, documento, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET documento = excluded.documento, updated_at = excluded.updated_at`,
		u.ID, string(doc), formatTime(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *Repository) Categories(ctx context.Context) (core.CategorySet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tipo, nome FROM categorias ORDER BY posicao`)
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
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categorias (tipo, nome) VALUES (?, ?)`, string(typ), name); err != nil {
		return fmt.Errorf("insert categoria: %w", err)
	}
	return nil
}

var _ ledger.Backend = (*Repository)(nil)
