package postgres

import (
	"context"
	"os"
	"testing"

	"carteira/internal/ledger"
	"carteira/internal/ledger/ledgertest"
)

// Runs against a disposable database named by POSTGRES_TEST_URL; every
// subtest starts from truncated tables.
func TestRepository(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ledgertest.Run(t, func(t *testing.T) ledger.Backend {
		ctx := context.Background()
		repo, err := NewRepository(ctx, url)
		if err != nil {
			t.Fatalf("NewRepository: %v", err)
		}
		if _, err := repo.pool.Exec(ctx, `TRUNCATE registros, usuarios`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		if _, err := repo.pool.Exec(ctx, `DELETE FROM categorias WHERE nome = 'Pets'`); err != nil {
			t.Fatalf("reset categorias: %v", err)
		}
		return repo
	})
}
