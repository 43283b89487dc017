// Package worker mirrors recorded transactions to the spreadsheet and keeps
// the category store in step with it.
package worker

import (
	"context"
	"errors"
	"fmt"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/log"
)

// TransactionWriter appends a transaction row and returns its reference.
type TransactionWriter interface {
	Append(ctx context.Context, tx core.Transaction) (string, error)
}

// CategoryReader lists the categories kept outside the ledger.
type CategoryReader interface {
	Categories(ctx context.Context) (core.CategorySet, error)
}

// CategoryStore is the ledger side of a category sync.
type CategoryStore interface {
	Categories(ctx context.Context) (core.CategorySet, error)
	AddCategory(ctx context.Context, typ core.TransactionType, name string) error
}

// SyncWorker handles transaction events from AMQP.
type SyncWorker struct {
	sheets     TransactionWriter
	taxonomy   CategoryReader
	categories CategoryStore
	logger     *log.Logger
}

// NewSyncWorker wires the writer; taxonomy and categories may be nil, which
// disables category sync.
func NewSyncWorker(sheets TransactionWriter, taxonomy CategoryReader, categories CategoryStore, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		sheets:     sheets,
		taxonomy:   taxonomy,
		categories: categories,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// HandleTransaction appends the event's transaction to the spreadsheet.
func (w *SyncWorker) HandleTransaction(ctx context.Context, msg *amqp.TransactionRecorded) error {
	tx := msg.Transaction()
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldTransactionID, tx.ID,
		log.FieldTxType, string(tx.Type))

	ref, err := w.sheets.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	w.logger.InfoContext(ctx, "Successfully synced transaction",
		log.NewFields().
			WithOperation(log.OpSync).
			WithTransaction(tx.ID, string(tx.Type), tx.Amount, tx.Category).
			ToSlice()...)
	w.logger.DebugContext(ctx, "Sheet row", log.FieldSheetsRef, ref)
	return nil
}

// SyncCategories adds categories present in the spreadsheet but missing from
// the store. Nothing is ever removed from the store.
func (w *SyncWorker) SyncCategories(ctx context.Context) (added int, err error) {
	if w.taxonomy == nil || w.categories == nil {
		return 0, nil
	}
	remote, err := w.taxonomy.Categories(ctx)
	if err != nil {
		return 0, fmt.Errorf("load categories from sheets: %w", err)
	}
	local, err := w.categories.Categories(ctx)
	if err != nil {
		return 0, fmt.Errorf("load categories from store: %w", err)
	}

	for _, typ := range []core.TransactionType{core.Expense, core.Income} {
		for _, name := range remote.For(typ) {
			if local.Has(typ, name) {
				continue
			}
			err := w.categories.AddCategory(ctx, typ, name)
			if errors.Is(err, core.ErrDuplicateCategory) {
				continue
			}
			if err != nil {
				return added, fmt.Errorf("add category %q: %w", name, err)
			}
			added++
		}
	}

	w.logger.InfoContext(ctx, "Categories synced from sheets",
		log.FieldOperation, log.OpSync,
		"added", added,
		"expense_count", len(remote.Expense),
		"income_count", len(remote.Income))
	return added, nil
}
