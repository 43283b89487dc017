package services

import (
	"context"
	"fmt"
	"time"

	"carteira/internal/core"
	"carteira/internal/ledger"
	"carteira/internal/log"
)

// Publisher announces recorded transactions (AMQP in production).
type Publisher interface {
	PublishTransaction(ctx context.Context, tx core.Transaction) error
}

// TransactionService records transactions in the ledger and publishes them.
type TransactionService struct {
	store     ledger.Store
	publisher Publisher
	now       func() time.Time
	logger    *log.Logger
}

// NewTransactionService accepts a nil publisher, which disables events.
func NewTransactionService(store ledger.Store, publisher Publisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentAssistant),
	}
}

// Record saves tx for owner and then publishes the stored transaction. Only
// the save can fail the call; a failed publish is logged.
func (s *TransactionService) Record(ctx context.Context, owner string, tx core.Transaction) (core.Transaction, error) {
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}
	tx, err := s.store.Record(ctx, owner, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.NewFields().
			WithOperation(log.OpRecord).
			WithTransaction(tx.ID, string(tx.Type), tx.Amount, tx.Category).
			ToSlice()...)

	if err := s.publish(ctx, tx); err != nil {
		s.logger.LogError(ctx, "Failed to publish transaction event", err, log.OpPublish,
			log.FieldTransactionID, tx.ID)
	}
	return tx, nil
}

func (s *TransactionService) publish(ctx context.Context, tx core.Transaction) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping transaction event")
		return nil
	}
	return s.publisher.PublishTransaction(ctx, tx)
}
