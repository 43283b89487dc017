package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

// RoutingKeyTransactionRecorded routes TransactionRecorded events.
const RoutingKeyTransactionRecorded = "transaction.recorded"

// TransactionRecorded is published after a transaction is stored. It carries
// the whole transaction so the worker never reads the ledger.
type TransactionRecorded struct {
	Event       string               `json:"event"`
	ID          string               `json:"id"`
	Owner       string               `json:"owner"`
	Type        core.TransactionType `json:"type"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Timestamp   time.Time            `json:"timestamp"`
	CreatedAt   time.Time            `json:"createdAt"`
	PublishedAt time.Time            `json:"publishedAt"`
}

func NewTransactionRecorded(tx core.Transaction, now time.Time) *TransactionRecorded {
	return &TransactionRecorded{
		Event:       RoutingKeyTransactionRecorded,
		ID:          tx.ID,
		Owner:       tx.Owner,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
		Timestamp:   tx.Timestamp,
		CreatedAt:   tx.CreatedAt,
		PublishedAt: now,
	}
}

// Transaction returns the recorded transaction.
func (m *TransactionRecorded) Transaction() core.Transaction {
	return core.Transaction{
		ID:          m.ID,
		Owner:       m.Owner,
		Type:        m.Type,
		Amount:      m.Amount,
		Description: m.Description,
		Category:    m.Category,
		Timestamp:   m.Timestamp,
		CreatedAt:   m.CreatedAt,
	}
}

func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedFromJSON decodes a message and rejects ones that do not
// describe a valid transaction.
func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Transaction().Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
