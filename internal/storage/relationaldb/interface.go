// Package relationaldb holds the types shared by relational transaction
// history backends.
package relationaldb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LeJamon/goLSKd/internal/core/tx"
)

// Status values stored with each history record.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// TransactionRecord is an accepted transaction as kept in history.
type TransactionRecord struct {
	ID          string          `json:"id"`
	Type        tx.Type         `json:"type"`
	SenderID    string          `json:"senderId"`
	RecipientID string          `json:"recipientId,omitempty"`
	Amount      uint64          `json:"amount"`
	Fee         uint64          `json:"fee"`
	Timestamp   int64           `json:"timestamp"`
	Status      string          `json:"status"`
	BlockHeight uint64          `json:"blockHeight,omitempty"`
	Raw         json.RawMessage `json:"raw"`
	AcceptedAt  time.Time       `json:"acceptedAt"`
	ConfirmedAt *time.Time      `json:"confirmedAt,omitempty"`
}

// NewTransactionRecord builds the pending history record of an accepted
// transaction.
func NewTransactionRecord(t *tx.Transaction) (*TransactionRecord, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode transaction %s: %w", t.ID, err)
	}
	return &TransactionRecord{
		ID:          t.ID,
		Type:        t.Type,
		SenderID:    t.SenderID,
		RecipientID: t.RecipientID,
		Amount:      t.Amount,
		Fee:         t.Fee,
		Timestamp:   t.Timestamp,
		Status:      StatusPending,
		Raw:         raw,
	}, nil
}

// TransactionRepository stores and queries transaction history.
type TransactionRepository interface {
	// RecordAccepted stores an accepted transaction as pending. Recording
	// the same transaction again has no effect.
	RecordAccepted(ctx context.Context, t *tx.Transaction) error

	// RecordConfirmed marks a stored transaction confirmed at height.
	RecordConfirmed(ctx context.Context, id string, height uint64) error

	// GetTransaction returns a stored transaction or ErrTransactionNotFound.
	GetTransaction(ctx context.Context, id string) (*TransactionRecord, error)

	// GetAccountTransactions returns the most recent transactions sent or
	// received by address, newest first.
	GetAccountTransactions(ctx context.Context, address string, limit int) ([]TransactionRecord, error)

	// GetTransactionCount returns the number of stored transactions.
	GetTransactionCount(ctx context.Context) (int64, error)
}
