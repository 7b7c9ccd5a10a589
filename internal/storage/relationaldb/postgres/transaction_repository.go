package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
)

// TransactionRepository implements relationaldb.TransactionRepository for PostgreSQL
type TransactionRepository struct {
	db *sql.DB
}

var _ relationaldb.TransactionRepository = (*TransactionRepository)(nil)

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const selectColumns = `SELECT id, type, sender_id, recipient_id, amount, fee, timestamp,
		status, block_height, raw, accepted_at, confirmed_at
		FROM transactions`

func (r *TransactionRepository) RecordAccepted(ctx context.Context, t *tx.Transaction) error {
	record, err := relationaldb.NewTransactionRecord(t)
	if err != nil {
		return relationaldb.NewDataError("record_accepted", "failed to encode transaction", err)
	}
	return r.SaveTransaction(ctx, record)
}

// SaveTransaction inserts a record. An existing record with the same id is kept.
func (r *TransactionRepository) SaveTransaction(ctx context.Context, record *relationaldb.TransactionRecord) error {
	query := `INSERT INTO transactions (id, type, sender_id, recipient_id, amount, fee, timestamp, status, raw)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, int16(record.Type), record.SenderID, nullString(record.RecipientID),
		int64(record.Amount), int64(record.Fee), record.Timestamp, record.Status, []byte(record.Raw))
	if err != nil {
		return relationaldb.NewQueryError("save_transaction", "failed to save transaction", err)
	}
	return nil
}

func (r *TransactionRepository) RecordConfirmed(ctx context.Context, id string, height uint64) error {
	query := `UPDATE transactions
			  SET status = $2, block_height = $3, confirmed_at = NOW()
			  WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, relationaldb.StatusConfirmed, int64(height))
	if err != nil {
		return relationaldb.NewQueryError("record_confirmed", "failed to update transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError("record_confirmed", "failed to read affected rows", err)
	}
	if n == 0 {
		return relationaldb.NewDataError("record_confirmed", id, relationaldb.ErrTransactionNotFound)
	}
	return nil
}

func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (*relationaldb.TransactionRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, relationaldb.NewDataError("get_transaction", id, relationaldb.ErrTransactionNotFound)
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_transaction", "failed to query transaction", err)
	}
	return record, nil
}

func (r *TransactionRepository) GetAccountTransactions(ctx context.Context, address string, limit int) ([]relationaldb.TransactionRecord, error) {
	if limit <= 0 {
		return nil, relationaldb.ErrInvalidLimit
	}

	query := selectColumns + `
			  WHERE sender_id = $1 OR recipient_id = $1
			  ORDER BY timestamp DESC, id
			  LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, address, limit)
	if err != nil {
		return nil, relationaldb.NewQueryError("get_account_transactions", "failed to query account transactions", err)
	}
	defer rows.Close()

	var results []relationaldb.TransactionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, relationaldb.NewQueryError("get_account_transactions", "failed to scan row", err)
		}
		results = append(results, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("get_account_transactions", "error iterating rows", err)
	}
	return results, nil
}

func (r *TransactionRepository) GetTransactionCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, relationaldb.NewQueryError("get_transaction_count", "failed to count transactions", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*relationaldb.TransactionRecord, error) {
	var (
		record      relationaldb.TransactionRecord
		typ         int16
		recipient   sql.NullString
		amount, fee int64
		height      sql.NullInt64
		raw         []byte
		confirmedAt sql.NullTime
	)
	err := s.Scan(&record.ID, &typ, &record.SenderID, &recipient, &amount, &fee, &record.Timestamp,
		&record.Status, &height, &raw, &record.AcceptedAt, &confirmedAt)
	if err != nil {
		return nil, err
	}

	record.Type = tx.Type(typ)
	record.RecipientID = recipient.String
	record.Amount = uint64(amount)
	record.Fee = uint64(fee)
	record.BlockHeight = uint64(height.Int64)
	record.Raw = raw
	if confirmedAt.Valid {
		record.ConfirmedAt = &confirmedAt.Time
	}
	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
