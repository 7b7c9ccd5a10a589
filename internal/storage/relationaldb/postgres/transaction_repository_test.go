package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
)

var columns = []string{
	"id", "type", "sender_id", "recipient_id", "amount", "fee", "timestamp",
	"status", "block_height", "raw", "accepted_at", "confirmed_at",
}

func newMock(t *testing.T) (*TransactionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewTransactionRepository(db), mock
}

func TestRecordAccepted(t *testing.T) {
	repo, mock := newMock(t)

	send := &tx.Transaction{
		ID:          "123",
		Type:        tx.TypeSend,
		Timestamp:   42,
		SenderID:    "1L",
		RecipientID: "2L",
		Amount:      500,
		Fee:         10_000_000,
		Asset:       tx.SendAsset{},
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("123", int64(0), "1L", "2L", int64(500), int64(10_000_000), int64(42), relationaldb.StatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordAccepted(context.Background(), send))
}

func TestRecordAcceptedWithoutRecipient(t *testing.T) {
	repo, mock := newMock(t)

	in := &tx.Transaction{
		ID:       "124",
		Type:     tx.TypeInTransfer,
		SenderID: "1L",
		Amount:   1,
		Fee:      10_000_000,
		Asset:    tx.InTransferAsset{ApplicationID: "9"},
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("124", int64(6), "1L", nil, int64(1), int64(10_000_000), int64(0), relationaldb.StatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordAccepted(context.Background(), in))
}

func TestRecordConfirmed(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WithArgs("123", relationaldb.StatusConfirmed, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RecordConfirmed(context.Background(), "123", 7))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WithArgs("404", relationaldb.StatusConfirmed, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.RecordConfirmed(context.Background(), "404", 7)
	assert.ErrorIs(t, err, relationaldb.ErrTransactionNotFound)
	assert.True(t, relationaldb.IsDataError(err))
}

func TestGetTransaction(t *testing.T) {
	repo, mock := newMock(t)

	accepted := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	confirmed := accepted.Add(10 * time.Second)
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = $1")).
		WithArgs("123").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("123", int64(7), "1L", nil, int64(100), int64(10_000_000), int64(42),
				relationaldb.StatusConfirmed, int64(9), []byte(`{"id":"123"}`), accepted, confirmed))

	record, err := repo.GetTransaction(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, tx.TypeOutTransfer, record.Type)
	assert.Empty(t, record.RecipientID)
	assert.Equal(t, uint64(100), record.Amount)
	assert.Equal(t, uint64(9), record.BlockHeight)
	assert.JSONEq(t, `{"id":"123"}`, string(record.Raw))
	require.NotNil(t, record.ConfirmedAt)
	assert.Equal(t, confirmed, *record.ConfirmedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = $1")).
		WithArgs("404").
		WillReturnRows(sqlmock.NewRows(columns))
	_, err = repo.GetTransaction(context.Background(), "404")
	assert.ErrorIs(t, err, relationaldb.ErrTransactionNotFound)
}

func TestGetAccountTransactions(t *testing.T) {
	repo, mock := newMock(t)

	accepted := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sender_id = $1 OR recipient_id = $1")).
		WithArgs("1L", 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("2", int64(0), "1L", "2L", int64(5), int64(10_000_000), int64(2), relationaldb.StatusPending, nil, []byte(`{}`), accepted, nil).
			AddRow("1", int64(0), "3L", "1L", int64(4), int64(10_000_000), int64(1), relationaldb.StatusPending, nil, []byte(`{}`), accepted, nil))

	records, err := repo.GetAccountTransactions(context.Background(), "1L", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[0].ID)
	assert.Equal(t, "1L", records[1].RecipientID)
	assert.Nil(t, records[1].ConfirmedAt)

	_, err = repo.GetAccountTransactions(context.Background(), "1L", 0)
	assert.ErrorIs(t, err, relationaldb.ErrInvalidLimit)
}

func TestQueryErrorsAreWrapped(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions")).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.GetTransactionCount(context.Background())
	require.Error(t, err)
	assert.True(t, relationaldb.IsRetryable(err))
	assert.Contains(t, err.Error(), "get_transaction_count: failed to count transactions")
}

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schemaQueries {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, NewDatabaseWithDB(db, relationaldb.NewConfig()).InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
