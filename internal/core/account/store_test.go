package account

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/storage/database/pebble"
)

func TestDebitCredit(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)

	assert.Equal(t, uint64(0), s.Balance("1L"))
	require.NoError(t, s.Credit(ctx, "1L", 100))
	require.NoError(t, s.Debit(ctx, "1L", 30))
	assert.Equal(t, Account{Address: "1L", Balance: 70}, s.Account("1L"))

	err := s.Debit(ctx, "1L", 71)
	var short *InsufficientFundsError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, &InsufficientFundsError{Address: "1L", Required: 71, Available: 70}, short)
	assert.True(t, IsInsufficientFunds(err))
	assert.Equal(t, uint64(70), s.Balance("1L"))

	assert.ErrorIs(t, s.Credit(ctx, "", 1), ErrEmptyAddress)
	require.NoError(t, s.Credit(ctx, "2L", ^uint64(0)))
	assert.ErrorIs(t, s.Credit(ctx, "2L", 1), ErrBalanceOverflow)
}

func TestTransferIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	require.NoError(t, s.Credit(ctx, "1L", 50))

	require.NoError(t, s.Transfer(ctx, "1L", "2L", 20))
	assert.Equal(t, uint64(30), s.Balance("1L"))
	assert.Equal(t, uint64(20), s.Balance("2L"))

	assert.True(t, IsInsufficientFunds(s.Transfer(ctx, "1L", "2L", 31)))
	assert.Equal(t, uint64(30), s.Balance("1L"))
	assert.Equal(t, uint64(20), s.Balance("2L"))
}

func TestUpdateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	require.NoError(t, s.Credit(ctx, "1L", 10))

	hookRan := false
	boom := errors.New("boom")
	err := s.Update(ctx, []string{"1L", "2L"}, func(b *Batch) error {
		require.NoError(t, b.Debit("1L", 10))
		require.NoError(t, b.Credit("2L", 10))
		b.Mark("seen")
		b.OnCommit(func() { hookRan = true })
		assert.Equal(t, uint64(0), b.Balance("1L"))
		assert.True(t, b.Marked("seen"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, hookRan)
	assert.Equal(t, uint64(10), s.Balance("1L"))
	assert.Equal(t, uint64(0), s.Balance("2L"))
	assert.False(t, s.Marked("seen"))
}

func TestBatchRejectsUnlockedAddress(t *testing.T) {
	s := NewStore(nil, nil)
	err := s.Update(context.Background(), []string{"1L"}, func(b *Batch) error {
		return b.Credit("2L", 1)
	})
	assert.ErrorIs(t, err, ErrNotLocked)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	require.NoError(t, s.Credit(ctx, "1L", 50))

	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Transfer(ctx, "1L", "2L", 10)
			switch {
			case err == nil:
				ok.Add(1)
			case IsInsufficientFunds(err):
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), ok.Load())
	assert.Equal(t, int32(15), short.Load())
	assert.Equal(t, uint64(0), s.Balance("1L"))
	assert.Equal(t, uint64(50), s.Balance("2L"))
}

func TestLockWaitIsBounded(t *testing.T) {
	s := NewStore(nil, nil)
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = s.Update(context.Background(), []string{"1L"}, func(*Batch) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Update(ctx, []string{"2L", "1L"}, func(*Batch) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(done)

	// 2L was released after the failed acquisition.
	require.NoError(t, s.Credit(context.Background(), "2L", 1))
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := pebble.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db, nil)
	require.NoError(t, s.Update(ctx, []string{"1L", "2L"}, func(b *Batch) error {
		if err := b.Credit("1L", 500); err != nil {
			return err
		}
		if err := b.Credit("2L", 7); err != nil {
			return err
		}
		b.Mark("txid/42")
		return nil
	}))
	require.NoError(t, s.Transfer(ctx, "2L", "1L", 7))

	reloaded := NewStore(db, nil)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, uint64(507), reloaded.Balance("1L"))
	assert.Equal(t, uint64(0), reloaded.Balance("2L"))
	assert.True(t, reloaded.Marked("txid/42"))
	assert.False(t, reloaded.Marked("txid/43"))
}
