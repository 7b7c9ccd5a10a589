package node

import (
	"context"
	"errors"
	"hash/maphash"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
)

const (
	historyStripes = 64

	// earlyConfirmations bounds the confirmations held for ids whose
	// acceptance row has not been written yet.
	earlyConfirmations = 10000
)

// historySink orders history writes per transaction: a confirmation that
// arrives before the acceptance row is held and applied once the row exists.
type historySink struct {
	relationaldb.TransactionRepository

	seed    maphash.Seed
	stripes [historyStripes]sync.Mutex
	early   *lru.Cache[string, uint64]
}

func newHistorySink(repo relationaldb.TransactionRepository) (*historySink, error) {
	early, err := lru.New[string, uint64](earlyConfirmations)
	if err != nil {
		return nil, err
	}
	return &historySink{
		TransactionRepository: repo,
		seed:                  maphash.MakeSeed(),
		early:                 early,
	}, nil
}

func (h *historySink) lock(id string) func() {
	mu := &h.stripes[maphash.String(h.seed, id)%historyStripes]
	mu.Lock()
	return mu.Unlock
}

func (h *historySink) RecordAccepted(ctx context.Context, t *tx.Transaction) error {
	defer h.lock(t.ID)()
	if err := h.TransactionRepository.RecordAccepted(ctx, t); err != nil {
		return err
	}
	height, ok := h.early.Peek(t.ID)
	if !ok {
		return nil
	}
	if err := h.TransactionRepository.RecordConfirmed(ctx, t.ID, height); err != nil {
		return err
	}
	h.early.Remove(t.ID)
	return nil
}

func (h *historySink) RecordConfirmed(ctx context.Context, id string, height uint64) error {
	defer h.lock(id)()
	err := h.TransactionRepository.RecordConfirmed(ctx, id, height)
	if errors.Is(err, relationaldb.ErrTransactionNotFound) {
		h.early.Add(id, height)
		return nil
	}
	return err
}
