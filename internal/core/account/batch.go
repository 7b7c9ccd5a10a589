package account

import (
	"github.com/LeJamon/goLSKd/internal/storage/database"
)

// Batch stages changes made while holding a set of locked keys.
type Batch struct {
	store    *Store
	locked   map[string]struct{}
	balances map[string]uint64
	marks    map[string]struct{}
	records  []database.BatchOperation
	hooks    []func()
}

func newBatch(s *Store, keys []string) *Batch {
	locked := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		locked[k] = struct{}{}
	}
	return &Batch{
		store:    s,
		locked:   locked,
		balances: make(map[string]uint64),
		marks:    make(map[string]struct{}),
	}
}

// Balance returns the staged balance of an address.
func (b *Batch) Balance(address string) uint64 {
	if bal, ok := b.balances[address]; ok {
		return bal
	}
	return b.store.Balance(address)
}

// Marked reports whether a marker key is staged or committed.
func (b *Batch) Marked(key string) bool {
	if _, ok := b.marks[key]; ok {
		return true
	}
	return b.store.Marked(key)
}

func (b *Batch) check(address string) error {
	if address == "" {
		return ErrEmptyAddress
	}
	if _, ok := b.locked[address]; !ok {
		return ErrNotLocked
	}
	return nil
}

// Debit stages a debit. Nothing is staged when the balance is short.
func (b *Batch) Debit(address string, amount uint64) error {
	if err := b.check(address); err != nil {
		return err
	}
	bal := b.Balance(address)
	if bal < amount {
		return &InsufficientFundsError{Address: address, Required: amount, Available: bal}
	}
	b.balances[address] = bal - amount
	return nil
}

// Credit stages a credit.
func (b *Batch) Credit(address string, amount uint64) error {
	if err := b.check(address); err != nil {
		return err
	}
	bal := b.Balance(address)
	if bal+amount < bal {
		return ErrBalanceOverflow
	}
	b.balances[address] = bal + amount
	return nil
}

// Mark stages a marker key.
func (b *Batch) Mark(key string) {
	b.marks[key] = struct{}{}
}

// Put stages an auxiliary record written in the same database batch.
func (b *Batch) Put(key string, value []byte) {
	b.records = append(b.records, database.Put([]byte(key), value))
}

// OnCommit registers fn to run after a successful commit.
func (b *Batch) OnCommit(fn func()) {
	b.hooks = append(b.hooks, fn)
}
