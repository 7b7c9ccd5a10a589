// Package account holds ledger balances and the per-address locks that
// serialize changes to them.
package account

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goLSKd/internal/storage/database"
)

// Key prefixes in the state database.
const (
	balancePrefix = "acct/"
	markPrefix    = "mark/"
)

// Account is the outward view of an address.
type Account struct {
	Address string
	Balance uint64
}

// Store keeps balances and marker keys in memory, optionally backed by a
// database. All changes go through Update, which holds exclusive locks on the
// keys it touches and commits atomically.
type Store struct {
	db  database.DB
	log logrus.FieldLogger

	mu       sync.RWMutex
	balances map[string]uint64
	marks    map[string]struct{}

	locks *lockTable
}

// NewStore creates a store. A nil db keeps state in memory only.
func NewStore(db database.DB, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		db:       db,
		log:      log.WithField("component", "account"),
		balances: make(map[string]uint64),
		marks:    make(map[string]struct{}),
		locks:    newLockTable(),
	}
}

// Load reads persisted balances and markers into memory.
func (s *Store) Load(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	balances := make(map[string]uint64)
	err := database.ScanPrefix(ctx, s.db, []byte(balancePrefix), func(key, value []byte) error {
		if len(value) != 8 {
			return fmt.Errorf("corrupt balance record for %s", key)
		}
		balances[string(key)] = binary.BigEndian.Uint64(value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}

	marks := make(map[string]struct{})
	err = database.ScanPrefix(ctx, s.db, []byte(markPrefix), func(key, _ []byte) error {
		marks[string(key)] = struct{}{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load markers: %w", err)
	}

	s.mu.Lock()
	s.balances = balances
	s.marks = marks
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"accounts": len(balances),
		"markers":  len(marks),
	}).Info("Loaded account state")
	return nil
}

// Balance returns the committed balance of an address, 0 if unknown.
func (s *Store) Balance(address string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[address]
}

// Marked reports whether a marker key was committed.
func (s *Store) Marked(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.marks[key]
	return ok
}

// Account returns the committed state of an address.
func (s *Store) Account(address string) Account {
	return Account{Address: address, Balance: s.Balance(address)}
}

// Update locks keys, runs fn against a fresh batch and commits the batch if
// fn returns nil. Lock acquisition is bounded by ctx; once fn has succeeded
// the commit is not cancelled. Commit hooks run before the locks are
// released.
func (s *Store) Update(ctx context.Context, keys []string, fn func(*Batch) error) error {
	release, err := s.locks.acquire(ctx, keys)
	if err != nil {
		return err
	}
	defer release()

	b := newBatch(s, keys)
	if err := fn(b); err != nil {
		return err
	}
	return s.commit(context.WithoutCancel(ctx), b)
}

func (s *Store) commit(ctx context.Context, b *Batch) error {
	if s.db != nil {
		ops := make([]database.BatchOperation, 0, len(b.balances)+len(b.marks)+len(b.records))
		for addr, bal := range b.balances {
			key := []byte(balancePrefix + addr)
			if bal == 0 {
				ops = append(ops, database.Del(key))
				continue
			}
			ops = append(ops, database.Put(key, binary.BigEndian.AppendUint64(nil, bal)))
		}
		for key := range b.marks {
			ops = append(ops, database.Put([]byte(markPrefix+key), []byte{1}))
		}
		ops = append(ops, b.records...)

		if len(ops) > 0 {
			if err := s.db.Batch(ctx, ops); err != nil {
				return fmt.Errorf("commit batch: %w", err)
			}
		}
	}

	s.mu.Lock()
	for addr, bal := range b.balances {
		if bal == 0 {
			delete(s.balances, addr)
			continue
		}
		s.balances[addr] = bal
	}
	for key := range b.marks {
		s.marks[key] = struct{}{}
	}
	s.mu.Unlock()

	for _, hook := range b.hooks {
		hook()
	}
	return nil
}

// Debit removes amount from address.
func (s *Store) Debit(ctx context.Context, address string, amount uint64) error {
	return s.Update(ctx, []string{address}, func(b *Batch) error {
		return b.Debit(address, amount)
	})
}

// Credit adds amount to address.
func (s *Store) Credit(ctx context.Context, address string, amount uint64) error {
	return s.Update(ctx, []string{address}, func(b *Batch) error {
		return b.Credit(address, amount)
	})
}

// Transfer moves amount between two addresses. Both legs apply or neither.
func (s *Store) Transfer(ctx context.Context, from, to string, amount uint64) error {
	return s.Update(ctx, []string{from, to}, func(b *Batch) error {
		if err := b.Debit(from, amount); err != nil {
			return err
		}
		return b.Credit(to, amount)
	})
}

// IsInsufficientFunds reports whether err is caused by a short balance.
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}
