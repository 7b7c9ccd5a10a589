// Package database defines the key/value store used to persist ledger state.
package database

import (
	"context"
)

// DB defines the basic operations any database implementation must support
type DB interface {
	// Basic operations
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies all operations atomically.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks keys in [start, end). A nil end is unbounded.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)

	Close() error
}

// Iterator allows traversing over database entries
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperation represents a single operation in a batch
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// Put returns a put operation.
func Put(key, value []byte) BatchOperation {
	return BatchOperation{Type: BatchPut, Key: key, Value: value}
}

// Del returns a delete operation.
func Del(key []byte) BatchOperation {
	return BatchOperation{Type: BatchDelete, Key: key}
}

// PrefixEnd returns the smallest key greater than every key with the prefix,
// or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// ScanPrefix calls fn for every entry whose key starts with prefix, in key
// order. The key passed to fn has the prefix stripped.
func ScanPrefix(ctx context.Context, db DB, prefix []byte, fn func(key, value []byte) error) error {
	it, err := db.Iterator(ctx, prefix, PrefixEnd(prefix))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(it.Key()[len(prefix):], it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}
