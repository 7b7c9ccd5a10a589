package account

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// lockTable hands out exclusive per-key locks. Waiters on a key are served in
// arrival order. Entries are dropped once nobody holds or waits on them.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*lockEntry)}
}

func (t *lockTable) ref(key string) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.locks[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		t.locks[key] = e
	}
	e.refs++
	return e
}

func (t *lockTable) unref(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(t.locks, key)
	}
}

// acquire locks every key, in sorted order, or none of them. The returned
// function releases them.
func (t *lockTable) acquire(ctx context.Context, keys []string) (func(), error) {
	keys = sortedUnique(keys)
	held := make([]*lockEntry, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].sem.Release(1)
			t.unref(keys[i])
		}
	}

	for _, key := range keys {
		e := t.ref(key)
		if err := e.sem.Acquire(ctx, 1); err != nil {
			t.unref(key)
			release()
			return nil, err
		}
		held = append(held, e)
	}
	return release, nil
}

func sortedUnique(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
