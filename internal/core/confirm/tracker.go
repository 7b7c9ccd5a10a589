// Package confirm tracks accepted transactions from acceptance until they
// reach the configured confirmation depth.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// Status is the externally visible state of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// ErrUnknownTransaction is returned for block events about untracked ids.
var ErrUnknownTransaction = errors.New("unknown transaction")

// Info describes the confirmation state of one transaction.
type Info struct {
	ID            string `json:"id"`
	Status        Status `json:"status"`
	BlockHeight   uint64 `json:"blockHeight,omitempty"`
	Confirmations uint64 `json:"confirmations"`
	Message       string `json:"message,omitempty"`
}

// Included reports whether the transaction was seen in a block.
func (i Info) Included() bool {
	return i.BlockHeight > 0 || i.Confirmations > 0
}

// Resolver reports the durable state of an id the tracker does not hold:
// StatusPending for an applied transaction, StatusConfirmed for one that was
// confirmed earlier, and "" when the id is unknown.
type Resolver func(id string) Status

// Config holds tracker settings.
type Config struct {
	// Threshold is the depth at which a transaction is confirmed. Inclusion
	// in a block counts as one confirmation.
	Threshold uint64

	// HistorySize bounds the number of confirmed records kept.
	HistorySize int
}

// DefaultConfig returns the default tracker settings.
func DefaultConfig() Config {
	return Config{
		Threshold:   1,
		HistorySize: 10000,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threshold == 0 {
		return errors.New("confirmation threshold must be at least 1")
	}
	if c.HistorySize <= 0 {
		return errors.New("confirmation history size must be positive")
	}
	return nil
}

// Tracker advances accepted transactions from pending to confirmed as block
// events arrive. It never touches balances.
type Tracker struct {
	cfg Config
	log logrus.FieldLogger

	mu        sync.Mutex
	height    uint64
	pending   map[string]Info
	confirmed *lru.Cache[string, Info]
	subs      map[string][]chan Info
	hooks     []func(Info)
	resolve   Resolver
}

// NewTracker creates a tracker.
func NewTracker(cfg Config, log logrus.FieldLogger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	confirmed, err := lru.New[string, Info](cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("create confirmation cache: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{
		cfg:       cfg,
		log:       log.WithField("component", "confirm"),
		pending:   make(map[string]Info),
		confirmed: confirmed,
		subs:      make(map[string][]chan Info),
	}, nil
}

// Threshold returns the confirmation depth.
func (t *Tracker) Threshold() uint64 {
	return t.cfg.Threshold
}

// OnConfirmed registers fn to be called once per transaction reaching the
// threshold. Hooks run outside the tracker lock, in registration order.
func (t *Tracker) OnConfirmed(fn func(Info)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, fn)
}

// SetResolver installs fn as the fallback for ids that are neither pending
// nor in the confirmed history. fn is called with the tracker lock held.
func (t *Tracker) SetResolver(fn Resolver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resolve = fn
}

func (t *Tracker) resolveLocked(id string) Status {
	if t.resolve == nil {
		return ""
	}
	return t.resolve(id)
}

// Track starts tracking an accepted transaction as pending. Tracking an id
// twice has no effect.
func (t *Tracker) Track(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[id]; ok {
		return
	}
	if t.confirmed.Contains(id) {
		return
	}
	info := Info{ID: id, Status: StatusPending}
	t.pending[id] = info
	t.notifyLocked(info)
}

// OnBlockIncluded records that a transaction was included in the block at
// height. Repeated events for the same height are ignored.
func (t *Tracker) OnBlockIncluded(id string, height uint64) error {
	return t.update(id, func(info *Info) {
		if info.BlockHeight == height {
			return
		}
		info.BlockHeight = height
		info.Confirmations = 1
		if t.height >= height {
			info.Confirmations = t.height - height + 1
		}
	})
}

// OnDepthReached records that a transaction has the given number of
// confirmations. Depth never decreases.
func (t *Tracker) OnDepthReached(id string, confirmations uint64) error {
	return t.update(id, func(info *Info) {
		if confirmations > info.Confirmations {
			info.Confirmations = confirmations
		}
	})
}

// OnBlock records a new chain height and derives the depth of every included
// transaction.
func (t *Tracker) OnBlock(height uint64) {
	var done []Info

	t.mu.Lock()
	if height > t.height {
		t.height = height
	}
	for id, info := range t.pending {
		if info.BlockHeight == 0 || height < info.BlockHeight {
			continue
		}
		depth := height - info.BlockHeight + 1
		if depth <= info.Confirmations {
			continue
		}
		info.Confirmations = depth
		if confirmed, ok := t.advanceLocked(id, info); ok {
			done = append(done, confirmed)
		}
	}
	hooks := t.hooks
	t.mu.Unlock()

	t.runHooks(hooks, done)
}

func (t *Tracker) update(id string, fn func(*Info)) error {
	t.mu.Lock()
	if t.confirmed.Contains(id) {
		t.mu.Unlock()
		return nil
	}
	info, ok := t.pending[id]
	if !ok {
		switch t.resolveLocked(id) {
		case StatusConfirmed:
			t.mu.Unlock()
			return nil
		case StatusPending:
			info = Info{ID: id, Status: StatusPending}
			t.pending[id] = info
			t.log.WithField("tx", id).Debug("Tracking applied transaction")
		default:
			t.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
		}
	}
	before := info
	fn(&info)
	if info == before {
		t.mu.Unlock()
		return nil
	}
	confirmed, done := t.advanceLocked(id, info)
	hooks := t.hooks
	t.mu.Unlock()

	if done {
		t.runHooks(hooks, []Info{confirmed})
	}
	return nil
}

// advanceLocked stores info and promotes it when the threshold is reached.
func (t *Tracker) advanceLocked(id string, info Info) (Info, bool) {
	if info.Confirmations < t.cfg.Threshold {
		t.pending[id] = info
		t.notifyLocked(info)
		return info, false
	}
	info.Status = StatusConfirmed
	delete(t.pending, id)
	t.confirmed.Add(id, info)
	t.notifyLocked(info)
	t.closeSubsLocked(id)

	t.log.WithFields(logrus.Fields{
		"tx":            id,
		"height":        info.BlockHeight,
		"confirmations": info.Confirmations,
	}).Debug("Transaction confirmed")
	return info, true
}

func (t *Tracker) runHooks(hooks []func(Info), infos []Info) {
	for _, info := range infos {
		for _, hook := range hooks {
			hook(info)
		}
	}
}

// Status returns the tracked state of a transaction.
func (t *Tracker) Status(id string) (Info, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if info, ok := t.pending[id]; ok {
		return info, true
	}
	info, ok := t.confirmed.Get(id)
	if !ok {
		return Info{}, false
	}
	if info.BlockHeight > 0 && t.height >= info.BlockHeight {
		if depth := t.height - info.BlockHeight + 1; depth > info.Confirmations {
			info.Confirmations = depth
		}
	}
	return info, true
}

// Height returns the highest block height seen.
func (t *Tracker) Height() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height
}

// Subscribe returns a channel receiving the current state of id and every
// later change. The channel holds only the latest state and is closed once
// the transaction is confirmed. cancel stops the subscription.
func (t *Tracker) Subscribe(id string) (<-chan Info, func()) {
	ch := make(chan Info, 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	if info, ok := t.confirmed.Get(id); ok {
		ch <- info
		close(ch)
		return ch, func() {}
	}
	if info, ok := t.pending[id]; ok {
		ch <- info
	} else if t.resolveLocked(id) == StatusConfirmed {
		ch <- Info{ID: id, Status: StatusConfirmed, Confirmations: t.cfg.Threshold}
		close(ch)
		return ch, func() {}
	}
	t.subs[id] = append(t.subs[id], ch)

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		subs := t.subs[id]
		for i, c := range subs {
			if c == ch {
				t.subs[id] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(t.subs[id]) == 0 {
			delete(t.subs, id)
		}
	}
	return ch, cancel
}

// Wait blocks until id is confirmed or ctx is done.
func (t *Tracker) Wait(ctx context.Context, id string) (Info, error) {
	ch, cancel := t.Subscribe(id)
	defer cancel()

	var last Info
	for {
		select {
		case info, ok := <-ch:
			if !ok {
				return last, nil
			}
			last = info
			if info.Status == StatusConfirmed {
				return info, nil
			}
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
}

// notifyLocked delivers info to subscribers, replacing any undelivered state.
func (t *Tracker) notifyLocked(info Info) {
	for _, ch := range t.subs[info.ID] {
		select {
		case <-ch:
		default:
		}
		ch <- info
	}
}

func (t *Tracker) closeSubsLocked(id string) {
	for _, ch := range t.subs[id] {
		close(ch)
	}
	delete(t.subs, id)
}
