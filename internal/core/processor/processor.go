// Package processor accepts transactions, validates them and applies their
// effect to the ledger exactly once.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/LeJamon/goLSKd/internal/core/account"
	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/core/tx"
)

// Stage names a step of transaction processing.
type Stage string

const (
	StageReceived         Stage = "received"
	StageSchemaValidating Stage = "schema_validating"
	StageSemanticChecking Stage = "semantically_validating"
	StageApplying         Stage = "applying"
	StagePending          Stage = "pending"
	StageConfirmed        Stage = "confirmed"
	StageRejected         Stage = "rejected"
)

const (
	msgTimedOut = "Transaction processing timed out"
	msgInternal = "Failed to process transaction"
)

// Config holds processor settings.
type Config struct {
	// LockTimeout bounds the wait for account locks.
	LockTimeout time.Duration

	// Fees is the fixed fee table.
	Fees tx.FeeSchedule

	// FeeSink receives fees. Fees are burned when empty.
	FeeSink string

	// RejectedCacheSize bounds the number of remembered rejections.
	RejectedCacheSize int
}

// DefaultConfig returns the default processor settings.
func DefaultConfig() Config {
	return Config{
		LockTimeout:       5 * time.Second,
		Fees:              tx.DefaultFees(),
		RejectedCacheSize: 10000,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.LockTimeout <= 0 {
		return errors.New("lock timeout must be positive")
	}
	if c.RejectedCacheSize <= 0 {
		return errors.New("rejected cache size must be positive")
	}
	return nil
}

// Response is the outcome of a submission.
type Response struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message,omitempty"`
}

// History records accepted transactions outside the ledger state.
type History interface {
	RecordAccepted(ctx context.Context, t *tx.Transaction) error
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Processor) { p.log = log }
}

// WithHistory sets the history sink.
func WithHistory(h History) Option {
	return func(p *Processor) { p.history = h }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// Processor runs submissions through decoding, semantic checks and
// application. Submissions touching disjoint accounts proceed in parallel;
// those sharing an account are applied in lock acquisition order.
type Processor struct {
	cfg      Config
	decoder  *tx.Decoder
	accounts *account.Store
	tracker  *confirm.Tracker
	history  History
	metrics  *Metrics
	log      logrus.FieldLogger

	inflight singleflight.Group
	rejected *lru.Cache[string, confirm.Info]
}

// New creates a processor.
func New(cfg Config, decoder *tx.Decoder, accounts *account.Store, tracker *confirm.Tracker, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid processor config: %w", err)
	}
	rejected, err := lru.New[string, confirm.Info](cfg.RejectedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create rejected cache: %w", err)
	}

	p := &Processor{
		cfg:      cfg,
		decoder:  decoder,
		accounts: accounts,
		tracker:  tracker,
		rejected: rejected,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	p.log = p.log.WithField("component", "processor")
	if p.metrics == nil {
		p.metrics = NewMetrics("", nil)
	}
	tracker.SetResolver(p.resolve)
	tracker.OnConfirmed(p.markConfirmed)
	return p, nil
}

// AppliedKey is the marker recorded when a transaction is applied.
func AppliedKey(id string) string {
	return "txid/" + id
}

// ConfirmedKey is the marker recorded when a transaction reaches the
// confirmation threshold.
func ConfirmedKey(id string) string {
	return "confirmed/" + id
}

// resolve reports the durable state of an id the tracker no longer holds.
func (p *Processor) resolve(id string) confirm.Status {
	switch {
	case p.accounts.Marked(ConfirmedKey(id)):
		return confirm.StatusConfirmed
	case p.accounts.Marked(AppliedKey(id)):
		return confirm.StatusPending
	}
	return ""
}

func (p *Processor) markConfirmed(info confirm.Info) {
	key := ConfirmedKey(info.ID)
	err := p.accounts.Update(context.Background(), []string{key}, func(b *account.Batch) error {
		b.Mark(key)
		return nil
	})
	if err != nil {
		p.log.WithError(err).WithField("tx", info.ID).Error("Failed to record confirmation")
	}
}

func appliedLock(id string) string {
	return "tx:" + id
}

// Submit decodes and processes a raw wire transaction.
func (p *Processor) Submit(ctx context.Context, raw []byte) Response {
	start := time.Now()

	t, h, err := p.decoder.Decode(raw)
	if err != nil {
		// An undecodable payload cannot prove the id it claims, so the
		// rejection is not remembered under it.
		claimed := gjson.GetBytes(raw, "id").String()
		typ := gjson.GetBytes(raw, "type").String()
		stage := StageSchemaValidating
		var structural *tx.StructuralError
		if !errors.As(err, &structural) {
			stage = StageSemanticChecking
		}
		p.metrics.observe(typ, resultRejected, start)
		return p.reject("", stage, err, p.log.WithField("tx", claimed))
	}
	return p.submit(ctx, t, h, start)
}

// SubmitTransaction processes an already decoded transaction.
func (p *Processor) SubmitTransaction(ctx context.Context, t *tx.Transaction) Response {
	start := time.Now()
	h, ok := p.decoder.Handlers().Get(t.Type)
	if !ok {
		p.metrics.observe(t.Type.String(), resultRejected, start)
		return p.reject(verifiedID(t), StageSemanticChecking, tx.Reject("Unknown transaction type %d", t.Type), p.log.WithField("tx", t.ID))
	}
	return p.submit(ctx, t, h, start)
}

// verifiedID returns the id of t when it matches the content, "" otherwise.
func verifiedID(t *tx.Transaction) string {
	if t.ID == "" || t.ID != tx.ComputeID(t) {
		return ""
	}
	return t.ID
}

func (p *Processor) submit(ctx context.Context, t *tx.Transaction, h tx.Handler, start time.Time) Response {
	id := verifiedID(t)
	if id == "" {
		return p.process(ctx, t, h, "", start)
	}
	v, _, _ := p.inflight.Do(id, func() (any, error) {
		return p.process(ctx, t, h, id, start), nil
	})
	return v.(Response)
}

var errDuplicate = errors.New("duplicate transaction")

// process runs t to completion. id is the verified transaction id, or "" when
// the claimed id does not match the content; such a submission never reaches
// the ledger and leaves no trace under the id it claims.
func (p *Processor) process(ctx context.Context, t *tx.Transaction, h tx.Handler, id string, start time.Time) Response {
	log := p.log.WithFields(logrus.Fields{
		"tx":     t.ID,
		"type":   t.Type.String(),
		"sender": t.SenderID,
	})
	txctx := &tx.Context{Fees: p.cfg.Fees, FeeSink: p.cfg.FeeSink, Log: log}

	if id != "" && p.accounts.Marked(AppliedKey(id)) {
		p.metrics.observe(t.Type.String(), resultDuplicate, start)
		return accepted(t)
	}

	log.WithField("stage", StageSemanticChecking).Debug("Verifying transaction")
	if err := tx.Verify(txctx, h, p.accounts, t); err != nil {
		p.metrics.observe(t.Type.String(), resultRejected, start)
		return p.reject(id, StageSemanticChecking, err, log)
	}

	keys := append([]string{t.SenderID, appliedLock(t.ID)}, h.LockKeys(txctx, t)...)
	lockCtx, cancel := context.WithTimeout(ctx, p.cfg.LockTimeout)
	defer cancel()

	err := p.accounts.Update(lockCtx, keys, func(b *account.Batch) error {
		if b.Marked(AppliedKey(t.ID)) {
			return errDuplicate
		}
		if err := tx.Verify(txctx, h, b, t); err != nil {
			return err
		}
		log.WithField("stage", StageApplying).Debug("Applying transaction")
		if err := h.Apply(txctx, b, t); err != nil {
			return err
		}
		b.Mark(AppliedKey(t.ID))
		b.OnCommit(func() {
			p.rejected.Remove(t.ID)
			p.tracker.Track(t.ID)
		})
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errDuplicate):
		p.metrics.observe(t.Type.String(), resultDuplicate, start)
		return accepted(t)
	case lockCtx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)):
		p.metrics.lockTimeouts.Inc()
		p.metrics.observe(t.Type.String(), resultRejected, start)
		return p.reject(id, StageApplying, fmt.Errorf("%w: %w", tx.ErrLockTimeout, err), log)
	default:
		p.metrics.observe(t.Type.String(), resultRejected, start)
		return p.reject(id, StageApplying, err, log)
	}

	p.metrics.observe(t.Type.String(), resultAccepted, start)
	log.WithFields(logrus.Fields{
		"stage":  StagePending,
		"amount": t.Amount,
		"fee":    t.Fee,
	}).Info("Transaction accepted")

	if p.history != nil {
		if err := p.history.RecordAccepted(context.WithoutCancel(ctx), t); err != nil {
			log.WithError(err).Warn("Failed to record transaction history")
		}
	}
	return accepted(t)
}

func accepted(t *tx.Transaction) Response {
	return Response{Success: true, TransactionID: t.ID}
}

func (p *Processor) reject(id string, stage Stage, err error, log logrus.FieldLogger) Response {
	msg := Message(err)
	p.metrics.rejected(stage)

	entry := log.WithFields(logrus.Fields{"stage": stage, "reason": msg})
	if msg == msgInternal {
		entry.WithError(err).Error("Transaction failed")
	} else {
		entry.Info("Transaction rejected")
	}

	if id != "" {
		p.rejected.Add(id, confirm.Info{ID: id, Status: confirm.StatusRejected, Message: msg})
	}
	return Response{Success: false, Message: msg}
}

// Message maps a processing error to the message returned to the submitter.
func Message(err error) string {
	var (
		structural *tx.StructuralError
		semantic   *tx.SemanticError
		short      *account.InsufficientFundsError
	)
	switch {
	case errors.As(err, &structural):
		return structural.Error()
	case errors.As(err, &semantic):
		return semantic.Message
	case errors.As(err, &short):
		return tx.InsufficientFunds(short.Address, short.Available).Message
	case errors.Is(err, tx.ErrLockTimeout):
		return msgTimedOut
	}
	return msgInternal
}

// Status returns the state of a transaction: pending or confirmed once
// accepted, rejected while the rejection is remembered. A confirmed
// transaction stays confirmed after it leaves the tracker history.
func (p *Processor) Status(id string) (confirm.Info, bool) {
	if info, ok := p.tracker.Status(id); ok {
		return info, true
	}
	if p.accounts.Marked(ConfirmedKey(id)) {
		return confirm.Info{ID: id, Status: confirm.StatusConfirmed, Confirmations: p.tracker.Threshold()}, true
	}
	if p.accounts.Marked(AppliedKey(id)) {
		return confirm.Info{ID: id, Status: confirm.StatusPending}, true
	}
	return p.rejected.Get(id)
}

// Account returns the committed state of an address.
func (p *Processor) Account(address string) account.Account {
	return p.accounts.Account(address)
}
