package tx

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Context carries configuration shared by all handlers.
type Context struct {
	// Fees is the fixed fee table.
	Fees FeeSchedule

	// FeeSink receives collected fees. Fees are burned when empty.
	FeeSink string

	// Log is scoped to the transaction being processed.
	Log logrus.FieldLogger
}

// Logger returns Log, or the standard logger when unset.
func (c *Context) Logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// LedgerView provides read access to ledger state.
type LedgerView interface {
	// Balance returns the balance of an address, 0 if unknown.
	Balance(address string) uint64

	// Marked reports whether a marker key was recorded.
	Marked(key string) bool
}

// Changes stages the effect of one transaction. Nothing staged is visible to
// other readers until the whole set is committed.
type Changes interface {
	LedgerView

	// Debit removes amount from address. It fails without staging anything
	// when the balance is short.
	Debit(address string, amount uint64) error

	// Credit adds amount to address.
	Credit(address string, amount uint64) error

	// Mark records a marker key.
	Mark(key string)

	// Put stages an auxiliary record written in the same batch.
	Put(key string, value []byte)

	// OnCommit registers fn to run after a successful commit, before the
	// touched keys are unlocked.
	OnCommit(fn func())
}

// AssetSchema binds an asset member to the schema that validates it.
type AssetSchema struct {
	// Key is the member of the asset object. Empty selects the asset itself.
	Key string

	// Schema is the schema name.
	Schema string

	// Optional members are skipped when absent or null.
	Optional bool
}

// Handler implements one transaction type.
//
// Processing runs Schemas and Decode while decoding, Preclaim without locks
// against live state, then, holding the locks of LockKeys, Preclaim again and
// Apply against staged changes.
type Handler interface {
	// Type returns the transaction type this handler processes
	Type() Type

	// Schemas lists the asset members validated before decoding.
	Schemas() []AssetSchema

	// Decode maps a validated wire asset to its typed variant.
	Decode(asset gjson.Result) (Asset, error)

	// Preclaim validates the transaction against ledger state.
	Preclaim(ctx *Context, view LedgerView, t *Transaction) error

	// LockKeys returns the keys, besides the sender, that must be held while
	// applying.
	LockKeys(ctx *Context, t *Transaction) []string

	// Apply stages the effect of the transaction.
	Apply(ctx *Context, changes Changes, t *Transaction) error
}

// Registry is the closed table of transaction handlers, built once at startup.
type Registry struct {
	handlers map[Type]Handler
}

// NewRegistry builds a registry. Each type may be registered once.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[Type]Handler, len(handlers))}
	for _, h := range handlers {
		if _, exists := r.handlers[h.Type()]; exists {
			return nil, fmt.Errorf("duplicate handler for transaction type %s", h.Type())
		}
		r.handlers[h.Type()] = h
	}
	return r, nil
}

// Get returns the handler of a transaction type.
func (r *Registry) Get(t Type) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}

// Types returns the registered types in ascending order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Verify runs the checks common to every type, then the handler's Preclaim.
func Verify(ctx *Context, h Handler, view LedgerView, t *Transaction) error {
	fee, ok := ctx.Fees.For(t.Type)
	if !ok || t.Fee != fee {
		return Reject(MsgInvalidFee)
	}
	if t.ID != ComputeID(t) {
		return Reject(MsgInvalidID)
	}
	return h.Preclaim(ctx, view, t)
}

// ChargeFee stages the fee movement from the sender to the fee sink.
func ChargeFee(ctx *Context, c Changes, t *Transaction) error {
	if t.Fee == 0 || ctx.FeeSink == "" {
		return nil
	}
	return c.Credit(ctx.FeeSink, t.Fee)
}
