package testing

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/core/account"
	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/core/processor"
	"github.com/LeJamon/goLSKd/internal/core/schema"
	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/core/tx/all"
	"github.com/LeJamon/goLSKd/internal/storage/database"
	"github.com/LeJamon/goLSKd/internal/testing/builders"
)

// EnvConfig customizes a TestEnv.
type EnvConfig struct {
	// Processor settings. Zero fields take processor.DefaultConfig() values.
	Processor processor.Config

	// Confirm settings. Zero value uses confirm.DefaultConfig().
	Confirm confirm.Config

	// DB backs the ledger state. Nil keeps state in memory.
	DB database.DB
}

// TestEnv wires the processing pipeline the way the node does, with block
// events driven by the test.
type TestEnv struct {
	t *testing.T

	Accounts  *account.Store
	Apps      *dapp.Registry
	Tracker   *confirm.Tracker
	Processor *processor.Processor
	Log       *test.Hook

	height uint64
}

// NewTestEnv creates an environment with default settings.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, EnvConfig{})
}

// NewTestEnvWithConfig creates an environment with custom settings.
func NewTestEnvWithConfig(t *testing.T, cfg EnvConfig) *TestEnv {
	t.Helper()

	defaults := processor.DefaultConfig()
	if cfg.Processor.LockTimeout == 0 {
		cfg.Processor.LockTimeout = defaults.LockTimeout
	}
	if cfg.Processor.Fees == (tx.FeeSchedule{}) {
		cfg.Processor.Fees = defaults.Fees
	}
	if cfg.Processor.RejectedCacheSize == 0 {
		cfg.Processor.RejectedCacheSize = defaults.RejectedCacheSize
	}
	if cfg.Confirm.Threshold == 0 {
		cfg.Confirm = confirm.DefaultConfig()
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	accounts := account.NewStore(cfg.DB, logger)
	apps := dapp.NewRegistry(cfg.DB)
	ctx := context.Background()
	require.NoError(t, accounts.Load(ctx))
	require.NoError(t, apps.Load(ctx))

	tracker, err := confirm.NewTracker(cfg.Confirm, logger)
	require.NoError(t, err)

	decoder := tx.NewDecoder(schema.NewValidator(schema.DefaultRegistry()), all.Registry(apps))
	proc, err := processor.New(cfg.Processor, decoder, accounts, tracker, processor.WithLogger(logger))
	require.NoError(t, err)

	return &TestEnv{
		t:         t,
		Accounts:  accounts,
		Apps:      apps,
		Tracker:   tracker,
		Processor: proc,
		Log:       hook,
	}
}

// Fund credits an account outside of any transaction.
func (e *TestEnv) Fund(acc *builders.Account, amount uint64) {
	e.t.Helper()
	require.NoError(e.t, e.Accounts.Credit(context.Background(), acc.Address, amount))
}

// Balance returns the committed balance of an account.
func (e *TestEnv) Balance(acc *builders.Account) uint64 {
	return e.Accounts.Balance(acc.Address)
}

// BalanceOf returns the committed balance of an address.
func (e *TestEnv) BalanceOf(address string) uint64 {
	return e.Accounts.Balance(address)
}

// Submit submits the wire form of a built transaction.
func (e *TestEnv) Submit(b *builders.TxBuilder) processor.Response {
	return e.SubmitRaw(b.JSON())
}

// SubmitRaw submits a raw wire transaction.
func (e *TestEnv) SubmitRaw(raw []byte) processor.Response {
	return e.Processor.Submit(context.Background(), raw)
}

// RegisterDapp registers an application owned by owner and returns its id.
func (e *TestEnv) RegisterDapp(owner *builders.Account, name string) string {
	e.t.Helper()
	resp := e.Submit(builders.RegisterDapp(owner, name))
	RequireAccepted(e.t, resp)
	return resp.TransactionID
}

// Close produces the next block containing ids and returns its height.
func (e *TestEnv) Close(ids ...string) uint64 {
	e.t.Helper()
	e.height++
	for _, id := range ids {
		require.NoError(e.t, e.Tracker.OnBlockIncluded(id, e.height))
	}
	e.Tracker.OnBlock(e.height)
	return e.height
}

// Status returns the processor status of a transaction.
func (e *TestEnv) Status(id string) confirm.Info {
	e.t.Helper()
	info, ok := e.Processor.Status(id)
	require.True(e.t, ok, "no status for %s", id)
	return info
}
