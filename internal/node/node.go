// Package node assembles the ledger state, the transaction pipeline and the
// JSON-RPC server into a running daemon.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goLSKd/internal/config"
	"github.com/LeJamon/goLSKd/internal/core/account"
	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/core/processor"
	"github.com/LeJamon/goLSKd/internal/core/schema"
	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/core/tx/all"
	"github.com/LeJamon/goLSKd/internal/rpc"
	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
	"github.com/LeJamon/goLSKd/internal/storage/database"
	"github.com/LeJamon/goLSKd/internal/storage/database/pebble"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb/postgres"
)

const (
	// GenesisMarker is recorded once the genesis balances are credited.
	GenesisMarker = "genesis"

	metricsNamespace = "lskd"
	shutdownTimeout  = 10 * time.Second
	limiterCleanup   = time.Minute
)

// Option configures a Node.
type Option func(*options)

type options struct {
	log     logrus.FieldLogger
	history relationaldb.TransactionRepository
	version string
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithHistory uses repo for transaction history instead of the configured
// PostgreSQL database.
func WithHistory(repo relationaldb.TransactionRepository) Option {
	return func(o *options) { o.history = repo }
}

// WithVersion sets the version reported by server_info.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// Node is a running lskd instance.
type Node struct {
	cfg *config.Config
	log logrus.FieldLogger

	db       *pebble.DB
	sql      *postgres.Database
	history  relationaldb.TransactionRepository
	registry *prometheus.Registry

	Accounts  *account.Store
	Apps      *dapp.Registry
	Tracker   *confirm.Tracker
	Processor *processor.Processor
	RPC       *rpc.Server
}

// New opens the state store, loads it and wires the pipeline. The caller
// must Close the node.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Node, error) {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	n := &Node{
		cfg:      cfg,
		log:      o.log.WithField("component", "node"),
		history:  o.history,
		registry: prometheus.NewRegistry(),
	}
	if err := n.init(ctx, o); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

func (n *Node) init(ctx context.Context, o options) (err error) {
	cfg := n.cfg
	if err := n.openState(); err != nil {
		return err
	}
	n.Accounts = account.NewStore(n.db, o.log)
	n.Apps = dapp.NewRegistry(n.db)
	if err := n.load(ctx); err != nil {
		return err
	}
	if err := n.creditGenesis(ctx); err != nil {
		return err
	}

	if n.history == nil && cfg.History.Enabled() {
		if err := n.openHistory(ctx); err != nil {
			return err
		}
	}

	if n.Tracker, err = confirm.NewTracker(cfg.ConfirmSettings(), o.log); err != nil {
		return err
	}
	if n.history != nil {
		sink, err := newHistorySink(n.history)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		n.history = sink
		n.Tracker.OnConfirmed(n.recordConfirmed)
	}

	settings, err := cfg.ProcessorSettings()
	if err != nil {
		return err
	}
	decoder := tx.NewDecoder(schema.NewValidator(schema.DefaultRegistry()), all.Registry(n.Apps))
	procOpts := []processor.Option{
		processor.WithLogger(o.log),
		processor.WithMetrics(processor.NewMetrics(metricsNamespace, n.registry)),
	}
	if n.history != nil {
		procOpts = append(procOpts, processor.WithHistory(n.history))
	}
	if n.Processor, err = processor.New(settings, decoder, n.Accounts, n.Tracker, procOpts...); err != nil {
		return err
	}

	n.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services := &rpc_types.ServiceContainer{
		Transactions: n.Processor,
		Applications: n.Apps,
		Blocks:       n.Tracker,
	}
	if n.history != nil {
		services.History = n.history
	}
	n.RPC = rpc.NewServer(rpc.Config{
		RequestTimeout: cfg.Server.RequestTimeout,
		SubmitRate:     cfg.Server.SubmitRate,
		SubmitBurst:    cfg.Server.SubmitBurst,
		Admin:          cfg.Server.Admin,
		Version:        o.version,
	}, services, n.registry, o.log)

	return nil
}

func (n *Node) openState() error {
	var err error
	if n.cfg.Database.Path == "" {
		n.log.Warn("No database path configured, state is kept in memory")
		n.db, err = pebble.OpenMem()
	} else {
		n.db, err = pebble.Open(n.cfg.Database.Path)
	}
	return err
}

// load reads accounts and applications concurrently.
func (n *Node) load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.Accounts.Load(ctx) })
	g.Go(func() error { return n.Apps.Load(ctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	n.log.WithField("applications", n.Apps.Len()).Info("Loaded application registry")
	return nil
}

// creditGenesis credits the configured balances unless a previous start
// already did.
func (n *Node) creditGenesis(ctx context.Context) error {
	credits, err := n.cfg.Genesis.Credits()
	if err != nil {
		return err
	}
	if len(credits) == 0 || n.Accounts.Marked(GenesisMarker) {
		return nil
	}

	addresses := make([]string, 0, len(credits))
	for addr := range credits {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	keys := append([]string{GenesisMarker}, addresses...)
	err = n.Accounts.Update(ctx, keys, func(b *account.Batch) error {
		if b.Marked(GenesisMarker) {
			return nil
		}
		for _, addr := range addresses {
			if err := b.Credit(addr, credits[addr]); err != nil {
				return fmt.Errorf("genesis account %s: %w", addr, err)
			}
		}
		b.Mark(GenesisMarker)
		return nil
	})
	if err != nil {
		return fmt.Errorf("credit genesis: %w", err)
	}
	n.log.WithField("accounts", len(addresses)).Info("Credited genesis balances")
	return nil
}

func (n *Node) openHistory(ctx context.Context) error {
	db, err := postgres.NewDatabase(n.cfg.History.Relational())
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := db.Open(ctx); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	n.sql = db
	n.history = db.Transactions()
	n.log.Info("Transaction history enabled")
	return nil
}

func (n *Node) recordConfirmed(info confirm.Info) {
	timeout := n.cfg.History.Timeout
	if timeout <= 0 {
		timeout = relationaldb.NewConfig().DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := n.history.RecordConfirmed(ctx, info.ID, info.BlockHeight); err != nil {
		n.log.WithError(err).WithField("tx", info.ID).Warn("Failed to record confirmation")
	}
}

// Gatherer returns the node's metrics registry.
func (n *Node) Gatherer() prometheus.Gatherer {
	return n.registry
}

// Run serves JSON-RPC on the configured address until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", n.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", n.cfg.Server.Address(), err)
	}
	return n.Serve(ctx, ln)
}

// Serve serves JSON-RPC on ln until ctx is done, then shuts down gracefully.
func (n *Node) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           n.RPC.Router(),
		ReadHeaderTimeout: n.cfg.Server.RequestTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n.log.WithField("address", ln.Addr().String()).Info("Serving JSON-RPC")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		n.log.Info("Shutting down JSON-RPC server")
		return srv.Shutdown(shutdownCtx)
	})
	if limiter := n.RPC.Limiter(); limiter != nil {
		limiter.StartCleanup(limiterCleanup, ctx.Done())
	}
	return g.Wait()
}

// Close releases the state store and the history database.
func (n *Node) Close() error {
	var errs []error
	if n.sql != nil {
		errs = append(errs, n.sql.Close())
		n.sql = nil
	}
	if n.db != nil {
		errs = append(errs, n.db.Close())
		n.db = nil
	}
	return errors.Join(errs...)
}

var _ database.DB = (*pebble.DB)(nil)
