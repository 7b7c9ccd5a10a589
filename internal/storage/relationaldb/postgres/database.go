package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
)

// Database owns the connection pool of the history database
type Database struct {
	db     *sql.DB
	config *relationaldb.Config
}

// NewDatabase creates a PostgreSQL database instance. Call Open before use.
func NewDatabase(config *relationaldb.Config) (*Database, error) {
	if err := config.Validate(); err != nil {
		return nil, relationaldb.NewConfigurationError("new_database", "invalid configuration", err)
	}
	return &Database{config: config}, nil
}

// NewDatabaseWithDB wraps an existing connection pool. The schema is not
// initialized.
func NewDatabaseWithDB(db *sql.DB, config *relationaldb.Config) *Database {
	return &Database{db: db, config: config}
}

// Open opens the database connection and initializes schema
func (db *Database) Open(ctx context.Context) error {
	sqlDB, err := sql.Open("postgres", db.config.BuildConnectionString())
	if err != nil {
		return relationaldb.NewConnectionError("open", "failed to open database connection", err)
	}

	sqlDB.SetMaxOpenConns(db.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(db.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(db.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(db.config.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, db.config.DefaultTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return relationaldb.NewConnectionError("open", "failed to ping database", err)
	}

	db.db = sqlDB

	if err := db.InitSchema(ctx); err != nil {
		db.db.Close()
		db.db = nil
		return err
	}
	return nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.db == nil {
		return nil
	}

	err := db.db.Close()
	db.db = nil

	if err != nil {
		return relationaldb.NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// Ping tests the database connection
func (db *Database) Ping(ctx context.Context) error {
	if db.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	ctx, cancel := context.WithTimeout(ctx, db.config.DefaultTimeout)
	defer cancel()

	if err := db.db.PingContext(ctx); err != nil {
		return relationaldb.NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// Transactions returns the transaction history repository
func (db *Database) Transactions() *TransactionRepository {
	return NewTransactionRepository(db.db)
}

// schemaQueries create the history tables
var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id VARCHAR(20) PRIMARY KEY,
		type SMALLINT NOT NULL,
		sender_id VARCHAR(22) NOT NULL,
		recipient_id VARCHAR(22),
		amount BIGINT NOT NULL,
		fee BIGINT NOT NULL,
		timestamp BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		block_height BIGINT,
		raw JSONB NOT NULL,
		accepted_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		confirmed_at TIMESTAMP WITH TIME ZONE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_recipient ON transactions(recipient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_block_height ON transactions(block_height)`,
}

// InitSchema creates the history tables if they do not exist
func (db *Database) InitSchema(ctx context.Context) error {
	if db.db == nil {
		return relationaldb.ErrDatabaseClosed
	}
	for _, query := range schemaQueries {
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return relationaldb.NewSchemaError("init_schema", "failed to initialize schema", fmt.Errorf("failed to execute schema query: %w", err))
		}
	}
	return nil
}
