package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
	"github.com/sharada257/Feedback-Management/pkg/config"
	"github.com/sharada257/Feedback-Management/pkg/retry"
)

// Dialect names the SQL flavour of a connection, using goqu's dialect names.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Client represents a SQL database client used by the session store
type Client struct {
	db      *sql.DB
	dialect Dialect
}

// NewPostgresClient opens PostgreSQL with exponential backoff retry
func NewPostgresClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := ping(ctx, db, "PostgreSQL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
	}

	observability.GetLogger().Debug().Str("host", cfg.Host).Msg("connected to PostgreSQL")
	return &Client{db: db, dialect: DialectPostgres}, nil
}

// NewSQLiteClient opens (creating if needed) a SQLite database file.
// ":memory:" is accepted for tests.
func NewSQLiteClient(ctx context.Context, path string) (*Client, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	// SQLite serializes writers; an in-memory database also lives per connection.
	db.SetMaxOpenConns(1)

	if err := ping(ctx, db, "SQLite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return &Client{db: db, dialect: DialectSQLite}, nil
}

// NewClientFromDB wraps an existing connection, e.g. a sqlmock in tests
func NewClientFromDB(db *sql.DB, dialect Dialect) *Client {
	return &Client{db: db, dialect: dialect}
}

func ping(ctx context.Context, db *sql.DB, name string) error {
	return retry.DoWithLog(ctx, retry.DefaultConfig(), name, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, observability.GetLogger())
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the goqu dialect name for this connection
func (c *Client) Dialect() Dialect {
	return c.dialect
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// BeginTx starts a new transaction
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
