package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/clients/sqldb"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

const sessionTable = "session_store"

const createSessionTable = `CREATE TABLE IF NOT EXISTS session_store (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLStorage implements Storage on a SQL table, for SQLite or PostgreSQL
type SQLStorage struct {
	client    *sqldb.Client
	db        *goqu.Database
	namespace string
}

// NewSQLStorage creates the session table if needed and returns the store
func NewSQLStorage(ctx context.Context, client *sqldb.Client, namespace string) (*SQLStorage, error) {
	if _, err := client.DB().ExecContext(ctx, createSessionTable); err != nil {
		return nil, apperrors.NewInternalError("failed to create session table", err)
	}
	return &SQLStorage{
		client:    client,
		db:        goqu.New(string(client.Dialect()), client.DB()),
		namespace: namespace,
	}, nil
}

var _ providers.Storage = (*SQLStorage)(nil)

// Get retrieves a value
func (a *SQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := a.db.From(sessionTable).
		Select("value").
		Where(goqu.Ex{"namespace": a.namespace, "key": key}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var value string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, providers.ErrKeyNotFound
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read session value", err)
	}
	return []byte(value), nil
}

// Set replaces a value inside one transaction
func (a *SQLStorage) Set(ctx context.Context, key string, value []byte) error {
	deleteQuery, deleteArgs, err := a.db.Delete(sessionTable).
		Where(goqu.Ex{"namespace": a.namespace, "key": key}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	insertQuery, insertArgs, err := a.db.Insert(sessionTable).Rows(goqu.Record{
		"namespace":  a.namespace,
		"key":        key,
		"value":      string(value),
		"updated_at": time.Now().UTC(),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		_ = tx.Rollback()
		return apperrors.NewInternalError("failed to replace session value", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		_ = tx.Rollback()
		return apperrors.NewInternalError("failed to write session value", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit session value", err)
	}
	return nil
}

// Delete removes keys
func (a *SQLStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := a.db.Delete(sessionTable).
		Where(goqu.Ex{"namespace": a.namespace, "key": keys}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete session values", err)
	}
	return nil
}

// Exists checks if a key exists
func (a *SQLStorage) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := a.db.From(sessionTable).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"namespace": a.namespace, "key": key}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check session value", err)
	}
	return count > 0, nil
}

// Close closes the database connection
func (a *SQLStorage) Close() error {
	return a.client.Close()
}

// String names the backend for log lines
func (a *SQLStorage) String() string {
	return fmt.Sprintf("sql(%s)", a.client.Dialect())
}
