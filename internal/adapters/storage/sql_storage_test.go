package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/clients/sqldb"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

func setupPostgresMock(t *testing.T) (*SQLStorage, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_store").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLStorage(context.Background(), sqldb.NewClientFromDB(mockDB, sqldb.DialectPostgres), "feedbackctl")
	require.NoError(t, err)
	return store, mock
}

func TestSQLStorage_PostgresSetUsesTransaction(t *testing.T) {
	store, mock := setupPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "session_store"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "session_store"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Set(context.Background(), "token", []byte("abc")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_PostgresSetRollsBack(t *testing.T) {
	store, mock := setupPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "session_store"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.Set(context.Background(), "token", []byte("abc"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_PostgresGet(t *testing.T) {
	store, mock := setupPostgresMock(t)

	mock.ExpectQuery(`SELECT "value" FROM "session_store"`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("abc"))
	mock.ExpectQuery(`SELECT "value" FROM "session_store"`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	got, err := store.Get(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = store.Get(context.Background(), "role")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_PostgresDeleteMany(t *testing.T) {
	store, mock := setupPostgresMock(t)

	mock.ExpectExec(`DELETE FROM "session_store" WHERE .*IN \('token', 'role'\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.Delete(context.Background(), "token", "role"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
