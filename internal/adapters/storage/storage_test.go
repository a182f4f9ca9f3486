package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/clients/sqldb"
)

func runStorageContract(t *testing.T, store providers.Storage) {
	ctx := context.Background()

	_, err := store.Get(ctx, "token")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)

	exists, err := store.Exists(ctx, "token")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Set(ctx, "token", []byte("abc")))
	require.NoError(t, store.Set(ctx, "role", []byte("admin")))
	require.NoError(t, store.Set(ctx, "token", []byte("def")))

	value, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "def", string(value))

	exists, err = store.Exists(ctx, "role")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "token", "role", "missing"))
	_, err = store.Get(ctx, "role")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)

	require.NoError(t, store.Delete(ctx))
}

func TestMemoryStorage(t *testing.T) {
	runStorageContract(t, NewMemoryStorage())
}

func TestMemoryStorage_CopiesValues(t *testing.T) {
	store := NewMemoryStorage()
	buf := []byte("abc")
	require.NoError(t, store.Set(context.Background(), "k", buf))
	buf[0] = 'x'

	got, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStorage(t *testing.T) {
	store, err := NewFileStorage(filepath.Join(t.TempDir(), "nested", "session.json"))
	require.NoError(t, err)
	runStorageContract(t, store)
}

func TestFileStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	first, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "username", []byte("ana")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := NewFileStorage(path)
	require.NoError(t, err)
	got, err := second.Get(ctx, "username")
	require.NoError(t, err)
	assert.Equal(t, "ana", string(got))
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStorage(path)
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrKeyNotFound)
}

func TestSQLStorage_SQLite(t *testing.T) {
	ctx := context.Background()
	client, err := sqldb.NewSQLiteClient(ctx, ":memory:")
	require.NoError(t, err)

	store, err := NewSQLStorage(ctx, client, "feedbackctl")
	require.NoError(t, err)
	defer store.Close()

	runStorageContract(t, store)
}

func TestSQLStorage_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	client, err := sqldb.NewSQLiteClient(ctx, ":memory:")
	require.NoError(t, err)
	defer client.Close()

	alpha, err := NewSQLStorage(ctx, client, "alpha")
	require.NoError(t, err)
	beta, err := NewSQLStorage(ctx, client, "beta")
	require.NoError(t, err)

	require.NoError(t, alpha.Set(ctx, "token", []byte("a")))
	_, err = beta.Get(ctx, "token")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)
}
