package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_APIConfig(t *testing.T) {
	t.Setenv("FEEDBACK_API_URL", "http://feedback.test/api/")
	t.Setenv("FEEDBACK_API_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://feedback.test/api/", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FEEDBACK_API_URL", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("EVENT_BUS", "")
	t.Setenv("KANBAN_ROLLBACK", "")
	t.Setenv("COMMENT_FETCH_CONCURRENCY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendFile, cfg.Session.Backend)
	assert.Equal(t, BackendMemory, cfg.Events.Backend)
	assert.True(t, cfg.Kanban.RollbackOnFailure)
	assert.Equal(t, 8, cfg.Comments.FetchConcurrency)
	assert.Contains(t, cfg.Session.FilePath, "feedbackctl")
}

func TestLoad_SessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("REDIS_HOST", "cache.local")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, "cache.local:6380", cfg.Redis.RedisAddr())
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "cookies")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ClampsConcurrency(t *testing.T) {
	cfg := &Config{
		API:      APIConfig{BaseURL: "http://x/api/"},
		Session:  SessionConfig{Backend: BackendMemory},
		Events:   EventsConfig{Backend: BackendMemory},
		Comments: CommentsConfig{FetchConcurrency: 0},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Comments.FetchConcurrency)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "fb", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=fb sslmode=disable", db.DatabaseDSN())
}
