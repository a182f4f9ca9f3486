package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	redisclient "github.com/sharada257/Feedback-Management/internal/infrastructure/clients/redis"
)

// RedisStorage implements the Storage interface using Redis. Keys are
// prefixed with a namespace so several profiles can share one database.
type RedisStorage struct {
	client    *redisclient.Client
	namespace string
}

// NewRedisStorage creates a new Redis storage adapter
func NewRedisStorage(client *redisclient.Client, namespace string) providers.Storage {
	return &RedisStorage{
		client:    client,
		namespace: namespace,
	}
}

func (a *RedisStorage) key(key string) string {
	if a.namespace == "" {
		return key
	}
	return a.namespace + ":" + key
}

// Get retrieves a value
func (a *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return result, nil
}

// Set stores a value without expiration
func (a *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := a.client.Client().Set(ctx, a.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Delete removes keys
func (a *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = a.key(k)
	}
	if err := a.client.Client().Del(ctx, namespaced...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Exists checks if a key exists
func (a *RedisStorage) Exists(ctx context.Context, key string) (bool, error) {
	result, err := a.client.Client().Exists(ctx, a.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence in redis: %w", err)
	}
	return result > 0, nil
}

// Close closes the underlying connection
func (a *RedisStorage) Close() error {
	return a.client.Close()
}
