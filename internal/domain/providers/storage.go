package providers

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Storage.Get for a missing key
var ErrKeyNotFound = errors.New("key not found")

// Storage is the client-side key/value store that holds the session.
// It plays the role browser local storage plays for a web client.
type Storage interface {
	// Get retrieves a value; ErrKeyNotFound when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value without expiration
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the backend
	Close() error
}
