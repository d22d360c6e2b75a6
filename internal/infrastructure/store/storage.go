package store

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("storage key is required")

// Storage is the key-value mirror behind the cart, favorites and token
// stores. Values are opaque bytes (JSON in practice).
type Storage interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
