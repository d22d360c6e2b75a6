package apiclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/licorice-storefront/internal/infrastructure/store"
)

// TokenKey is the storage key of the bearer token
const TokenKey = "access_token"

// TokenStore persists the bearer token in a store.Storage
type TokenStore struct {
	storage store.Storage
}

func NewTokenStore(storage store.Storage) *TokenStore {
	return &TokenStore{storage: storage}
}

// Token returns the stored token, or "" when none is stored
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	raw, ok, err := t.storage.Get(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(string(raw)), nil
}

func (t *TokenStore) SetToken(ctx context.Context, token string) error {
	if err := t.storage.Set(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

func (t *TokenStore) Clear(ctx context.Context) error {
	if err := t.storage.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	return nil
}
