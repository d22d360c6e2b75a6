package mocks

import (
	"context"
	"sync"

	"github.com/example/licorice-storefront/internal/infrastructure/store"
)

// MockStorage is an in-memory store.Storage that records writes and can be
// told to fail.
type MockStorage struct {
	mu   sync.RWMutex
	data map[string][]byte

	SetCalls    []SetCall
	DeleteCalls []string
	GetErr      error
	SetErr      error
}

// SetCall records parameters passed to Set
type SetCall struct {
	Key   string
	Value []byte
}

var _ store.Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		data:     make(map[string][]byte),
		SetCalls: make([]SetCall, 0),
	}
}

func (m *MockStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *MockStorage) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: append([]byte(nil), value...)})
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, key)
	delete(m.data, key)
	return nil
}

// Seed stores a raw value without recording a call
func (m *MockStorage) Seed(key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value)
}

// Value returns the raw stored value for key
func (m *MockStorage) Value(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return string(v), ok
}

// LastSet returns the most recent Set call for key
func (m *MockStorage) LastSet(key string) (SetCall, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.SetCalls) - 1; i >= 0; i-- {
		if m.SetCalls[i].Key == key {
			return m.SetCalls[i], true
		}
	}
	return SetCall{}, false
}
