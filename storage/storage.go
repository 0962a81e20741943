// Package storage persists small client-side documents (the authentication
// record, the bearer token and UI preferences) across restarts, with the
// semantics of a browser's localStorage.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Keys used by the dashboard.
const (
	KeyToken       = "store_token"
	KeyAuth        = "auth-storage"
	KeyPreferences = "i18n-storage"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Storage is a string key-value store. GetItem reports ok=false for absent keys.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Memory is a process-local Storage.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// TokenSource reads the bearer token from storage on every call.
type TokenSource struct {
	Storage Storage
}

// Token returns the stored bearer token, if any. Read errors count as absent.
func (t TokenSource) Token(ctx context.Context) (string, bool) {
	v, ok, err := t.Storage.GetItem(ctx, KeyToken)
	if err != nil || !ok || v == "" {
		return "", false
	}
	return v, true
}
