// Package session holds the client's persistent key-value contract and the
// preferences stored alongside the auth session.
package session

import (
	"context"
	"errors"
	"sync"
)

// Persisted keys.
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
	KeyTheme = "theme_preference"
)

// ErrNotFound is returned by Store.Get when the key is absent.
var ErrNotFound = errors.New("session: key not found")

// Store is a string key-value store that survives client restarts.
// Writes are not transactional across keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryStore is a process-local Store, used in tests and with
// GARAGE_SESSION_BACKEND=memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
