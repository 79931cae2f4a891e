package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps subscribers in process memory. Useful for tests and
// throwaway deployments.
type MemoryStorage struct {
	mu     sync.RWMutex
	emails []string
	seen   map[string]struct{}
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{seen: make(map[string]struct{})}
}

// NewMemoryWithSubscribers preloads the given emails, skipping duplicates.
func NewMemoryWithSubscribers(emails []string) *MemoryStorage {
	m := NewMemory()
	for _, e := range emails {
		m.add(e)
	}
	return m
}

func (m *MemoryStorage) ListSubscribers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.emails...), nil
}

func (m *MemoryStorage) AddSubscriber(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(email), nil
}

func (m *MemoryStorage) add(email string) bool {
	if _, ok := m.seen[email]; ok {
		return false
	}
	m.seen[email] = struct{}{}
	m.emails = append(m.emails, email)
	return true
}

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }
