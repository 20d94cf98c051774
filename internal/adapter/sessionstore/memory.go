package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type memItem struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store. Expired items are dropped on access.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if ok && !it.expiresAt.IsZero() && !m.now().Before(it.expiresAt) {
		delete(m.items, key)
		ok = false
	}
	if !ok {
		return "", fmt.Errorf("session item %s: %w", key, domain.ErrNotFound)
	}
	return it.value, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it := memItem{value: value}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = it
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
