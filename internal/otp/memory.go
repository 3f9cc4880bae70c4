package otp

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	code    string
	expires time.Time
}

// MemoryStore is the in-process fallback used when redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]memEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]memEntry)}
}

func (m *MemoryStore) Put(ctx context.Context, phone, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[phone] = memEntry{code: code, expires: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, phone string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.codes[phone]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expires) {
		delete(m.codes, phone)
		return "", false
	}
	return e.code, true
}

func (m *MemoryStore) Del(ctx context.Context, phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, phone)
}
