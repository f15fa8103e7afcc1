// Package presence keeps short-lived typing marks per thread.
package presence

import (
	"context"
	"sync"
	"time"
)

// Store records typing marks that expire after a TTL.
type Store interface {
	Mark(ctx context.Context, threadKey, userID string) error
	// Typing reports whether anyone outside exclude holds a live mark.
	Typing(ctx context.Context, threadKey string, exclude []string) (bool, error)
}

type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	marks map[string]map[string]time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, marks: make(map[string]map[string]time.Time)}
}

func (m *MemoryStore) Mark(_ context.Context, threadKey, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := m.marks[threadKey]
	if users == nil {
		users = make(map[string]time.Time)
		m.marks[threadKey] = users
	}
	users[userID] = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Typing(_ context.Context, threadKey string, exclude []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	users := m.marks[threadKey]
	found := false
	for uid, until := range users {
		if !now.Before(until) {
			delete(users, uid)
			continue
		}
		if !excluded(exclude, uid) {
			found = true
		}
	}
	if len(users) == 0 {
		delete(m.marks, threadKey)
	}
	return found, nil
}

func excluded(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
