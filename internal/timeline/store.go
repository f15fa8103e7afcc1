package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ageniuscoder/gigchat/internal/models"
)

// ErrStale is returned by LoadSnapshot when the store moved to another
// thread before the fetch completed.
var ErrStale = errors.New("timeline: thread changed during fetch")

// Fetcher performs the one-shot snapshot fetch of a thread. orgID is empty
// under personal scope.
type Fetcher interface {
	FetchMessages(ctx context.Context, threadKey, orgID string) ([]models.Message, error)
}

// Store holds the ordered timeline of the open conversation. Every mutation
// is applied to a copy and swapped in whole.
type Store struct {
	mu        sync.RWMutex
	threadKey string
	msgs      []models.Message
	log       *slog.Logger
}

func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{log: log.With("component", "timeline")}
}

// Open points the store at threadKey, clearing it if it held another thread.
func (s *Store) Open(threadKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threadKey != threadKey {
		s.threadKey = threadKey
		s.msgs = nil
	}
}

// Close detaches the store from any thread.
func (s *Store) Close() {
	s.Open("")
}

func (s *Store) ThreadKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadKey
}

// LoadSnapshot fetches threadKey and folds the result into the timeline.
// On failure, or when the store moved to another thread while the fetch was
// in flight, the timeline is left untouched.
func (s *Store) LoadSnapshot(ctx context.Context, f Fetcher, threadKey, orgID string) ([]models.Message, error) {
	msgs, err := f.FetchMessages(ctx, threadKey, orgID)
	if err != nil {
		return nil, fmt.Errorf("timeline: snapshot %s: %w", threadKey, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ThreadKey() != threadKey {
		s.log.Debug("dropping late snapshot", "thread", threadKey)
		return nil, ErrStale
	}
	s.Reconcile(msgs)
	return s.Messages(), nil
}

// Reconcile upserts incoming by id, then re-sorts the timeline by creation
// time. Entries without an id or timestamp, or belonging to another thread,
// are skipped. It returns the number of entries applied.
func (s *Store) Reconcile(incoming []models.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threadKey == "" {
		return 0
	}

	next := make([]models.Message, len(s.msgs), len(s.msgs)+len(incoming))
	copy(next, s.msgs)
	pos := make(map[string]int, len(next))
	for i, m := range next {
		pos[m.ID] = i
	}

	applied := 0
	for _, m := range incoming {
		if m.ID == "" || m.CreatedAt.IsZero() {
			s.log.Debug("skipping malformed message", "thread", s.threadKey, "id", m.ID)
			continue
		}
		if m.ThreadKey == "" {
			m.ThreadKey = s.threadKey
		} else if m.ThreadKey != s.threadKey {
			continue
		}
		if i, ok := pos[m.ID]; ok {
			next[i] = m
		} else {
			pos[m.ID] = len(next)
			next = append(next, m)
		}
		applied++
	}
	if applied == 0 {
		return 0
	}

	sortMessages(next)
	s.msgs = next
	return applied
}

// Remove deletes id from the timeline.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.msgs {
		if m.ID == id {
			next := make([]models.Message, 0, len(s.msgs)-1)
			next = append(next, s.msgs[:i]...)
			next = append(next, s.msgs[i+1:]...)
			s.msgs = next
			return true
		}
	}
	return false
}

// RemoveIfPending withdraws id only while it is still an unconfirmed
// optimistic entry.
func (s *Store) RemoveIfPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.msgs {
		if m.ID != id {
			continue
		}
		if !m.Pending {
			return false
		}
		next := make([]models.Message, 0, len(s.msgs)-1)
		next = append(next, s.msgs[:i]...)
		next = append(next, s.msgs[i+1:]...)
		s.msgs = next
		return true
	}
	return false
}

func (s *Store) Get(id string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.msgs {
		if m.ID == id {
			return m, true
		}
	}
	return models.Message{}, false
}

// Messages returns a copy of the timeline.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}

// sortMessages orders by creation time; ties break on id so the result does
// not depend on arrival order.
func sortMessages(msgs []models.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		a, b := msgs[i], msgs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
