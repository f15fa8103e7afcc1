package inbox

import (
	"sort"
	"sync"
	"time"

	"github.com/ageniuscoder/gigchat/internal/identity"
	"github.com/ageniuscoder/gigchat/internal/models"
)

// Index is the set of known conversations, one per thread key.
type Index struct {
	mu    sync.RWMutex
	items map[string]models.Conversation
}

func NewIndex() *Index {
	return &Index{items: make(map[string]models.Conversation)}
}

// Resolve converts raw listing records into conversations under scope. The
// first record seen for a thread key wins.
func Resolve(raw []models.RawConversation, scope identity.Scope) []models.Conversation {
	out := make([]models.Conversation, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if r.ThreadKey == "" {
			continue
		}
		if _, dup := seen[r.ThreadKey]; dup {
			continue
		}
		seen[r.ThreadKey] = struct{}{}
		cp := identity.Resolve(r, scope)
		out = append(out, models.Conversation{
			ThreadKey:          r.ThreadKey,
			CounterpartyID:     cp.ID,
			CounterpartyName:   cp.Name,
			CounterpartyAvatar: cp.Avatar,
			LastMessage:        r.LastMessage,
			LastMessageAt:      r.LastMessageAt,
			UnreadCount:        r.UnreadCount,
			IsOrganization:     cp.IsOrganization,
			OrganizationName:   cp.OrganizationName,
		})
	}
	return out
}

// Load replaces the backend-sourced entries with raw resolved under scope.
// Synthesized entries the backend does not know yet are kept; a backend
// entry for the same thread key supersedes its placeholder.
func (x *Index) Load(raw []models.RawConversation, scope identity.Scope) []models.Conversation {
	convs := Resolve(raw, scope)

	next := make(map[string]models.Conversation, len(convs))
	for _, c := range convs {
		next[c.ThreadKey] = c
	}

	x.mu.Lock()
	for key, c := range x.items {
		if _, ok := next[key]; !ok && c.Synthesized {
			next[key] = c
		}
	}
	x.items = next
	x.mu.Unlock()

	return x.List()
}

// Upsert inserts or replaces the entry for c.ThreadKey.
func (x *Index) Upsert(c models.Conversation) {
	if c.ThreadKey == "" {
		return
	}
	x.mu.Lock()
	x.items[c.ThreadKey] = c
	x.mu.Unlock()
}

// TouchLastMessage updates the preview of an existing entry in place.
func (x *Index) TouchLastMessage(threadKey, preview string, at time.Time) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.items[threadKey]
	if !ok {
		return false
	}
	c.LastMessage = preview
	c.LastMessageAt = at
	x.items[threadKey] = c
	return true
}

// MarkRead clears the unread count of threadKey.
func (x *Index) MarkRead(threadKey string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if c, ok := x.items[threadKey]; ok {
		c.UnreadCount = 0
		x.items[threadKey] = c
	}
}

func (x *Index) Get(threadKey string) (models.Conversation, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.items[threadKey]
	return c, ok
}

// Reset drops every entry, synthesized ones included.
func (x *Index) Reset() {
	x.mu.Lock()
	x.items = make(map[string]models.Conversation)
	x.mu.Unlock()
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.items)
}

// List returns the entries with synthesized placeholders first, then the
// most recently active.
func (x *Index) List() []models.Conversation {
	x.mu.RLock()
	out := make([]models.Conversation, 0, len(x.items))
	for _, c := range x.items {
		out = append(out, c)
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Synthesized != b.Synthesized {
			return a.Synthesized
		}
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.ThreadKey < b.ThreadKey
	})
	return out
}
