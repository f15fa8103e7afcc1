package timeline

import "github.com/ageniuscoder/gigchat/internal/models"

// ResolveParent looks msg's parent up in the loaded timeline only. ok is
// false when msg is not a reply or its parent is not loaded.
func ResolveParent(msg models.Message, timeline []models.Message) (models.Message, bool) {
	if msg.ParentID == "" {
		return models.Message{}, false
	}
	if i := LocateForScroll(msg.ParentID, timeline); i >= 0 {
		return timeline[i], true
	}
	return models.Message{}, false
}

// LocateForScroll returns the index of id in timeline, or -1.
func LocateForScroll(id string, timeline []models.Message) int {
	if id == "" {
		return -1
	}
	for i := range timeline {
		if timeline[i].ID == id {
			return i
		}
	}
	return -1
}

// Parent resolves msg's parent against the store's current timeline.
func (s *Store) Parent(msg models.Message) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ResolveParent(msg, s.msgs)
}

// Locate returns the index of id in the store's current timeline, or -1.
func (s *Store) Locate(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LocateForScroll(id, s.msgs)
}
