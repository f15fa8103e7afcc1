package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/models"
)

func TestResolveParent(t *testing.T) {
	tl := []models.Message{msg("a", 0), msg("b", time.Second)}

	reply := msg("c", 2*time.Second)
	reply.ParentID = "a"
	p, ok := ResolveParent(reply, tl)
	require.True(t, ok)
	require.Equal(t, "a", p.ID)

	reply.ParentID = "gone"
	_, ok = ResolveParent(reply, tl)
	require.False(t, ok)

	_, ok = ResolveParent(msg("d", 0), tl)
	require.False(t, ok)

	_, ok = ResolveParent(reply, nil)
	require.False(t, ok)
}

func TestLocateForScroll(t *testing.T) {
	tl := []models.Message{msg("a", 0), msg("b", time.Second)}
	require.Equal(t, 1, LocateForScroll("b", tl))
	require.Equal(t, -1, LocateForScroll("zz", tl))
	require.Equal(t, -1, LocateForScroll("", tl))
}

func TestStoreParentAndLocate(t *testing.T) {
	s := openStore()
	s.Reconcile([]models.Message{msg("a", 0), msg("b", time.Second)})
	reply := msg("c", 2*time.Second)
	reply.ParentID = "b"
	p, ok := s.Parent(reply)
	require.True(t, ok)
	require.Equal(t, "b", p.ID)
	require.Equal(t, 0, s.Locate("a"))
}
