package inbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/identity"
	"github.com/ageniuscoder/gigchat/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLoadResolvesAndKeysByThread(t *testing.T) {
	x := NewIndex()
	got := x.Load([]models.RawConversation{
		{ThreadKey: "job-1", SenderID: "me", ReceiverID: "f1", LastMessage: "hi", LastMessageAt: t0},
		{ThreadKey: "job-2", SenderID: "f1", ReceiverID: "me", LastMessage: "yo", LastMessageAt: t0.Add(time.Minute), UnreadCount: 2},
		{ThreadKey: "job-2", SenderID: "f9", ReceiverID: "me", LastMessage: "older"},
		{ThreadKey: "", SenderID: "x", ReceiverID: "me"},
	}, identity.NewPersonal("me"))

	require.Len(t, got, 2)
	require.Equal(t, "job-2", got[0].ThreadKey)
	require.Equal(t, "yo", got[0].LastMessage)
	require.Equal(t, 2, got[0].UnreadCount)
	// same counterparty on two threads: both kept
	require.Equal(t, "f1", got[0].CounterpartyID)
	require.Equal(t, "f1", got[1].CounterpartyID)
}

func TestLoadKeepsUnknownPlaceholdersOnly(t *testing.T) {
	x := NewIndex()
	x.Upsert(models.Conversation{ThreadKey: "job-9", CounterpartyID: "c", Synthesized: true, LastMessage: Placeholder})
	x.Upsert(models.Conversation{ThreadKey: "job-1", CounterpartyID: "c", Synthesized: true, LastMessage: Placeholder})

	got := x.Load([]models.RawConversation{
		{ThreadKey: "job-1", SenderID: "c", ReceiverID: "me", LastMessage: "real", LastMessageAt: t0},
	}, identity.NewPersonal("me"))

	require.Len(t, got, 2)
	require.Equal(t, "job-9", got[0].ThreadKey)
	require.True(t, got[0].Synthesized)
	c, ok := x.Get("job-1")
	require.True(t, ok)
	require.False(t, c.Synthesized)
	require.Equal(t, "real", c.LastMessage)
}

func TestTouchLastMessageAndMarkRead(t *testing.T) {
	x := NewIndex()
	x.Upsert(models.Conversation{ThreadKey: "job-1", UnreadCount: 3})

	require.True(t, x.TouchLastMessage("job-1", "sent", t0))
	require.False(t, x.TouchLastMessage("job-404", "sent", t0))
	x.MarkRead("job-1")

	c, _ := x.Get("job-1")
	require.Equal(t, "sent", c.LastMessage)
	require.Equal(t, t0, c.LastMessageAt)
	require.Zero(t, c.UnreadCount)
	require.Equal(t, 1, x.Len())

	x.Reset()
	require.Zero(t, x.Len())
}
