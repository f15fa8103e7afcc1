package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/models"
)

func TestPreview(t *testing.T) {
	require.Equal(t, "a b", preview("a\n  b", 10))
	require.Equal(t, "abcd…", preview("abcdefgh", 5))
	require.Equal(t, "héllo", preview("héllo", 5))
}

func TestPrintInbox(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printInbox(&buf, []models.Conversation{
		{ThreadKey: "job-42", CounterpartyName: "F7", LastMessage: "Start a conversation…", Synthesized: true},
		{ThreadKey: "job-org", CounterpartyName: "Acme", IsOrganization: true, OrganizationName: "Acme",
			LastMessage: "hello", LastMessageAt: now.Add(-2 * time.Hour), UnreadCount: 3},
	}, now)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "THREAD"))
	require.Contains(t, lines[1], "job-42")
	require.Contains(t, lines[1], "-")
	require.Contains(t, lines[2], "2 hours ago")
	require.Contains(t, lines[2], "3")
	require.NotContains(t, lines[2], "(Acme)")
}
