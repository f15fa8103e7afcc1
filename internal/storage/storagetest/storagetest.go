// Package storagetest builds seeded in-memory stores for tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/storage"
	"github.com/ageniuscoder/gigchat/internal/storage/sqlite"
)

// T0 is the timestamp of the first seeded message.
var T0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Fixture is a small marketplace:
//
//	c1 is a personal client; job-1 has f1's accepted proposal.
//	o1 (Acme) has members a1 (owner) and a2; job-org belongs to o1 and has
//	f2's accepted proposal.
//	job-99 belongs to c1 and has no accepted proposal.
func Fixture() storage.Fixture {
	var f storage.Fixture
	f.Users = []models.Profile{
		{ID: "c1", Name: "Cora"},
		{ID: "f1", Name: "Finn"},
		{ID: "f2", Name: "Fay"},
		{ID: "a1", Name: "Ada"},
		{ID: "a2", Name: "Abe"},
		{ID: "x1", Name: "Xan"},
	}
	f.Orgs = []storage.FixtureOrg{
		{OrgMeta: models.OrgMeta{ID: "o1", Name: "Acme", Logo: "acme.png", OwnerID: "a1"}, Members: []string{"a1", "a2"}},
	}
	f.Jobs = []storage.FixtureJob{
		{ID: "job-1", Title: "Logo", ClientID: "c1"},
		{ID: "job-org", Title: "Site", ClientID: "a1", OrgID: "o1"},
		{ID: "job-99", Title: "Draft", ClientID: "c1"},
	}
	f.Proposals = []models.Proposal{
		{ID: "p1", JobID: "job-1", FreelancerID: "f1", Status: models.ProposalAccepted},
		{ID: "p2", JobID: "job-org", FreelancerID: "f2", Status: models.ProposalAccepted},
		{ID: "p3", JobID: "job-99", FreelancerID: "f1", Status: "pending"},
	}
	f.Messages = []models.Message{
		{ID: "m1", ThreadKey: "job-1", SenderID: "c1", ReceiverID: "f1", Content: "hi", CreatedAt: T0},
		{ID: "m2", ThreadKey: "job-1", SenderID: "f1", ReceiverID: "c1", Content: "hello", CreatedAt: T0.Add(time.Minute), ParentID: "m1"},
		{ID: "m3", ThreadKey: "job-org", SenderID: "a2", ReceiverID: "f2", Content: "welcome", CreatedAt: T0.Add(2 * time.Minute), OrgID: "o1"},
		{ID: "m4", ThreadKey: "job-org", SenderID: "f2", ReceiverID: "a2", Content: "thanks", CreatedAt: T0.Add(3 * time.Minute)},
	}
	return f
}

// New returns a migrated in-memory store seeded with Fixture.
func New(t testing.TB) *storage.Store {
	t.Helper()
	s, err := sqlite.New("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Seed(ctx, Fixture()))
	return s
}
