package inbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/identity"
	"github.com/ageniuscoder/gigchat/internal/models"
)

type fakeJobs struct {
	jobs      map[string]models.Job
	proposals map[string]models.Proposal
}

var errMissing = errors.New("not found")

func (f fakeJobs) LookupJob(_ context.Context, key string) (models.Job, error) {
	j, ok := f.jobs[key]
	if !ok {
		return models.Job{}, errMissing
	}
	return j, nil
}

func (f fakeJobs) AcceptedProposal(_ context.Context, key string) (models.Proposal, error) {
	p, ok := f.proposals[key]
	if !ok {
		return models.Proposal{}, errMissing
	}
	return p, nil
}

func newSynth() *Synthesizer {
	return &Synthesizer{Jobs: fakeJobs{
		jobs: map[string]models.Job{
			"job-42": {ID: "job-42", ClientID: "me", ClientName: "Me"},
			"job-99": {ID: "job-99", ClientID: "me"},
			"job-7":  {ID: "job-7", ClientID: "c1", ClientName: "Carla"},
			"job-8":  {ID: "job-8", ClientID: "t1", OrgID: "o1", OrgName: "Acme", OrgLogo: "acme.png"},
		},
		proposals: map[string]models.Proposal{
			"job-42": {ID: "p1", JobID: "job-42", FreelancerID: "F7", FreelancerName: "Fiona", Status: models.ProposalAccepted},
			"job-8":  {ID: "p2", JobID: "job-8", FreelancerID: "F8", Status: models.ProposalAccepted},
		},
	}}
}

func TestSynthesizeClientFindsHiredFreelancer(t *testing.T) {
	conv, err := newSynth().Synthesize(context.Background(), "job-42", "", identity.NewPersonal("me"))
	require.NoError(t, err)
	require.Equal(t, "F7", conv.CounterpartyID)
	require.Equal(t, "Fiona", conv.CounterpartyName)
	require.Equal(t, Placeholder, conv.LastMessage)
	require.Zero(t, conv.UnreadCount)
	require.True(t, conv.Synthesized)
}

func TestSynthesizeWithoutAcceptedProposalFails(t *testing.T) {
	_, err := newSynth().Synthesize(context.Background(), "job-99", "", identity.NewPersonal("me"))
	require.ErrorIs(t, err, ErrNoCounterparty)
}

func TestSynthesizeFreelancerTalksToClient(t *testing.T) {
	conv, err := newSynth().Synthesize(context.Background(), "job-7", "", identity.NewPersonal("f"))
	require.NoError(t, err)
	require.Equal(t, "c1", conv.CounterpartyID)
	require.Equal(t, "Carla", conv.CounterpartyName)

	conv, err = newSynth().Synthesize(context.Background(), "job-8", "", identity.NewPersonal("f"))
	require.NoError(t, err)
	require.Equal(t, "t1", conv.CounterpartyID)
	require.Equal(t, "Acme", conv.CounterpartyName)
	require.Equal(t, "acme.png", conv.CounterpartyAvatar)
	require.True(t, conv.IsOrganization)
}

func TestSynthesizeOrganizationalClientSide(t *testing.T) {
	scope := identity.NewOrganizational("t2", "o1", "Acme", []string{"t1", "t2"})
	conv, err := newSynth().Synthesize(context.Background(), "job-8", "", scope)
	require.NoError(t, err)
	require.Equal(t, "F8", conv.CounterpartyID)
	require.Equal(t, identity.LabelFreelancer, conv.CounterpartyName)
	require.True(t, conv.IsOrganization)
	require.Equal(t, "Acme", conv.OrganizationName)
}

func TestSynthesizeHonoursHint(t *testing.T) {
	conv, err := newSynth().Synthesize(context.Background(), "job-42", "F7", identity.NewPersonal("me"))
	require.NoError(t, err)
	require.Equal(t, "F7", conv.CounterpartyID)
	require.Equal(t, "Fiona", conv.CounterpartyName)

	// unknown job, hint still yields a placeholder
	conv, err = newSynth().Synthesize(context.Background(), "job-nope", "zed", identity.NewPersonal("me"))
	require.NoError(t, err)
	require.Equal(t, "zed", conv.CounterpartyID)
	require.Equal(t, identity.LabelUser, conv.CounterpartyName)
}

func TestSynthesizeUnknownJobWithoutHint(t *testing.T) {
	_, err := newSynth().Synthesize(context.Background(), "job-nope", "", identity.NewPersonal("me"))
	require.ErrorIs(t, err, ErrNoCounterparty)
}
