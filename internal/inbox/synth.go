package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ageniuscoder/gigchat/internal/identity"
	"github.com/ageniuscoder/gigchat/internal/models"
)

// Placeholder is the preview text of a synthesized conversation.
const Placeholder = "Start a conversation…"

var ErrNoCounterparty = errors.New("inbox: no counterparty for thread")

// JobLookup is the job/proposal collaborator consulted during synthesis.
type JobLookup interface {
	LookupJob(ctx context.Context, threadKey string) (models.Job, error)
	AcceptedProposal(ctx context.Context, threadKey string) (models.Proposal, error)
}

// Synthesizer materializes placeholder conversations for deep links to
// threads that have no backend record yet.
type Synthesizer struct {
	Jobs JobLookup
	Log  *slog.Logger
}

// Synthesize builds a placeholder for threadKey. hint, when set, names the
// counterparty directly. ErrNoCounterparty is returned when nobody can be
// determined; lookup failures are reported the same way.
func (s *Synthesizer) Synthesize(ctx context.Context, threadKey, hint string, scope identity.Scope) (models.Conversation, error) {
	job, err := s.Jobs.LookupJob(ctx, threadKey)
	if err != nil {
		if hint == "" {
			s.logger().Debug("job lookup failed", "thread", threadKey, "err", err)
			return models.Conversation{}, fmt.Errorf("%w: %v", ErrNoCounterparty, err)
		}
		job = models.Job{ID: threadKey}
	}

	viewerIsClient := job.ClientID != "" && (job.ClientID == scope.ViewerID ||
		(scope.Kind == identity.Organizational && (scope.IsMember(job.ClientID) || (job.OrgID != "" && job.OrgID == scope.OrgID))))

	conv := models.Conversation{
		ThreadKey:   threadKey,
		LastMessage: Placeholder,
		Synthesized: true,
	}

	switch {
	case hint != "":
		conv.CounterpartyID = hint
		conv.CounterpartyName = identity.LabelUser
		if hint == job.ClientID {
			s.fillClient(&conv, job)
		} else if p, err := s.Jobs.AcceptedProposal(ctx, threadKey); err == nil && p.FreelancerID == hint {
			fillFreelancer(&conv, p)
		}
	case viewerIsClient:
		p, err := s.Jobs.AcceptedProposal(ctx, threadKey)
		if err != nil || p.FreelancerID == "" {
			s.logger().Debug("no accepted proposal", "thread", threadKey, "err", err)
			return models.Conversation{}, ErrNoCounterparty
		}
		conv.CounterpartyID = p.FreelancerID
		fillFreelancer(&conv, p)
	case job.ClientID != "":
		conv.CounterpartyID = job.ClientID
		s.fillClient(&conv, job)
	default:
		return models.Conversation{}, ErrNoCounterparty
	}

	if viewerIsClient && scope.Kind == identity.Organizational {
		conv.IsOrganization = true
		conv.OrganizationName = scope.OrgName
		if job.OrgName != "" {
			conv.OrganizationName = job.OrgName
		}
	}
	return conv, nil
}

func (s *Synthesizer) fillClient(conv *models.Conversation, job models.Job) {
	conv.CounterpartyName = nameOr(job.ClientName, identity.LabelUser)
	conv.CounterpartyAvatar = job.ClientAvatar
	if job.OrgID != "" {
		conv.IsOrganization = true
		conv.OrganizationName = job.OrgName
		conv.CounterpartyName = nameOr(job.OrgName, conv.CounterpartyName)
		if job.OrgLogo != "" {
			conv.CounterpartyAvatar = job.OrgLogo
		}
	}
}

func fillFreelancer(conv *models.Conversation, p models.Proposal) {
	conv.CounterpartyName = nameOr(p.FreelancerName, identity.LabelFreelancer)
	conv.CounterpartyAvatar = p.FreelancerAvatar
}

func (s *Synthesizer) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func nameOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}
