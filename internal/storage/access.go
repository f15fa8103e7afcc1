package storage

import (
	"context"
	"errors"
	"fmt"
)

// Viewer is the identity a request acts as: a user alone, or a user acting
// for one of its organizations.
type Viewer struct {
	UserID string
	OrgID  string
}

// Participants returns the ids whose messages the viewer sees: the user, or
// every member of the organization. ErrForbidden when the user is not a
// member of OrgID.
func (s *Store) Participants(ctx context.Context, v Viewer) ([]string, error) {
	if v.OrgID == "" {
		return []string{v.UserID}, nil
	}
	ok, err := s.IsMember(ctx, v.OrgID, v.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.MemberIDs(ctx, v.OrgID)
}

// CanView reports whether v may read threadKey. Access comes from the job
// (its client, its accepted freelancer, or its owning organization) or from
// having taken part in the thread.
func (s *Store) CanView(ctx context.Context, threadKey string, v Viewer) (bool, error) {
	ids, err := s.Participants(ctx, v)
	if errors.Is(err, ErrForbidden) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	job, err := s.GetJob(ctx, threadKey)
	switch {
	case err == nil:
		if v.OrgID != "" && job.OrgID == v.OrgID {
			return true, nil
		}
		if contains(ids, job.ClientID) {
			return true, nil
		}
		p, err := s.AcceptedProposal(ctx, threadKey)
		if err == nil && contains(ids, p.FreelancerID) {
			return true, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return false, err
		}
	case !errors.Is(err, ErrNotFound):
		return false, err
	}

	args := append([]any{threadKey}, stringArgs(ids)...)
	args = append(args, stringArgs(ids)...)
	in := placeholders(len(ids))
	var n int
	err = s.queryRow(ctx, `SELECT COUNT(1) FROM messages WHERE thread_key=? AND
		(sender_id IN (`+in+`) OR receiver_id IN (`+in+`))`, args...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("thread participation: %w", err)
	}
	return n > 0, nil
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// OrgsOf returns the organizations userID belongs to.
func (s *Store) OrgsOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.query(ctx, `SELECT org_id FROM org_members WHERE user_id=? ORDER BY org_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CanViewAny reports whether userID may read threadKey personally or on
// behalf of any of its organizations.
func (s *Store) CanViewAny(ctx context.Context, threadKey, userID string) (bool, error) {
	ok, err := s.CanView(ctx, threadKey, Viewer{UserID: userID})
	if err != nil || ok {
		return ok, err
	}
	orgs, err := s.OrgsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, org := range orgs {
		ok, err := s.CanView(ctx, threadKey, Viewer{UserID: userID, OrgID: org})
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
