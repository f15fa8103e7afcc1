package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ageniuscoder/gigchat/internal/models"
)

func (s *Store) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	err := s.queryRow(ctx, `SELECT id, name, avatar FROM users WHERE id=?`, id).Scan(&p.ID, &p.Name, &p.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// Profiles loads the profiles of ids, skipping unknown ones.
func (s *Store) Profiles(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.query(ctx, `SELECT id, name, avatar FROM users WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Avatar); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (s *Store) GetOrg(ctx context.Context, id string) (models.OrgMeta, error) {
	var o models.OrgMeta
	err := s.queryRow(ctx, `SELECT id, name, logo, owner_id FROM orgs WHERE id=?`, id).Scan(&o.ID, &o.Name, &o.Logo, &o.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	return o, err
}

// MemberIDs returns the members of an organization ordered by id.
func (s *Store) MemberIDs(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.query(ctx, `SELECT user_id FROM org_members WHERE org_id=? ORDER BY user_id`, orgID)
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

func (s *Store) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(1) FROM org_members WHERE org_id=? AND user_id=?`, orgID, userID).Scan(&n)
	return n > 0, err
}

// GetJob returns the job behind a thread key with client and org display data.
func (s *Store) GetJob(ctx context.Context, id string) (models.Job, error) {
	var (
		j     models.Job
		orgID sql.NullString
	)
	err := s.queryRow(ctx, `
		SELECT j.id, j.title, j.client_id, u.name, u.avatar, j.org_id
		FROM jobs j JOIN users u ON u.id = j.client_id
		WHERE j.id=?`, id).Scan(&j.ID, &j.Title, &j.ClientID, &j.ClientName, &j.ClientAvatar, &orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return j, ErrNotFound
	}
	if err != nil {
		return j, fmt.Errorf("get job %s: %w", id, err)
	}
	if orgID.Valid && orgID.String != "" {
		org, err := s.GetOrg(ctx, orgID.String)
		if err != nil {
			return j, fmt.Errorf("get job %s org: %w", id, err)
		}
		j.OrgID, j.OrgName, j.OrgLogo = org.ID, org.Name, org.Logo
	}
	return j, nil
}

// AcceptedProposal returns the accepted proposal of a job, ErrNotFound when
// none is accepted.
func (s *Store) AcceptedProposal(ctx context.Context, jobID string) (models.Proposal, error) {
	var p models.Proposal
	err := s.queryRow(ctx, `
		SELECT p.id, p.job_id, p.freelancer_id, u.name, u.avatar, p.status
		FROM proposals p JOIN users u ON u.id = p.freelancer_id
		WHERE p.job_id=? AND p.status=?
		ORDER BY p.id LIMIT 1`, jobID, models.ProposalAccepted).
		Scan(&p.ID, &p.JobID, &p.FreelancerID, &p.FreelancerName, &p.FreelancerAvatar, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}
