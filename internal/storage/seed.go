package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ageniuscoder/gigchat/internal/models"
)

// Fixture is the seed document loaded by `gigchat -seed`.
type Fixture struct {
	Users     []models.Profile  `json:"users"`
	Orgs      []FixtureOrg      `json:"orgs"`
	Jobs      []FixtureJob      `json:"jobs"`
	Proposals []models.Proposal `json:"proposals"`
	Messages  []models.Message  `json:"messages"`
}

type FixtureOrg struct {
	models.OrgMeta
	Members []string `json:"members"`
}

type FixtureJob struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ClientID string `json:"client_id"`
	OrgID    string `json:"org_id,omitempty"`
}

func DecodeFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// Seed writes f in one transaction. Existing rows with the same ids are
// left untouched.
func (s *Store) Seed(ctx context.Context, f Fixture) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exec := func(q string, args ...any) error {
		_, err := tx.ExecContext(ctx, Rebind(s.Dialect, q), args...)
		return err
	}

	for _, u := range f.Users {
		if err := exec(`INSERT INTO users (id, name, avatar) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Name, u.Avatar); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, o := range f.Orgs {
		if err := exec(`INSERT INTO orgs (id, name, logo, owner_id) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			o.ID, o.Name, o.Logo, o.OwnerID); err != nil {
			return fmt.Errorf("seed org %s: %w", o.ID, err)
		}
		for _, uid := range o.Members {
			if err := exec(`INSERT INTO org_members (org_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
				o.ID, uid); err != nil {
				return fmt.Errorf("seed member %s/%s: %w", o.ID, uid, err)
			}
		}
	}
	for _, j := range f.Jobs {
		var org any
		if j.OrgID != "" {
			org = j.OrgID
		}
		if err := exec(`INSERT INTO jobs (id, title, client_id, org_id) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			j.ID, j.Title, j.ClientID, org); err != nil {
			return fmt.Errorf("seed job %s: %w", j.ID, err)
		}
	}
	for _, p := range f.Proposals {
		if err := exec(`INSERT INTO proposals (id, job_id, freelancer_id, status) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.JobID, p.FreelancerID, p.Status); err != nil {
			return fmt.Errorf("seed proposal %s: %w", p.ID, err)
		}
	}
	for _, m := range f.Messages {
		at := m.CreatedAt
		if at.IsZero() {
			at = time.Now()
		}
		if err := exec(`INSERT INTO messages
			(id, thread_key, sender_id, receiver_id, content, created_at, parent_id, starred, org_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			m.ID, m.ThreadKey, m.SenderID, m.ReceiverID, m.Content, toMillis(at), m.ParentID, boolInt(m.Starred), m.OrgID); err != nil {
			return fmt.Errorf("seed message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}
