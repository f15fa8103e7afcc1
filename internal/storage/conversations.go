package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/ageniuscoder/gigchat/internal/models"
)

// ListConversations summarizes every thread visible to v by its latest
// message. Under an organization, threads of the organization's jobs and
// messages sent on its behalf are listed; personally, threads of jobs owned
// by one of the user's organizations are left to that organization's list.
func (s *Store) ListConversations(ctx context.Context, v Viewer) (models.Listing, error) {
	ids, err := s.Participants(ctx, v)
	if err != nil {
		return models.Listing{}, err
	}
	in := placeholders(len(ids))
	args := append(stringArgs(ids), stringArgs(ids)...)

	q := `SELECT m.thread_key, m.sender_id, m.receiver_id, m.content, m.created_at
		FROM messages m LEFT JOIN jobs j ON j.id = m.thread_key
		WHERE (m.sender_id IN (` + in + `) OR m.receiver_id IN (` + in + `))`
	if v.OrgID != "" {
		q += ` AND (j.org_id = ? OR m.org_id = ?)`
		args = append(args, v.OrgID, v.OrgID)
	} else {
		q += ` AND (j.org_id IS NULL OR j.org_id NOT IN (SELECT org_id FROM org_members WHERE user_id = ?))`
		args = append(args, v.UserID)
	}
	q += ` ORDER BY m.thread_key, m.created_at DESC, m.id DESC`

	reads, err := s.readMarkers(ctx, v.UserID)
	if err != nil {
		return models.Listing{}, err
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return models.Listing{}, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	byThread := map[string]*models.RawConversation{}
	var order []string
	for rows.Next() {
		var (
			key, sender, receiver, content string
			created                        int64
		)
		if err := rows.Scan(&key, &sender, &receiver, &content, &created); err != nil {
			return models.Listing{}, err
		}
		rc, ok := byThread[key]
		if !ok {
			rc = &models.RawConversation{
				ThreadKey:     key,
				SenderID:      sender,
				ReceiverID:    receiver,
				LastMessage:   content,
				LastMessageAt: fromMillis(created),
			}
			byThread[key] = rc
			order = append(order, key)
		}
		if contains(ids, receiver) && !contains(ids, sender) && created > reads[key] {
			rc.UnreadCount++
		}
	}
	if err := rows.Err(); err != nil {
		return models.Listing{}, err
	}
	rows.Close()

	if err := s.decorate(ctx, byThread, order); err != nil {
		return models.Listing{}, err
	}

	out := models.Listing{Conversations: make([]models.RawConversation, 0, len(order))}
	for _, key := range order {
		out.Conversations = append(out.Conversations, *byThread[key])
	}
	sort.SliceStable(out.Conversations, func(i, j int) bool {
		return out.Conversations[i].LastMessageAt.After(out.Conversations[j].LastMessageAt)
	})
	if v.OrgID != "" {
		out.MemberIDs = ids
	}
	return out, nil
}

func (s *Store) readMarkers(ctx context.Context, userID string) (map[string]int64, error) {
	rows, err := s.query(ctx, `SELECT thread_key, read_at FROM thread_reads WHERE user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var key string
		var at int64
		if err := rows.Scan(&key, &at); err != nil {
			return nil, err
		}
		out[key] = at
	}
	return out, rows.Err()
}

// decorate attaches sender/receiver profiles and the owning organization of
// each thread's job.
func (s *Store) decorate(ctx context.Context, byThread map[string]*models.RawConversation, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	seen := map[string]bool{}
	var userIDs []string
	for _, rc := range byThread {
		for _, id := range []string{rc.SenderID, rc.ReceiverID} {
			if !seen[id] {
				seen[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}
	profiles, err := s.Profiles(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	rows, err := s.query(ctx, `SELECT j.id, j.client_id, o.id, o.name, o.logo
		FROM jobs j JOIN orgs o ON o.id = j.org_id
		WHERE j.id IN (`+placeholders(len(keys))+`)`, stringArgs(keys)...)
	if err != nil {
		return fmt.Errorf("load job orgs: %w", err)
	}
	defer rows.Close()
	orgs := map[string]*models.OrgMeta{}
	for rows.Next() {
		var jobID string
		var o models.OrgMeta
		if err := rows.Scan(&jobID, &o.OwnerID, &o.ID, &o.Name, &o.Logo); err != nil {
			return err
		}
		orgs[jobID] = &o
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for key, rc := range byThread {
		if p, ok := profiles[rc.SenderID]; ok {
			rc.Sender = &p
		}
		if p, ok := profiles[rc.ReceiverID]; ok {
			rc.Receiver = &p
		}
		rc.Org = orgs[key]
	}
	return nil
}
