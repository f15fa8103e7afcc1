package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ageniuscoder/gigchat/internal/models"
)

const messageCols = `m.id, m.thread_key, m.sender_id, m.receiver_id, m.content, m.created_at,
	m.parent_id, m.starred, m.org_id, COALESCE(o.name, '')`

const messageFrom = `FROM messages m LEFT JOIN orgs o ON o.id = m.org_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(r rowScanner) (models.Message, error) {
	var (
		m       models.Message
		created int64
		starred int
	)
	if err := r.Scan(&m.ID, &m.ThreadKey, &m.SenderID, &m.ReceiverID, &m.Content, &created,
		&m.ParentID, &starred, &m.OrgID, &m.OrgSenderLabel); err != nil {
		return m, err
	}
	m.CreatedAt = fromMillis(created)
	m.Starred = starred != 0
	return m, nil
}

// ThreadMessages returns every message of a thread, oldest first.
func (s *Store) ThreadMessages(ctx context.Context, threadKey string) ([]models.Message, error) {
	rows, err := s.query(ctx, `SELECT `+messageCols+` `+messageFrom+`
		WHERE m.thread_key=? ORDER BY m.created_at, m.id`, threadKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) GetMessage(ctx context.Context, id string) (models.Message, error) {
	m, err := scanMessage(s.queryRow(ctx, `SELECT `+messageCols+` `+messageFrom+` WHERE m.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// InsertMessage stores a message sent by v. The id is the sender's when
// given, so a retried send returns the stored copy instead of duplicating it.
// created reports whether a new row was written.
func (s *Store) InsertMessage(ctx context.Context, v Viewer, req models.SendRequest) (msg models.Message, created bool, err error) {
	if strings.TrimSpace(req.Content) == "" {
		return msg, false, fmt.Errorf("empty content: %w", ErrConflict)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if existing, err := s.GetMessage(ctx, req.ID); err == nil {
		if existing.SenderID != v.UserID || existing.ThreadKey != req.ThreadKey {
			return msg, false, fmt.Errorf("message %s: %w", req.ID, ErrConflict)
		}
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return msg, false, err
	}

	ok, err := s.CanView(ctx, req.ThreadKey, v)
	if err != nil {
		return msg, false, err
	}
	if !ok {
		return msg, false, ErrForbidden
	}
	if _, err := s.GetProfile(ctx, req.ReceiverID); err != nil {
		return msg, false, fmt.Errorf("receiver %s: %w", req.ReceiverID, err)
	}
	if req.ParentID != "" {
		parent, err := s.GetMessage(ctx, req.ParentID)
		if err != nil || parent.ThreadKey != req.ThreadKey {
			// Quotes of unknown messages degrade to plain messages.
			req.ParentID = ""
		}
	}

	_, err = s.exec(ctx, `INSERT INTO messages
		(id, thread_key, sender_id, receiver_id, content, created_at, parent_id, starred, org_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		req.ID, req.ThreadKey, v.UserID, req.ReceiverID, req.Content, toMillis(s.now()), req.ParentID, v.OrgID)
	if err != nil {
		return msg, false, fmt.Errorf("insert message: %w", err)
	}
	msg, err = s.GetMessage(ctx, req.ID)
	return msg, err == nil, err
}

// owns reports whether v may act on m. The sender's side is the sender and,
// for a message sent on behalf of an organization, its members. Unless
// senderOnly, the receiver's side counts too. Under an organization scope
// every member stands in for the user.
func (s *Store) owns(ctx context.Context, v Viewer, m models.Message, senderOnly bool) (bool, error) {
	ids, err := s.Participants(ctx, v)
	if errors.Is(err, ErrForbidden) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if contains(ids, m.SenderID) || (!senderOnly && contains(ids, m.ReceiverID)) {
		return true, nil
	}
	if m.OrgID == "" {
		return false, nil
	}
	return s.IsMember(ctx, m.OrgID, v.UserID)
}

// SetStarred updates the starred flag of a message v is a party to.
func (s *Store) SetStarred(ctx context.Context, v Viewer, id string, starred bool) (models.Message, error) {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return m, err
	}
	ok, err := s.owns(ctx, v, m, false)
	if err != nil {
		return m, err
	}
	if !ok {
		return m, ErrForbidden
	}
	if _, err := s.exec(ctx, `UPDATE messages SET starred=? WHERE id=?`, boolInt(starred), id); err != nil {
		return m, fmt.Errorf("star message: %w", err)
	}
	m.Starred = starred
	return m, nil
}

// DeleteMessage removes a message sent by v and returns it.
func (s *Store) DeleteMessage(ctx context.Context, v Viewer, id string) (models.Message, error) {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return m, err
	}
	ok, err := s.owns(ctx, v, m, true)
	if err != nil {
		return m, err
	}
	if !ok {
		return m, ErrForbidden
	}
	if _, err := s.exec(ctx, `DELETE FROM messages WHERE id=?`, id); err != nil {
		return m, fmt.Errorf("delete message: %w", err)
	}
	return m, nil
}

// MarkRead records that v's user has read threadKey up to now.
func (s *Store) MarkRead(ctx context.Context, v Viewer, threadKey string) error {
	_, err := s.exec(ctx, `INSERT INTO thread_reads (thread_key, user_id, read_at) VALUES (?, ?, ?)
		ON CONFLICT (thread_key, user_id) DO UPDATE SET read_at = excluded.read_at`,
		threadKey, v.UserID, toMillis(s.now()))
	return err
}
