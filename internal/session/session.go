// Package session ties the conversation index, the message timeline, push
// reconciliation and typing presence together for one signed-in viewer.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ageniuscoder/gigchat/internal/identity"
	"github.com/ageniuscoder/gigchat/internal/inbox"
	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/timeline"
	"github.com/ageniuscoder/gigchat/internal/typing"
)

var (
	ErrNoConversation = errors.New("no conversation selected")
	ErrSendFailed     = errors.New("message not sent")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrStale          = errors.New("session: result superseded")
)

// Backend is the set of boundary calls the session makes.
type Backend interface {
	ListConversations(ctx context.Context, orgID string) (models.Listing, error)
	FetchMessages(ctx context.Context, threadKey, orgID string) ([]models.Message, error)
	SendMessage(ctx context.Context, req models.SendRequest) (models.Message, error)
	StarMessage(ctx context.Context, id string, starred bool) (models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	MarkRead(ctx context.Context, threadKey, orgID string) error
	typing.Backend
	inbox.JobLookup
}

// Subscriber opens the push channel of a thread. The returned channel is
// closed when ctx is done or the transport drops.
type Subscriber interface {
	Subscribe(ctx context.Context, threadKey, orgID string) (<-chan models.PushEvent, error)
}

type Session struct {
	backend Backend
	push    Subscriber
	scope   *identity.Switch
	index   *inbox.Index
	synth   *inbox.Synthesizer
	store   *timeline.Store
	signal  *typing.Signaler
	poller  *typing.Poller
	log     *slog.Logger

	newID func() string
	now   func() time.Time

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	listGen    uint64
	selected   string
	closeOpen  context.CancelFunc
	peerTyping bool
}

func New(b Backend, push Subscriber, scope *identity.Switch, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	root, cancel := context.WithCancel(context.Background())
	return &Session{
		backend: b,
		push:    push,
		scope:   scope,
		index:   inbox.NewIndex(),
		synth:   &inbox.Synthesizer{Jobs: b, Log: log.With("component", "synth")},
		store:   timeline.NewStore(log),
		signal:  typing.NewSignaler(b, log),
		poller:  typing.NewPoller(b, log),
		log:     log.With("component", "session"),
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
		root:    root,
		cancel:  cancel,
	}
}

// Scope returns the active identity scope.
func (s *Session) Scope() identity.Scope {
	return s.scope.Current()
}

// Refresh reloads the conversation index. A result that arrives after ctx
// is done, after a newer Refresh started, or after a scope switch is
// dropped with ErrStale. On error the index keeps its previous contents.
func (s *Session) Refresh(ctx context.Context) ([]models.Conversation, error) {
	s.mu.Lock()
	s.listGen++
	gen := s.listGen
	s.mu.Unlock()

	scope := s.scope.Current()
	listing, err := s.backend.ListConversations(ctx, scope.FetchOrgID())
	if err != nil {
		s.log.Warn("conversation list failed", "err", err)
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	s.mu.Lock()
	current := gen == s.listGen
	s.mu.Unlock()
	if !current || ctx.Err() != nil {
		return nil, ErrStale
	}

	if scope.Kind == identity.Organizational {
		s.scope.UpdateMembers(scope.OrgID, listing.MemberIDs)
	}
	now := s.scope.Current()
	if now.Kind != scope.Kind || now.OrgID != scope.OrgID {
		return nil, ErrStale
	}
	return s.index.Load(listing.Conversations, now), nil
}

// SwitchScope makes next the active scope, closes the open conversation and
// rebuilds the index from scratch.
func (s *Session) SwitchScope(ctx context.Context, next identity.Scope) ([]models.Conversation, error) {
	s.scope.Set(next)
	s.closeConversation()
	s.index.Reset()
	return s.Refresh(ctx)
}

// Conversations returns the index entries.
func (s *Session) Conversations() []models.Conversation {
	return s.index.List()
}

// Select opens threadKey, synthesizing a placeholder when the index has no
// entry for it. hint optionally names the counterparty. When no placeholder
// can be built the selection is cleared and ErrNoConversation returned.
func (s *Session) Select(ctx context.Context, threadKey, hint string) (models.Conversation, error) {
	scope := s.scope.Current()
	conv, ok := s.index.Get(threadKey)
	if !ok {
		var err error
		conv, err = s.synth.Synthesize(ctx, threadKey, hint, scope)
		if err != nil {
			s.closeConversation()
			return models.Conversation{}, fmt.Errorf("%w: %v", ErrNoConversation, err)
		}
		s.index.Upsert(conv)
	}
	s.open(ctx, conv.ThreadKey)
	return conv, nil
}

// Selected returns the open thread key, empty when none.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) open(ctx context.Context, threadKey string) {
	openCtx, cancel := context.WithCancel(s.root)

	s.mu.Lock()
	if s.closeOpen != nil {
		s.closeOpen()
	}
	s.selected = threadKey
	s.closeOpen = cancel
	s.peerTyping = false
	s.mu.Unlock()

	s.store.Open(threadKey)
	s.index.MarkRead(threadKey)
	orgID := s.scope.Current().FetchOrgID()

	// Subscribe before the snapshot so nothing falls between the two.
	if s.push != nil {
		events, err := s.push.Subscribe(openCtx, threadKey, orgID)
		if err != nil {
			s.log.Warn("push subscribe failed", "thread", threadKey, "err", err)
		} else {
			s.wg.Add(1)
			go s.follow(threadKey, events)
		}
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.backend.MarkRead(openCtx, threadKey, orgID); err != nil {
			s.log.Debug("mark read failed", "thread", threadKey, "err", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.poller.Run(openCtx, threadKey, func() string { return s.scope.Current().FetchOrgID() }, func(v bool) {
			s.setPeerTyping(threadKey, v)
		})
	}()

	loadCtx, stop := mergeCancel(ctx, openCtx)
	defer stop()
	if _, err := s.store.LoadSnapshot(loadCtx, s.backend, threadKey, orgID); err != nil {
		s.log.Warn("snapshot load failed", "thread", threadKey, "err", err)
	}
}

// Reload re-fetches the open conversation's snapshot.
func (s *Session) Reload(ctx context.Context) error {
	threadKey := s.Selected()
	if threadKey == "" {
		return ErrNoConversation
	}
	_, err := s.store.LoadSnapshot(ctx, s.backend, threadKey, s.scope.Current().FetchOrgID())
	return err
}

// Deselect closes the open conversation.
func (s *Session) Deselect() {
	s.closeConversation()
}

func (s *Session) closeConversation() {
	s.mu.Lock()
	if s.closeOpen != nil {
		s.closeOpen()
		s.closeOpen = nil
	}
	s.selected = ""
	s.peerTyping = false
	s.mu.Unlock()
	s.store.Close()
}

func (s *Session) follow(threadKey string, events <-chan models.PushEvent) {
	defer s.wg.Done()
	for ev := range events {
		if ev.ThreadKey != "" && ev.ThreadKey != threadKey {
			continue
		}
		switch ev.Type {
		case models.EventMessage:
			if ev.Message == nil {
				continue
			}
			if s.store.Reconcile([]models.Message{*ev.Message}) > 0 {
				s.touchFromTimeline(threadKey)
			}
		case models.EventMessageDeleted:
			if s.store.Remove(ev.MessageID) {
				s.touchFromTimeline(threadKey)
			}
		}
	}
}

func (s *Session) touchFromTimeline(threadKey string) {
	msgs := s.store.Messages()
	if len(msgs) == 0 || s.store.ThreadKey() != threadKey {
		return
	}
	last := msgs[len(msgs)-1]
	s.index.TouchLastMessage(threadKey, last.Content, last.CreatedAt)
}

// Timeline returns the open conversation's messages in order.
func (s *Session) Timeline() []models.Message {
	return s.store.Messages()
}

// Parent resolves the quoted parent of msg from the loaded timeline.
func (s *Session) Parent(msg models.Message) (models.Message, bool) {
	return s.store.Parent(msg)
}

// Locate returns the timeline index of id for jump-to-original, or -1.
func (s *Session) Locate(id string) int {
	return s.store.Locate(id)
}

// IsMine attributes msg using the scope active right now.
func (s *Session) IsMine(msg models.Message) bool {
	return identity.IsMine(msg, s.scope.Current())
}

// Send inserts content optimistically and reconciles the authoritative copy
// returned by the backend. On failure the optimistic entry is withdrawn unless
// a confirmed copy already replaced it, and the error wraps ErrSendFailed;
// the caller keeps its input.
func (s *Session) Send(ctx context.Context, content, parentID string) (models.Message, error) {
	threadKey := s.Selected()
	if threadKey == "" {
		return models.Message{}, ErrNoConversation
	}
	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyMessage
	}
	conv, _ := s.index.Get(threadKey)
	scope := s.scope.Current()

	pending := models.Message{
		ID:         s.newID(),
		ThreadKey:  threadKey,
		SenderID:   scope.ViewerID,
		ReceiverID: conv.CounterpartyID,
		Content:    content,
		CreatedAt:  s.now(),
		ParentID:   parentID,
		OrgID:      scope.FetchOrgID(),
		Pending:    true,
	}
	s.store.Reconcile([]models.Message{pending})

	m, err := s.backend.SendMessage(ctx, models.SendRequest{
		ID:         pending.ID,
		ThreadKey:  threadKey,
		ReceiverID: pending.ReceiverID,
		Content:    content,
		OrgID:      pending.OrgID,
		ParentID:   parentID,
	})
	if err != nil {
		// the push channel may already have delivered the stored copy
		s.store.RemoveIfPending(pending.ID)
		s.log.Warn("send failed", "thread", threadKey, "err", err)
		return models.Message{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if m.ID != pending.ID {
		s.store.Remove(pending.ID)
	}
	s.store.Reconcile([]models.Message{m})
	s.index.TouchLastMessage(threadKey, m.Content, m.CreatedAt)
	return m, nil
}

// Star sets the starred flag once the backend confirms it.
func (s *Session) Star(ctx context.Context, id string, starred bool) (models.Message, error) {
	m, err := s.backend.StarMessage(ctx, id, starred)
	if err != nil {
		return models.Message{}, fmt.Errorf("star %s: %w", id, err)
	}
	s.store.Reconcile([]models.Message{m})
	return m, nil
}

// Delete removes id locally once the backend confirms the deletion.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteMessage(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if s.store.Remove(id) {
		s.touchFromTimeline(s.Selected())
	}
	return nil
}

// Typing is called on every keystroke; signals are throttled per thread.
func (s *Session) Typing(ctx context.Context) bool {
	threadKey := s.Selected()
	if threadKey == "" {
		return false
	}
	return s.signal.Signal(ctx, threadKey)
}

// PeerTyping reports the last polled typing state of the open conversation.
func (s *Session) PeerTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerTyping
}

func (s *Session) setPeerTyping(threadKey string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == threadKey {
		s.peerTyping = v
	}
}

// Close stops every background activity of the session.
func (s *Session) Close() {
	s.closeConversation()
	s.cancel()
	s.wg.Wait()
	s.signal.Wait()
}

// mergeCancel returns a context carrying a's values that is cancelled when
// either a or b is.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
