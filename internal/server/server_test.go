package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/chat"
	"github.com/ageniuscoder/gigchat/internal/messages"
	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/presence"
	"github.com/ageniuscoder/gigchat/internal/storage/storagetest"
)

const secret = "test-secret"

type recorder struct {
	created []models.Message
	deleted []string
}

func (r *recorder) MessageCreated(m models.Message)    { r.created = append(r.created, m) }
func (r *recorder) MessageDeleted(_ string, id string) { r.deleted = append(r.deleted, id) }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := storagetest.New(t)
	m := metrics.New()
	hub := chat.NewHub(st, m, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewRouter(Deps{
		Store:     st,
		Hub:       hub,
		Typing:    presence.NewMemoryStore(5 * time.Second),
		Metrics:   m,
		JWTSecret: secret,
	})
}

func call(t *testing.T, r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		tok, err := auth.NewToken(secret, user, 5)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndMetricsNeedNoAuth(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/health", "", nil).Code)
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/metrics", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized, call(t, r, http.MethodGet, "/api/me", "", nil).Code)
}

func TestMe(t *testing.T) {
	r := newTestRouter(t)
	w := call(t, r, http.MethodGet, "/api/me", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Cora", decode[models.Profile](t, w).Name)

	require.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, "/api/me", "ghost", nil).Code)
}

func TestConversationListingAndRead(t *testing.T) {
	r := newTestRouter(t)
	w := call(t, r, http.MethodGet, "/api/conversations?org_id=o1", "a1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	l := decode[models.Listing](t, w)
	require.Equal(t, []string{"a1", "a2"}, l.MemberIDs)
	require.Len(t, l.Conversations, 1)
	require.Equal(t, 1, l.Conversations[0].UnreadCount)

	require.Equal(t, http.StatusForbidden, call(t, r, http.MethodGet, "/api/conversations?org_id=o1", "x1", nil).Code)

	require.Equal(t, http.StatusNoContent, call(t, r, http.MethodPost, "/api/conversations/job-org/read?org_id=o1", "a1", nil).Code)
	l = decode[models.Listing](t, call(t, r, http.MethodGet, "/api/conversations?org_id=o1", "a1", nil))
	require.Zero(t, l.Conversations[0].UnreadCount)

	require.Equal(t, http.StatusForbidden, call(t, r, http.MethodPost, "/api/conversations/job-1/read", "x1", nil).Code)
}

func TestMessageLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := storagetest.New(t)
	rec := &recorder{}
	r := gin.New()
	api := r.Group("/api", auth.JWTMiddleware(secret))
	messages.Register(api, st, rec, nil)

	w := call(t, r, http.MethodGet, "/api/conversations/job-1/messages", "f1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[struct{ Messages []models.Message }](t, w)
	require.Len(t, snap.Messages, 2)
	require.Equal(t, "m1", snap.Messages[0].ID)

	require.Equal(t, http.StatusForbidden, call(t, r, http.MethodGet, "/api/conversations/job-1/messages", "x1", nil).Code)

	send := models.SendRequest{ID: "c-9", ThreadKey: "job-1", ReceiverID: "c1", Content: "done", ParentID: "m1"}
	w = call(t, r, http.MethodPost, "/api/messages", "f1", send)
	require.Equal(t, http.StatusCreated, w.Code)
	sent := decode[struct{ Message models.Message }](t, w).Message
	require.Equal(t, "c-9", sent.ID)
	require.Equal(t, "m1", sent.ParentID)
	require.Len(t, rec.created, 1)

	// retry of the same id is not stored or published twice
	w = call(t, r, http.MethodPost, "/api/messages", "f1", send)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, rec.created, 1)

	w = call(t, r, http.MethodPost, "/api/messages", "f1", models.SendRequest{ThreadKey: "job-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "This field is required.")

	w = call(t, r, http.MethodPost, "/api/messages/c-9/star", "c1", map[string]bool{"starred": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decode[struct{ Message models.Message }](t, w).Message.Starred)
	require.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPost, "/api/messages/c-9/star", "c1", map[string]string{}).Code)

	require.Equal(t, http.StatusForbidden, call(t, r, http.MethodDelete, "/api/messages/c-9", "c1", nil).Code)
	require.Equal(t, http.StatusOK, call(t, r, http.MethodDelete, "/api/messages/c-9", "f1", nil).Code)
	require.Equal(t, []string{"c-9"}, rec.deleted)
	require.Equal(t, http.StatusNotFound, call(t, r, http.MethodDelete, "/api/messages/c-9", "f1", nil).Code)
}

func TestJobLookups(t *testing.T) {
	r := newTestRouter(t)
	w := call(t, r, http.MethodGet, "/api/jobs/job-org", "f2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	job := decode[struct{ Job models.Job }](t, w).Job
	require.Equal(t, "Acme", job.OrgName)

	w = call(t, r, http.MethodGet, "/api/jobs/job-1/accepted-proposal", "c1", nil)
	require.Equal(t, "f1", decode[struct{ Proposal models.Proposal }](t, w).Proposal.FreelancerID)

	require.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, "/api/jobs/job-99/accepted-proposal", "c1", nil).Code)
	require.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, "/api/jobs/none", "c1", nil).Code)
}
