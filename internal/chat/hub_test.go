package chat

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/storage"
)

const secret = "test-secret"

// allowList lets user u into the threads listed for it.
type allowList map[string][]string

func (a allowList) CanView(_ context.Context, threadKey string, v storage.Viewer) (bool, error) {
	for _, k := range a[v.UserID] {
		if k == threadKey {
			return true, nil
		}
	}
	return false, nil
}

func startHub(t *testing.T, a Authorizer) (*Hub, string, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(a, metrics.New(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	RegisterWS(r.Group("/api"), hub, secret)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws", cancel
}

func dial(t *testing.T, url, user string) *websocket.Conn {
	t.Helper()
	tok, err := auth.NewToken(secret, user, 5)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+tok, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) models.PushEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.PushEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestRejectsMissingOrBadToken(t *testing.T) {
	_, url, _ := startHub(t, allowList{})
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.Equal(t, 401, resp.StatusCode)
}

func TestSubscribeAndFanOut(t *testing.T) {
	hub, url, _ := startHub(t, allowList{"u1": {"job-1"}, "u2": {"job-1", "job-2"}})
	c1 := dial(t, url, "u1")
	c2 := dial(t, url, "u2")

	require.NoError(t, c1.WriteJSON(models.SubscribeFrame{Type: "subscribe", ThreadKey: "job-1"}))
	require.Equal(t, models.EventSubscribed, next(t, c1).Type)
	require.NoError(t, c1.WriteJSON(models.SubscribeFrame{Type: "subscribe", ThreadKey: "job-2"}))
	ev := next(t, c1)
	require.Equal(t, models.EventError, ev.Type)
	require.Equal(t, "forbidden", ev.Error)

	require.NoError(t, c2.WriteJSON(models.SubscribeFrame{Type: "subscribe", ThreadKey: "job-2"}))
	require.Equal(t, models.EventSubscribed, next(t, c2).Type)

	hub.MessageCreated(models.Message{ID: "m1", ThreadKey: "job-1", Content: "hi"})
	hub.MessageCreated(models.Message{ID: "m2", ThreadKey: "job-2", Content: "yo"})

	ev = next(t, c1)
	require.Equal(t, models.EventMessage, ev.Type)
	require.Equal(t, "m1", ev.Message.ID)

	ev = next(t, c2)
	require.Equal(t, "m2", ev.Message.ID)

	hub.MessageDeleted("job-2", "m2")
	ev = next(t, c2)
	require.Equal(t, models.EventMessageDeleted, ev.Type)
	require.Equal(t, "m2", ev.MessageID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub, url, _ := startHub(t, allowList{"u1": {"job-1", "job-2"}})
	c := dial(t, url, "u1")
	for _, k := range []string{"job-1", "job-2"} {
		require.NoError(t, c.WriteJSON(models.SubscribeFrame{Type: "subscribe", ThreadKey: k}))
		require.Equal(t, models.EventSubscribed, next(t, c).Type)
	}
	require.NoError(t, c.WriteJSON(models.SubscribeFrame{Type: "unsubscribe", ThreadKey: "job-1"}))
	require.Equal(t, models.EventUnsubscribed, next(t, c).Type)

	hub.MessageCreated(models.Message{ID: "m1", ThreadKey: "job-1"})
	hub.MessageCreated(models.Message{ID: "m2", ThreadKey: "job-2"})
	require.Equal(t, "m2", next(t, c).Message.ID)
}

func TestMalformedFrameGetsError(t *testing.T) {
	_, url, _ := startHub(t, allowList{})
	c := dial(t, url, "u1")
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("{")))
	require.Equal(t, models.EventError, next(t, c).Type)
}

func TestStopClosesConnections(t *testing.T) {
	hub, url, cancel := startHub(t, allowList{})
	c := dial(t, url, "u1")
	require.NoError(t, c.WriteJSON(models.SubscribeFrame{Type: "nope", ThreadKey: "x"}))
	require.Equal(t, models.EventError, next(t, c).Type)

	cancel()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := c.ReadMessage()
	require.Error(t, err)

	// publishing to a stopped hub returns
	hub.MessageCreated(models.Message{ID: "m1", ThreadKey: "job-1"})
}
