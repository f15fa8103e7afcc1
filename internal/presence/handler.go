package presence

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/httpx"
	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/storage"
)

// Access is the part of the storage layer the typing endpoints consult.
type Access interface {
	CanView(ctx context.Context, threadKey string, v storage.Viewer) (bool, error)
	CanViewAny(ctx context.Context, threadKey, userID string) (bool, error)
	Participants(ctx context.Context, v storage.Viewer) ([]string, error)
}

type Service struct {
	Typing  Store
	Access  Access
	Metrics *metrics.Metrics
}

func Register(rg *gin.RouterGroup, st Store, access Access, m *metrics.Metrics) {
	s := Service{
		Typing:  st,
		Access:  access,
		Metrics: m,
	}
	rg.POST("/typing/:thread", s.signal)
	rg.GET("/typing/:thread", s.poll)
}

func (s Service) signal(c *gin.Context) {
	ctx := c.Request.Context()
	uid := auth.MustUserID(c)
	thread := c.Param("thread")
	ok, err := s.Access.CanViewAny(ctx, thread, uid)
	if err != nil {
		httpx.Fail(c, err, "thread")
		return
	}
	if !ok {
		httpx.Err(c, http.StatusForbidden, "forbidden")
		return
	}
	if err := s.Typing.Mark(ctx, thread, uid); err != nil {
		slog.Warn("typing mark failed", "thread", thread, "err", err)
		httpx.Err(c, http.StatusServiceUnavailable, "typing store unavailable")
		return
	}
	if s.Metrics != nil {
		s.Metrics.TypingMarks.Inc()
	}
	c.Status(http.StatusNoContent)
}

// poll answers whether the other side is typing. The viewer and, under an
// organization, its teammates are not the other side.
func (s Service) poll(c *gin.Context) {
	ctx := c.Request.Context()
	v := httpx.Viewer(c)
	thread := c.Param("thread")
	ok, err := s.Access.CanView(ctx, thread, v)
	if err != nil {
		httpx.Fail(c, err, "thread")
		return
	}
	if !ok {
		httpx.Err(c, http.StatusForbidden, "forbidden")
		return
	}
	self, err := s.Access.Participants(ctx, v)
	if err != nil {
		httpx.Fail(c, err, "organization")
		return
	}
	typing, err := s.Typing.Typing(ctx, thread, self)
	if err != nil {
		slog.Warn("typing poll failed", "thread", thread, "err", err)
		typing = false
	}
	httpx.OK(c, gin.H{"typing": typing})
}
