package conversations

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ageniuscoder/gigchat/internal/httpx"
	"github.com/ageniuscoder/gigchat/internal/storage"
)

type Service struct {
	Store *storage.Store
}

func Register(rg *gin.RouterGroup, st *storage.Store) {
	s := Service{
		Store: st,
	}
	rg.GET("/conversations", s.listMine)
	rg.POST("/conversations/:thread/read", s.markRead)
}

// listMine returns one summary per thread plus, under an organization, the
// member ids the client resolves counterparties with.
func (s Service) listMine(c *gin.Context) {
	listing, err := s.Store.ListConversations(c.Request.Context(), httpx.Viewer(c))
	if err != nil {
		httpx.Fail(c, err, "organization")
		return
	}
	httpx.OK(c, listing)
}

func (s Service) markRead(c *gin.Context) {
	ctx := c.Request.Context()
	v := httpx.Viewer(c)
	thread := c.Param("thread")
	ok, err := s.Store.CanView(ctx, thread, v)
	if err != nil {
		httpx.Fail(c, err, "thread")
		return
	}
	if !ok {
		httpx.Err(c, http.StatusForbidden, "forbidden")
		return
	}
	if err := s.Store.MarkRead(ctx, v, thread); err != nil {
		httpx.Fail(c, err, "thread")
		return
	}
	c.Status(http.StatusNoContent)
}
