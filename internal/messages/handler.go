package messages

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/httpx"
	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/storage"
	"github.com/ageniuscoder/gigchat/internal/utils"
)

// Publisher fans message changes out to push subscribers.
type Publisher interface {
	MessageCreated(m models.Message)
	MessageDeleted(threadKey, id string)
}

type Service struct {
	Store   *storage.Store
	Hub     Publisher
	Metrics *metrics.Metrics
}

type starReq struct {
	Starred *bool `json:"starred" binding:"required"`
}

func Register(rg *gin.RouterGroup, st *storage.Store, hub Publisher, m *metrics.Metrics) {
	s := Service{
		Store:   st,
		Hub:     hub,
		Metrics: m,
	}
	rg.GET("/conversations/:thread/messages", s.list)
	rg.POST("/messages", s.send)
	rg.POST("/messages/:id/star", s.star)
	rg.DELETE("/messages/:id", s.remove)
}

func (s Service) list(c *gin.Context) {
	ctx := c.Request.Context()
	thread := c.Param("thread")
	ok, err := s.Store.CanView(ctx, thread, httpx.Viewer(c))
	if err != nil {
		httpx.Fail(c, err, "thread")
		return
	}
	if !ok {
		httpx.Err(c, http.StatusForbidden, "not a participant")
		return
	}
	msgs, err := s.Store.ThreadMessages(ctx, thread)
	if err != nil {
		httpx.Fail(c, err, "thread")
		return
	}
	httpx.OK(c, gin.H{"messages": msgs})
}

// send stores the message under the sender's id when one is given, so a
// retry returns the stored copy with 200 instead of 201.
func (s Service) send(c *gin.Context) {
	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Err(c, http.StatusBadRequest, utils.BindingErr(err))
		return
	}
	v := storage.Viewer{UserID: auth.MustUserID(c), OrgID: req.OrgID}

	m, created, err := s.Store.InsertMessage(c.Request.Context(), v, req)
	if err != nil {
		httpx.Fail(c, err, "receiver")
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
		if s.Metrics != nil {
			s.Metrics.MessagesSent.Inc()
		}
		// fanout via hub
		s.Hub.MessageCreated(m)
	}
	c.JSON(code, gin.H{"message": m})
}

func (s Service) star(c *gin.Context) {
	var req starReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Err(c, http.StatusBadRequest, utils.BindingErr(err))
		return
	}
	m, err := s.Store.SetStarred(c.Request.Context(), httpx.Viewer(c), c.Param("id"), *req.Starred)
	if err != nil {
		httpx.Fail(c, err, "message")
		return
	}
	s.Hub.MessageCreated(m)
	httpx.OK(c, gin.H{"message": m})
}

func (s Service) remove(c *gin.Context) {
	m, err := s.Store.DeleteMessage(c.Request.Context(), httpx.Viewer(c), c.Param("id"))
	if err != nil {
		httpx.Fail(c, err, "message")
		return
	}
	s.Hub.MessageDeleted(m.ThreadKey, m.ID)
	httpx.OK(c, gin.H{"deleted": true})
}
