package jobs

import (
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
	rg.GET("/jobs/:thread", s.get)
	rg.GET("/jobs/:thread/accepted-proposal", s.accepted)
}

func (s Service) get(c *gin.Context) {
	job, err := s.Store.GetJob(c.Request.Context(), c.Param("thread"))
	if err != nil {
		httpx.Fail(c, err, "job")
		return
	}
	httpx.OK(c, gin.H{"job": job})
}

func (s Service) accepted(c *gin.Context) {
	p, err := s.Store.AcceptedProposal(c.Request.Context(), c.Param("thread"))
	if err != nil {
		httpx.Fail(c, err, "accepted proposal")
		return
	}
	httpx.OK(c, gin.H{"proposal": p})
}
