package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ageniuscoder/gigchat/internal/auth"
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
	rg.GET("/me", s.getMe)
}

func (s Service) getMe(c *gin.Context) {
	uid := auth.MustUserID(c)
	if uid == "" {
		httpx.Err(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := s.Store.GetProfile(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err, "user")
		return
	}
	httpx.OK(c, p)
}
