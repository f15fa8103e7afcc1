// Package server assembles the HTTP and WebSocket surface.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/chat"
	"github.com/ageniuscoder/gigchat/internal/conversations"
	"github.com/ageniuscoder/gigchat/internal/jobs"
	"github.com/ageniuscoder/gigchat/internal/messages"
	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/presence"
	"github.com/ageniuscoder/gigchat/internal/profile"
	"github.com/ageniuscoder/gigchat/internal/storage"
)

type Deps struct {
	Store     *storage.Store
	Hub       *chat.Hub
	Typing    presence.Store
	Metrics   *metrics.Metrics
	JWTSecret string
	Log       *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog(d.Log), d.Metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		if err := d.Store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", d.Metrics.Handler())

	api := r.Group("/api")
	chat.RegisterWS(api, d.Hub, d.JWTSecret)

	authed := api.Group("", auth.JWTMiddleware(d.JWTSecret))
	profile.Register(authed, d.Store)
	conversations.Register(authed, d.Store)
	messages.Register(authed, d.Store, d.Hub, d.Metrics)
	jobs.Register(authed, d.Store)
	presence.Register(authed, d.Typing, d.Store, d.Metrics)
	return r
}

func requestLog(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"user", c.GetString(auth.CtxUserID))
	}
}
