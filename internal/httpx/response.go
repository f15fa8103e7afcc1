package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/storage"
)

func OK(c *gin.Context, v any) {
	c.JSON(200, v)
}

func Err(c *gin.Context, code int, msg any) {
	c.JSON(code, gin.H{"error": msg})
}

// Fail maps a storage error to its status code. Unexpected errors are logged
// and answered with a generic 500.
func Fail(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		Err(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrForbidden):
		Err(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, storage.ErrConflict):
		Err(c, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "path", c.FullPath(), "what", what, "err", err)
		Err(c, http.StatusInternalServerError, "database error")
	}
}

// Viewer is the identity the request acts as: the token's user, optionally
// on behalf of the organization named by org_id.
func Viewer(c *gin.Context) storage.Viewer {
	return storage.Viewer{UserID: auth.MustUserID(c), OrgID: c.Query("org_id")}
}
