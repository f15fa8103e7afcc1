package presence

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ageniuscoder/gigchat/internal/auth"
	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/storage/storagetest"
)

const secret = "test-secret"

func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", auth.JWTMiddleware(secret))
	Register(api, NewMemoryStore(5*time.Second), storagetest.New(t), metrics.New())
	return r
}

func do(t *testing.T, r http.Handler, method, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := auth.NewToken(secret, user, 5)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTypingSignalAndPoll(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodGet, "/api/typing/job-1", "c1")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"typing":false}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/typing/job-1", "f1")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/api/typing/job-1", "c1")
	require.JSONEq(t, `{"typing":true}`, w.Body.String())

	// own marks do not count
	w = do(t, r, http.MethodGet, "/api/typing/job-1", "f1")
	require.JSONEq(t, `{"typing":false}`, w.Body.String())
}

func TestTypingExcludesTeammates(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/typing/job-org", "a2").Code)

	w := do(t, r, http.MethodGet, "/api/typing/job-org?org_id=o1", "a1")
	require.JSONEq(t, `{"typing":false}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/typing/job-org", "f2")
	require.JSONEq(t, `{"typing":true}`, w.Body.String())
}

func TestTypingForbiddenOutsideThread(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, http.StatusForbidden, do(t, r, http.MethodPost, "/api/typing/job-1", "x1").Code)
	require.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/api/typing/job-1", "x1").Code)
	require.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/api/typing/job-org?org_id=o1", "x1").Code)
}
