package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := NewToken("secret", "u1", 5)
	require.NoError(t, err)

	claims, err := ParseToken("secret", tok)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)

	_, err = ParseToken("other", tok)
	require.Error(t, err)

	expired, err := NewToken("secret", "u1", -1)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	require.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/who", JWTMiddleware("secret"), func(c *gin.Context) {
		c.String(http.StatusOK, MustUserID(c))
	})
	tok, err := NewToken("secret", "u7", 5)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		query  string
		code   int
		body   string
	}{
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"header", "Bearer " + tok, "", http.StatusOK, "u7"},
		{"query", "", "?token=" + tok, http.StatusOK, "u7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				require.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}
