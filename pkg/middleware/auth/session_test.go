package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var testSecret = []byte("test-session-secret")

func newTestMiddleware(t *testing.T, resolve RoleResolver) *SessionMiddleware {
	t.Helper()
	v, err := tokens.NewVerifier(testSecret, "")
	require.NoError(t, err)
	return NewSessionMiddleware(v, resolve)
}

func sign(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := tokens.SignHS256(testSecret, userID, role, time.Now().Add(time.Minute))
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, h echo.HandlerFunc, req *http.Request) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	return c, h(c)
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	m := newTestMiddleware(t, nil)

	t.Run("missing token", func(t *testing.T) {
		_, err := run(t, m.RequireAuth(ok), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
		_, err := run(t, m.RequireAuth(ok), req)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, "user_a", ""))
		c, err := run(t, m.RequireAuth(ok), req)
		require.NoError(t, err)
		assert.Equal(t, "user_a", UserID(c))
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sign(t, "user_b", "")})
		c, err := run(t, m.RequireAuth(ok), req)
		require.NoError(t, err)
		assert.Equal(t, "user_b", UserID(c))
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	resolve := func(_ context.Context, userID string) (string, error) {
		if userID == "stored_admin" {
			return RoleAdmin, nil
		}
		return "customer", nil
	}
	m := newTestMiddleware(t, resolve)

	tests := []struct {
		name   string
		userID string
		role   string
		want   int
	}{
		{name: "admin claim", userID: "u1", role: RoleAdmin, want: http.StatusOK},
		{name: "customer claim", userID: "u2", role: "customer", want: http.StatusForbidden},
		{name: "resolved admin", userID: "stored_admin", want: http.StatusOK},
		{name: "resolved customer", userID: "u3", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, tt.userID, tt.role))
			c, err := run(t, m.RequireAdmin(ok), req)
			if tt.want == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, RoleAdmin, c.Get(ContextRole))
				return
			}
			assert.Equal(t, tt.want, statusOf(t, err))
		})
	}
}
