package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	SessionCookie = "__session"

	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextEmail  = "email"

	RoleAdmin = "admin"
)

// RoleResolver returns the stored role of a user when the token carries none.
type RoleResolver func(ctx context.Context, userID string) (string, error)

type SessionMiddleware struct {
	Verifier    *tokens.Verifier
	ResolveRole RoleResolver
}

func NewSessionMiddleware(v *tokens.Verifier, resolve RoleResolver) *SessionMiddleware {
	return &SessionMiddleware{Verifier: v, ResolveRole: resolve}
}

type validatorFunc func(c echo.Context, claims *tokens.SessionClaims) error

func (m *SessionMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireWithValidator(next, nil)
}

func (m *SessionMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireWithValidator(next, func(c echo.Context, claims *tokens.SessionClaims) error {
		if claims.Role == "" && m.ResolveRole != nil {
			role, err := m.ResolveRole(c.Request().Context(), claims.Subject)
			if err != nil {
				logging.FromContext(c.Request().Context()).Warnw("resolve_role_failed", "user_id", claims.Subject, "error", err)
			}
			claims.Role = role
		}
		if claims.Role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *SessionMiddleware) requireWithValidator(next echo.HandlerFunc, validate validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := sessionToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
		}

		claims, err := m.Verifier.Parse(raw)
		if err != nil {
			logging.FromContext(c.Request().Context()).Warnw("session_verify_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
		}

		if validate != nil {
			if err := validate(c, claims); err != nil {
				return err
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func sessionToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

func setUserContext(c echo.Context, claims *tokens.SessionClaims) {
	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextEmail, claims.Email)
}

// UserID reads the authenticated user id placed by RequireAuth or RequireAdmin.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

func Email(c echo.Context) string {
	email, _ := c.Get(ContextEmail).(string)
	return email
}
