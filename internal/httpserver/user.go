package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	u, err := h.Svc.Me(ctx, middleware.UserID(c), middleware.Email(c))
	if err != nil {
		return fail(l, "me_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	page, offset, limit := pageQuery(c, "size")
	total, items, err := h.Svc.ListUsers(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, pageResponse(items, page, offset, limit, total))
}

func (h *UserHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.set_role")

	var req transport.SetRoleRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "set_role_failed", err)
	}
	u, err := h.Svc.SetUserRole(ctx, c.Param("id"), req.Role)
	if err != nil {
		return fail(l, "set_role_failed", err)
	}
	l.Infow("set_role_success", "user_id", u.ID, "role", u.Role, "by", middleware.UserID(c))
	return c.JSON(http.StatusOK, u)
}
