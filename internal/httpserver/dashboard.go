package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type DashboardHTTP struct {
	Svc *service.DashboardService
}

func (h *DashboardHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard.stats")

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		return fail(l, "dashboard_stats_failed", err)
	}
	return c.JSON(http.StatusOK, stats)
}
