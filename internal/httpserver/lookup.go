package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// LookupHTTP serves seasons and sizes.
type LookupHTTP struct {
	Svc *service.LookupService
}

func (h *LookupHTTP) ListSeasons(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "season.list")

	items, err := h.Svc.ListSeasons(ctx)
	if err != nil {
		return fail(l, "list_seasons_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *LookupHTTP) CreateSeason(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "season.create")

	var req transport.SeasonRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "create_season_failed", err)
	}
	season, err := h.Svc.CreateSeason(ctx, req)
	if err != nil {
		return fail(l, "create_season_failed", err)
	}
	l.Infow("create_season_success", "season_id", season.ID.String())
	return c.JSON(http.StatusCreated, season)
}

func (h *LookupHTTP) UpdateSeason(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "season.update")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "update_season_failed", err)
	}
	var req transport.SeasonRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "update_season_failed", err)
	}
	season, err := h.Svc.UpdateSeason(ctx, id, req)
	if err != nil {
		return fail(l, "update_season_failed", err)
	}
	return c.JSON(http.StatusOK, season)
}

func (h *LookupHTTP) DeleteSeason(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "season.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "delete_season_failed", err)
	}
	if err := h.Svc.DeleteSeason(ctx, id); err != nil {
		return fail(l, "delete_season_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LookupHTTP) ListSizes(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "size.list")

	items, err := h.Svc.ListSizes(ctx)
	if err != nil {
		return fail(l, "list_sizes_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *LookupHTTP) CreateSize(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "size.create")

	var req transport.SizeRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "create_size_failed", err)
	}
	size, err := h.Svc.CreateSize(ctx, req)
	if err != nil {
		return fail(l, "create_size_failed", err)
	}
	l.Infow("create_size_success", "size_id", size.ID.String())
	return c.JSON(http.StatusCreated, size)
}

func (h *LookupHTTP) UpdateSize(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "size.update")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "update_size_failed", err)
	}
	var req transport.SizeRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "update_size_failed", err)
	}
	size, err := h.Svc.UpdateSize(ctx, id, req)
	if err != nil {
		return fail(l, "update_size_failed", err)
	}
	return c.JSON(http.StatusOK, size)
}

func (h *LookupHTTP) DeleteSize(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "size.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "delete_size_failed", err)
	}
	if err := h.Svc.DeleteSize(ctx, id); err != nil {
		return fail(l, "delete_size_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
