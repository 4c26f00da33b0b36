package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type FavoriteHTTP struct {
	Svc *service.FavoriteService
}

func (h *FavoriteHTTP) ListFavorites(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite.list")

	items, err := h.Svc.ListFavorites(ctx, middleware.UserID(c))
	if err != nil {
		return fail(l, "list_favorites_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *FavoriteHTTP) AddFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "favorite.add", "user_id", userID)

	var req transport.FavoriteRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "add_favorite_failed", err)
	}
	if err := h.Svc.AddFavorite(ctx, userID, req.ProductID); err != nil {
		return fail(l, "add_favorite_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHTTP) RemoveFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "favorite.remove", "user_id", userID)

	productID, err := uuidParam(c, "productId")
	if err != nil {
		return fail(l, "remove_favorite_failed", err)
	}
	if err := h.Svc.RemoveFavorite(ctx, userID, productID); err != nil {
		return fail(l, "remove_favorite_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHTTP) SyncFavorites(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "favorite.sync", "user_id", userID)

	var req transport.SyncFavoritesRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "sync_favorites_failed", err)
	}
	items, err := h.Svc.SyncFavorites(ctx, userID, req.ProductIDs)
	if err != nil {
		return fail(l, "sync_favorites_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}
