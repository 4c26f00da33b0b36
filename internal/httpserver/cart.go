package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	cart, err := h.Svc.GetCart(ctx, middleware.UserID(c))
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "cart.add", "user_id", userID)

	var req transport.CartItemRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "add_to_cart_failed", err)
	}
	cart, err := h.Svc.AddItem(ctx, userID, req)
	if err != nil {
		return fail(l, "add_to_cart_failed", err)
	}
	l.Infow("add_to_cart_success", "variant_id", req.VariantID.String(), "quantity", req.Quantity)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "cart.update", "user_id", userID)

	variantID, err := uuidParam(c, "variantId")
	if err != nil {
		return fail(l, "update_cart_item_failed", err)
	}
	var req transport.UpdateCartItemRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "update_cart_item_failed", err)
	}
	cart, err := h.Svc.UpdateItem(ctx, userID, variantID, req.Quantity)
	if err != nil {
		return fail(l, "update_cart_item_failed", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "cart.remove", "user_id", userID)

	variantID, err := uuidParam(c, "variantId")
	if err != nil {
		return fail(l, "remove_cart_item_failed", err)
	}
	cart, err := h.Svc.RemoveItem(ctx, userID, variantID)
	if err != nil {
		return fail(l, "remove_cart_item_failed", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "cart.clear", "user_id", userID)

	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SyncCart merges a guest cart kept by the client into the stored one.
func (h *CartHTTP) SyncCart(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "cart.sync", "user_id", userID)

	var req transport.SyncCartRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "sync_cart_failed", err)
	}
	cart, err := h.Svc.SyncCart(ctx, userID, req)
	if err != nil {
		return fail(l, "sync_cart_failed", err)
	}
	l.Infow("sync_cart_success", "lines", len(cart.Items))
	return c.JSON(http.StatusOK, cart)
}
