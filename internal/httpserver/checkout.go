package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "checkout.create", "user_id", userID)

	var req transport.CheckoutRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "checkout_failed", err)
	}
	res, err := h.Svc.Checkout(ctx, userID, middleware.Email(c), req)
	if err != nil {
		return fail(l, "checkout_failed", err)
	}
	l.Infow("checkout_success", "order_id", res.OrderID.String(), "provider", res.Provider)
	return c.JSON(http.StatusCreated, res)
}

func (h *CheckoutHTTP) CapturePayPal(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	l := logging.FromContext(ctx).With("handler", "checkout.paypal_capture", "user_id", userID)

	var req transport.CapturePayPalRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "paypal_capture_failed", err)
	}
	order, err := h.Svc.CapturePayPal(ctx, userID, req.PayPalOrderID)
	if err != nil {
		return fail(l, "paypal_capture_failed", err)
	}
	l.Infow("paypal_capture_success", "order_id", order.ID.String(), "status", order.Status)
	return c.JSON(http.StatusOK, order)
}
