package httpserver

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const maxWebhookBody = 64 << 10

type WebhookHTTP struct {
	Svc *service.WebhookService
}

func readWebhookBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable body", service.ErrValidation)
	}
	if len(body) > maxWebhookBody {
		return nil, fmt.Errorf("%w: body too large", service.ErrValidation)
	}
	return body, nil
}

// Stripe receives payment events. The raw body is needed for signature checks.
func (h *WebhookHTTP) Stripe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "webhook.stripe")

	body, err := readWebhookBody(c)
	if err != nil {
		return fail(l, "stripe_webhook_failed", err)
	}
	result, err := h.Svc.HandleStripe(ctx, body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return fail(l, "stripe_webhook_failed", err)
	}
	l.Infow("stripe_webhook_success", "result", result)
	return c.JSON(http.StatusOK, map[string]any{"received": true, "result": result})
}

func (h *WebhookHTTP) Identity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "webhook.identity")

	body, err := readWebhookBody(c)
	if err != nil {
		return fail(l, "identity_webhook_failed", err)
	}
	result, err := h.Svc.HandleIdentity(ctx, c.Request().Header, body)
	if err != nil {
		return fail(l, "identity_webhook_failed", err)
	}
	l.Infow("identity_webhook_success", "result", result)
	return c.JSON(http.StatusOK, map[string]any{"received": true, "result": result})
}
