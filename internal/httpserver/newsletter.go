package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type NewsletterHTTP struct {
	Svc *service.NewsletterService
}

func (h *NewsletterHTTP) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "newsletter.subscribe")

	var req transport.SubscribeRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "subscribe_failed", err)
	}
	created, err := h.Svc.Subscribe(ctx, req.Email)
	if err != nil {
		return fail(l, "subscribe_failed", err)
	}
	if !created {
		return c.JSON(http.StatusOK, map[string]any{"subscribed": true, "created": false})
	}
	l.Infow("subscribe_success")
	return c.JSON(http.StatusCreated, map[string]any{"subscribed": true, "created": true})
}

func (h *NewsletterHTTP) Broadcast(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "newsletter.broadcast")

	var req transport.BroadcastRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "broadcast_failed", err)
	}
	sent, err := h.Svc.Broadcast(ctx, req.Subject, req.HTML)
	if err != nil && sent > 0 {
		status, msg := classify(err)
		l.Errorw("broadcast_partial", "status", status, "sent", sent, "error", err)
		return c.JSON(status, transport.BroadcastResponse{Sent: sent, Error: msg})
	}
	if err != nil {
		return fail(l, "broadcast_failed", err)
	}
	l.Infow("broadcast_success", "sent", sent)
	return c.JSON(http.StatusOK, transport.BroadcastResponse{Sent: sent})
}
