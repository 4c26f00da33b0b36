package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const webhookDedupeTTL = 24 * time.Hour

const (
	WebhookHandled   = "handled"
	WebhookIgnored   = "ignored"
	WebhookDuplicate = "duplicate"
)

type WebhookService struct {
	Stripe      StripeGateway
	Identity    *identity.Verifier
	Idempotency IdempotencyStore
	Orders      *OrderService
	Users       *UserService
}

// HandleStripe verifies and applies a Stripe event. Processing errors release the
// dedupe mark so that the provider's retry is processed again.
func (s *WebhookService) HandleStripe(ctx context.Context, payload []byte, signature string) (string, error) {
	if s.Stripe == nil {
		return "", fmt.Errorf("%w: stripe is not configured", ErrUnavailable)
	}
	ev, err := s.Stripe.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return "", fmt.Errorf("%w: invalid signature", ErrValidation)
		}
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	l := logging.FromContext(ctx).With("event_id", ev.ID, "event_type", ev.Type)

	if ev.Kind == payment.EventIgnored {
		l.Debugw("stripe_event_ignored")
		return WebhookIgnored, nil
	}

	first, err := s.mark(ctx, "stripe:"+ev.ID)
	if err != nil {
		return "", err
	}
	if !first {
		l.Infow("stripe_event_duplicate")
		return WebhookDuplicate, nil
	}

	result, err := s.applyStripe(ctx, ev)
	if err != nil {
		s.release(ctx, "stripe:"+ev.ID)
		return "", err
	}
	return result, nil
}

func (s *WebhookService) applyStripe(ctx context.Context, ev *payment.WebhookEvent) (string, error) {
	l := logging.FromContext(ctx).With("event_id", ev.ID, "order_ref", ev.OrderID)

	orderID, err := uuid.Parse(ev.OrderID)
	if err != nil {
		l.Warnw("stripe_event_ignored", "reason", "event carries no order id")
		return WebhookIgnored, nil
	}

	switch ev.Kind {
	case payment.EventPaid:
		res, err := s.Orders.MarkOrderPaid(ctx, orderID, models.ProviderStripe, ev.SessionID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				l.Warnw("stripe_event_ignored", "reason", "unknown order")
				return WebhookIgnored, nil
			}
			return "", err
		}
		if !res.Applied {
			return WebhookDuplicate, nil
		}
		return WebhookHandled, nil

	case payment.EventExpired:
		if _, err := s.Orders.CancelOrder(ctx, orderID); err != nil {
			return "", err
		}
		return WebhookHandled, nil
	}
	return WebhookIgnored, nil
}

// HandleIdentity verifies a signed identity provider delivery and syncs the user.
func (s *WebhookService) HandleIdentity(ctx context.Context, h http.Header, body []byte) (string, error) {
	if s.Identity == nil {
		return "", fmt.Errorf("%w: identity webhook secret is not configured", ErrUnavailable)
	}
	if err := s.Identity.Verify(h, body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	ev, err := identity.ParseEvent(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	key := "identity:" + h.Get(identity.HeaderID)
	first, err := s.mark(ctx, key)
	if err != nil {
		return "", err
	}
	if !first {
		return WebhookDuplicate, nil
	}
	if err := s.Users.ApplyIdentityEvent(ctx, ev); err != nil {
		s.release(ctx, key)
		return "", err
	}
	return WebhookHandled, nil
}

func (s *WebhookService) mark(ctx context.Context, key string) (bool, error) {
	if s.Idempotency == nil {
		return true, nil
	}
	return s.Idempotency.MarkProcessed(ctx, key, webhookDedupeTTL)
}

func (s *WebhookService) release(ctx context.Context, key string) {
	if s.Idempotency == nil {
		return
	}
	if err := s.Idempotency.Release(ctx, key); err != nil {
		logging.FromContext(ctx).Warnw("idempotency_release_failed", "key", key, "error", err)
	}
}
