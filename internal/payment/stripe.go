package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

func (c StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return errors.New("stripe secret key is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe webhook secret is required")
	}
	return nil
}

type StripeClient struct {
	api           *client.API
	webhookSecret string
}

func NewStripeClient(cfg StripeConfig) *StripeClient {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeClient{api: api, webhookSecret: cfg.WebhookSecret}
}

func (s *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	for _, l := range req.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		if l.ImageURL != "" {
			product.Images = []*string{stripe.String(l.ImageURL)}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(MinorUnits(l.UnitAmount)),
			},
			Quantity: stripe.Int64(int64(l.Quantity)),
		})
	}

	if req.Discount.IsPositive() {
		cp := &stripe.CouponParams{
			AmountOff:      stripe.Int64(MinorUnits(req.Discount)),
			Currency:       stripe.String(req.Currency),
			Duration:       stripe.String(string(stripe.CouponDurationOnce)),
			MaxRedemptions: stripe.Int64(1),
			Name:           stripe.String("Order discount"),
		}
		cp.Context = ctx
		c, err := s.api.Coupons.New(cp)
		if err != nil {
			return nil, fmt.Errorf("stripe coupon: %w", err)
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(c.ID)}}
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and normalizes checkout session events.
func (s *StripeClient) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}

	var kind EventKind
	switch out.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		kind = EventPaid
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		kind = EventExpired
	default:
		return out, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("stripe event %s has no data", event.ID)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	out.SessionID = cs.ID
	out.OrderID = cs.Metadata["order_id"]
	if out.OrderID == "" {
		out.OrderID = cs.ClientReferenceID
	}

	// A completed session with a delayed payment method is settled by async_payment_succeeded.
	if out.Type == "checkout.session.completed" && cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		kind = EventIgnored
	}
	out.Kind = kind
	return out, nil
}
