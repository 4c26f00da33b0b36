package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
)

func TestHandleStripe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	f := seedProduct(t, r, "10", 4)
	o := seedOrder(t, r, f, "user_1", 1)

	stripe := &fakeStripe{event: &payment.WebhookEvent{
		ID:        "evt_1",
		Type:      "checkout.session.completed",
		Kind:      payment.EventPaid,
		OrderID:   o.ID.String(),
		SessionID: "cs_1",
	}}
	orders := &OrderService{Repo: r}
	svc := &WebhookService{Stripe: stripe, Idempotency: cache.NewMemoryIdempotency(0), Orders: orders}

	_, err := svc.HandleStripe(ctx, []byte("{}"), "forged")
	require.ErrorIs(t, err, ErrValidation)

	result, err := svc.HandleStripe(ctx, []byte("{}"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookHandled, result)

	stored, err := orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Equal(t, "cs_1", stored.PaymentRef)

	result, err = svc.HandleStripe(ctx, []byte("{}"), "valid")
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, result)

	v, err := r.GetVariant(ctx, f.Variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Stock)
}

func TestHandleStripeEventKinds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	f := seedProduct(t, r, "10", 4)
	o := seedOrder(t, r, f, "user_1", 1)
	orders := &OrderService{Repo: r}

	tests := []struct {
		name  string
		event payment.WebhookEvent
		want  string
	}{
		{"ignored type", payment.WebhookEvent{ID: "evt_a", Kind: payment.EventIgnored}, WebhookIgnored},
		{"no order id", payment.WebhookEvent{ID: "evt_b", Kind: payment.EventPaid, OrderID: "not-a-uuid"}, WebhookIgnored},
		{"unknown order", payment.WebhookEvent{ID: "evt_c", Kind: payment.EventPaid, OrderID: "9b2b7c3e-6f7a-4a53-9d4f-6a9f0d9a1c11"}, WebhookIgnored},
		{"expired session", payment.WebhookEvent{ID: "evt_d", Kind: payment.EventExpired, OrderID: o.ID.String()}, WebhookHandled},
	}

	for _, tt := range tests {
		svc := &WebhookService{Stripe: &fakeStripe{event: &tt.event}, Orders: orders}
		got, err := svc.HandleStripe(ctx, nil, "valid")
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	stored, err := orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
}

func TestHandleStripeNotConfigured(t *testing.T) {
	t.Parallel()

	svc := &WebhookService{}
	_, err := svc.HandleStripe(context.Background(), nil, "")
	require.ErrorIs(t, err, ErrUnavailable)
}

func signedIdentity(t *testing.T, v *identity.Verifier, id string, ev any) (http.Header, []byte) {
	t.Helper()

	body, err := json.Marshal(ev)
	require.NoError(t, err)
	ts, sig, err := v.Sign(id, time.Now(), body)
	require.NoError(t, err)

	h := http.Header{}
	h.Set(identity.HeaderID, id)
	h.Set(identity.HeaderTimestamp, ts)
	h.Set(identity.HeaderSignature, sig)
	return h, body
}

func TestHandleIdentity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRepo(t)
	verifier, err := identity.NewVerifier("whsec_c2VjcmV0LWtleS1mb3ItdGVzdHM=")
	require.NoError(t, err)

	svc := &WebhookService{
		Identity:    verifier,
		Idempotency: cache.NewMemoryIdempotency(0),
		Users:       &UserService{Repo: r},
	}

	created := map[string]any{
		"type": identity.EventUserCreated,
		"data": map[string]any{
			"id":                       "user_1",
			"primary_email_address_id": "em_1",
			"email_addresses":          []map[string]string{{"id": "em_1", "email_address": "ann@example.com"}},
			"first_name":               "Ann",
		},
	}
	h, body := signedIdentity(t, verifier, "msg_1", created)

	result, err := svc.HandleIdentity(ctx, h, body)
	require.NoError(t, err)
	assert.Equal(t, WebhookHandled, result)

	u, err := r.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.Role)

	result, err = svc.HandleIdentity(ctx, h, body)
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, result)

	h.Set(identity.HeaderSignature, "v1,AAAA")
	_, err = svc.HandleIdentity(ctx, h, body)
	require.ErrorIs(t, err, ErrValidation)

	deleted := map[string]any{"type": identity.EventUserDeleted, "data": map[string]any{"id": "user_1"}}
	h, body = signedIdentity(t, verifier, "msg_2", deleted)
	_, err = svc.HandleIdentity(ctx, h, body)
	require.NoError(t, err)

	_, err = r.GetUser(ctx, "user_1")
	require.Error(t, err)
}
