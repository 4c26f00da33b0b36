package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/mail"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
)

const (
	TopicProducts   = "product_events"
	TopicCategories = "category_events"
	TopicOrders     = "order_events"
	TopicUsers      = "user_events"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

type IdempotencyStore interface {
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, id string) error
}

type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

type StripeGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

type PayPalGateway interface {
	CreateOrder(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	CaptureOrder(ctx context.Context, paypalOrderID string) (*payment.Capture, error)
}
