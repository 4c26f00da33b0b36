package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/storefront/internal/mail"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

type catalogFixture struct {
	Category models.Category
	Size     models.Size
	Product  models.Product
	Variant  models.ProductVariant
}

// seedProduct stores one category, one size and a product with a single variant.
func seedProduct(t *testing.T, r *repo.GormRepo, price string, stock int) catalogFixture {
	t.Helper()

	suffix := uuid.NewString()[:8]
	f := catalogFixture{
		Category: models.Category{Name: "Shirts", Slug: "shirts-" + suffix},
		Size:     models.Size{Name: "M-" + suffix, SortOrder: 2},
	}
	require.NoError(t, r.DB.Create(&f.Category).Error)
	require.NoError(t, r.DB.Create(&f.Size).Error)

	f.Product = models.Product{
		Name:       "Linen shirt",
		Slug:       "linen-shirt-" + suffix,
		Price:      decimal.RequireFromString(price),
		CategoryID: f.Category.ID,
	}
	require.NoError(t, r.DB.Create(&f.Product).Error)

	f.Variant = models.ProductVariant{
		ProductID: f.Product.ID,
		SizeID:    f.Size.ID,
		Color:     "white",
		SKU:       "SKU-" + suffix,
		Stock:     stock,
	}
	require.NoError(t, r.DB.Create(&f.Variant).Error)
	return f
}

type fakeStripe struct {
	mu       sync.Mutex
	requests []payment.CheckoutRequest
	session  *payment.Session
	err      error
	event    *payment.WebhookEvent
}

func (f *fakeStripe) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeStripe) ParseWebhook(_ []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != "valid" {
		return nil, payment.ErrInvalidSignature
	}
	return f.event, nil
}

type fakePayPal struct {
	session *payment.Session
	capture *payment.Capture
	err     error
	calls   int
}

func (f *fakePayPal) CreateOrder(context.Context, payment.CheckoutRequest) (*payment.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakePayPal) CaptureOrder(context.Context, string) (*payment.Capture, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.capture, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
	// failAfter > 0 makes every send after that many successes fail.
	failAfter int
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.failAfter > 0 && len(f.sent) >= f.failAfter {
		return errGateway
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errGateway = errors.New("gateway down")
