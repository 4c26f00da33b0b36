package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type checkoutEnv struct {
	repo     *repo.GormRepo
	events   *mykafka.Recorder
	stripe   *fakeStripe
	paypal   *fakePayPal
	cart     *CartService
	orders   *OrderService
	checkout *CheckoutService
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()

	r := newTestRepo(t)
	env := &checkoutEnv{
		repo:   r,
		events: &mykafka.Recorder{},
		stripe: &fakeStripe{session: &payment.Session{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}},
		paypal: &fakePayPal{
			session: &payment.Session{ID: "PAYPAL-1", URL: "https://paypal.test/approve/PAYPAL-1"},
			capture: &payment.Capture{ID: "CAP-1", Status: "COMPLETED"},
		},
		cart: &CartService{Repo: r},
	}
	env.orders = &OrderService{Repo: r, Events: env.events}
	env.checkout = &CheckoutService{
		Repo:     r,
		Orders:   env.orders,
		Coupons:  &CouponService{Repo: r},
		Stripe:   env.stripe,
		PayPal:   env.paypal,
		StoreURL: "https://shop.test/",
	}
	return env
}

func TestCheckoutStripe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCheckoutEnv(t)
	f := seedProduct(t, env.repo, "20", 5)

	_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: f.Variant.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = env.checkout.Coupons.CreateCoupon(ctx, transport.CreateCouponRequest{Code: "TEN", DiscountType: "FIXED", Value: dec("10")})
	require.NoError(t, err)

	res, err := env.checkout.Checkout(ctx, "user_1", "buyer@example.com", transport.CheckoutRequest{
		Provider:   "stripe",
		CouponCode: "ten",
		Shipping:   transport.ShippingInput{Name: "Ann", City: "Riga"},
	})
	require.NoError(t, err)
	assert.Equal(t, "stripe", res.Provider)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", res.URL)

	order, err := env.orders.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "buyer@example.com", order.Email)
	assert.Equal(t, "usd", order.Currency)
	assert.Equal(t, "cs_test_1", order.PaymentRef)
	assert.Equal(t, "TEN", order.CouponCode)
	assert.True(t, dec("40").Equal(order.Subtotal))
	assert.True(t, dec("10").Equal(order.Discount))
	assert.True(t, dec("30").Equal(order.Total))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Linen shirt", order.Items[0].ProductName)
	assert.Equal(t, 2, order.Items[0].Quantity)

	require.Len(t, env.stripe.requests, 1)
	sent := env.stripe.requests[0]
	assert.Equal(t, res.OrderID.String(), sent.OrderID)
	assert.Equal(t, "https://shop.test/checkout/success?order_id="+res.OrderID.String(), sent.SuccessURL)
	assert.Equal(t, "https://shop.test/cart", sent.CancelURL)
	require.Len(t, sent.Lines, 1)
	assert.Equal(t, "Linen shirt ("+f.Size.Name+", white)", sent.Lines[0].Name)

	// Stock is reserved only when the payment lands.
	v, err := env.repo.GetVariant(ctx, f.Variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Stock)
}

func TestCheckoutFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		t.Parallel()
		env := newCheckoutEnv(t)
		_, err := env.checkout.Checkout(ctx, "user_1", "", transport.CheckoutRequest{Provider: "stripe"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("provider not configured", func(t *testing.T) {
		t.Parallel()
		env := newCheckoutEnv(t)
		env.checkout.PayPal = nil
		_, err := env.checkout.Checkout(ctx, "user_1", "", transport.CheckoutRequest{Provider: "paypal"})
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("stock changed after adding", func(t *testing.T) {
		t.Parallel()
		env := newCheckoutEnv(t)
		f := seedProduct(t, env.repo, "20", 5)
		_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: f.Variant.ID, Quantity: 4})
		require.NoError(t, err)
		require.NoError(t, env.repo.DB.Model(&f.Variant).Update("stock", 1).Error)

		_, err = env.checkout.Checkout(ctx, "user_1", "", transport.CheckoutRequest{Provider: "stripe"})
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("gateway error cancels the order", func(t *testing.T) {
		t.Parallel()
		env := newCheckoutEnv(t)
		env.stripe.err = errGateway
		f := seedProduct(t, env.repo, "20", 5)
		_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: f.Variant.ID, Quantity: 1})
		require.NoError(t, err)

		_, err = env.checkout.Checkout(ctx, "user_1", "", transport.CheckoutRequest{Provider: "stripe"})
		require.ErrorIs(t, err, ErrPayment)

		_, orders, err := env.orders.ListMyOrders(ctx, "user_1", 0, 10)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, models.OrderStatusCancelled, orders[0].Status)
	})
}

func TestCapturePayPal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCheckoutEnv(t)
	f := seedProduct(t, env.repo, "15", 3)

	_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: f.Variant.ID, Quantity: 2})
	require.NoError(t, err)
	res, err := env.checkout.Checkout(ctx, "user_1", "buyer@example.com", transport.CheckoutRequest{Provider: "paypal"})
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.test/approve/PAYPAL-1", res.URL)

	_, err = env.checkout.CapturePayPal(ctx, "someone_else", "PAYPAL-1")
	require.ErrorIs(t, err, ErrNotFound)

	order, err := env.checkout.CapturePayPal(ctx, "user_1", "PAYPAL-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.NotNil(t, order.PaidAt)

	v, err := env.repo.GetVariant(ctx, f.Variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Stock)

	cart, err := env.cart.GetCart(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	again, err := env.checkout.CapturePayPal(ctx, "user_1", "PAYPAL-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, again.Status)
	assert.Equal(t, 1, env.paypal.calls)
	assert.Equal(t, []string{"order_paid"}, env.events.Types())
}

func TestCapturePayPalIncomplete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCheckoutEnv(t)
	env.paypal.capture = &payment.Capture{ID: "CAP-2", Status: "PENDING"}
	f := seedProduct(t, env.repo, "15", 3)

	_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: f.Variant.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.checkout.Checkout(ctx, "user_1", "", transport.CheckoutRequest{Provider: "paypal"})
	require.NoError(t, err)

	_, err = env.checkout.CapturePayPal(ctx, "user_1", "PAYPAL-1")
	require.ErrorIs(t, err, ErrPayment)
}

func TestCheckoutAfterProductSoftDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCheckoutEnv(t)
	keep := seedProduct(t, env.repo, "12", 5)
	gone := seedProduct(t, env.repo, "30", 5)
	catalog := &CatalogService{Repo: env.repo}

	_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: keep.Variant.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: gone.Variant.ID, Quantity: 2})
	require.NoError(t, err)
	seedOrder(t, env.repo, gone, "user_2", 1)

	mode, err := catalog.DeleteProduct(ctx, gone.Product.ID)
	require.NoError(t, err)
	require.Equal(t, DeletedSoft, mode)

	var rows int64
	require.NoError(t, env.repo.DB.Model(&models.CartItem{}).Where("variant_id = ?", gone.Variant.ID).Count(&rows).Error)
	assert.Zero(t, rows)

	cart, err := env.cart.GetCart(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, keep.Variant.ID, cart.Items[0].VariantID)

	res, err := env.checkout.Checkout(ctx, "user_1", "buyer@example.com", transport.CheckoutRequest{Provider: "stripe"})
	require.NoError(t, err)
	order, err := env.orders.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.True(t, dec("12").Equal(order.Total))
}

func TestCheckoutPrunesOrphanLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCheckoutEnv(t)
	keep := seedProduct(t, env.repo, "12", 5)
	gone := seedProduct(t, env.repo, "30", 5)

	_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: keep.Variant.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: gone.Variant.ID, Quantity: 1})
	require.NoError(t, err)

	// A row left behind by an older deletion path.
	require.NoError(t, env.repo.DB.Delete(&models.Product{}, "id = ?", gone.Product.ID).Error)

	res, err := env.checkout.Checkout(ctx, "user_1", "", transport.CheckoutRequest{Provider: "stripe"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)

	var rows int64
	require.NoError(t, env.repo.DB.Model(&models.CartItem{}).Where("user_id = ?", "user_1").Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestCapturePayPalRejectsForeignOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCheckoutEnv(t)
	env.paypal.capture = &payment.Capture{ID: "CAP-3", Status: "COMPLETED", CustomID: uuid.NewString()}
	f := seedProduct(t, env.repo, "15", 3)

	_, err := env.cart.AddItem(ctx, "user_1", transport.CartItemRequest{VariantID: f.Variant.ID, Quantity: 1})
	require.NoError(t, err)
	res, err := env.checkout.Checkout(ctx, "user_1", "", transport.CheckoutRequest{Provider: "paypal"})
	require.NoError(t, err)

	_, err = env.checkout.CapturePayPal(ctx, "user_1", "PAYPAL-1")
	require.ErrorIs(t, err, ErrPayment)

	order, err := env.orders.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	env.paypal.capture = &payment.Capture{ID: "CAP-3", Status: "COMPLETED", CustomID: res.OrderID.String()}
	order, err = env.checkout.CapturePayPal(ctx, "user_1", "PAYPAL-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}
