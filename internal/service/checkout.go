package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CheckoutService struct {
	Repo     *repo.GormRepo
	Orders   *OrderService
	Coupons  *CouponService
	Stripe   StripeGateway
	PayPal   PayPalGateway
	StoreURL string
	Currency string
}

// Checkout turns the user's server-side cart into a PENDING order and opens a payment
// session with the chosen provider.
func (s *CheckoutService) Checkout(ctx context.Context, userID, email string, req transport.CheckoutRequest) (*transport.CheckoutResponse, error) {
	l := logging.FromContext(ctx).With("user_id", userID, "provider", req.Provider)

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	switch provider {
	case models.ProviderStripe:
		if s.Stripe == nil {
			return nil, fmt.Errorf("%w: stripe is not configured", ErrUnavailable)
		}
	case models.ProviderPayPal:
		if s.PayPal == nil {
			return nil, fmt.Errorf("%w: paypal is not configured", ErrUnavailable)
		}
	default:
		return nil, fmt.Errorf("%w: provider must be stripe or paypal", ErrValidation)
	}

	cart, err := loadCart(ctx, s.Repo, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	order := &models.Order{
		UserID:             userID,
		Email:              strings.TrimSpace(req.Email),
		Status:             models.OrderStatusPending,
		Currency:           s.currency(),
		ShippingName:       req.Shipping.Name,
		ShippingLine1:      req.Shipping.Line1,
		ShippingCity:       req.Shipping.City,
		ShippingPostalCode: req.Shipping.PostalCode,
		ShippingCountry:    req.Shipping.Country,
		Phone:              req.Shipping.Phone,
	}
	if order.Email == "" {
		order.Email = email
	}

	var lines []payment.Line
	subtotal := decimal.Zero
	for _, it := range cart {
		v := it.Variant
		if v == nil || v.Product == nil || v.Product.IsArchived {
			return nil, fmt.Errorf("%w: an item in the cart is no longer available", ErrConflict)
		}
		if v.Stock < it.Quantity {
			return nil, fmt.Errorf("%w: only %d of %s in stock", ErrConflict, v.Stock, v.SKU)
		}

		price := v.Product.Price
		lineTotal := price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		productID, variantID := v.Product.ID, v.ID
		item := models.OrderItem{
			ProductID:   &productID,
			VariantID:   &variantID,
			ProductName: v.Product.Name,
			Color:       v.Color,
			UnitPrice:   price,
			Quantity:    it.Quantity,
			LineTotal:   lineTotal,
		}
		if v.Size != nil {
			item.SizeName = v.Size.Name
		}
		order.Items = append(order.Items, item)

		line := payment.Line{Name: lineName(item), UnitAmount: price, Quantity: it.Quantity}
		if len(v.Product.Images) > 0 {
			line.ImageURL = v.Product.Images[0].URL
		}
		lines = append(lines, line)
	}

	order.Subtotal = subtotal
	order.Discount = decimal.Zero
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		coupon, quote, err := s.Coupons.Quote(ctx, code, subtotal)
		if err != nil {
			return nil, err
		}
		couponID := coupon.ID
		order.CouponID = &couponID
		order.CouponCode = coupon.Code
		order.Discount = quote.Discount
	}
	order.Total = subtotal.Sub(order.Discount)

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	l = l.With("order_id", order.ID.String())

	preq := payment.CheckoutRequest{
		OrderID:    order.ID.String(),
		Email:      order.Email,
		Currency:   order.Currency,
		Lines:      lines,
		Discount:   order.Discount,
		Total:      order.Total,
		SuccessURL: s.successURL(order.ID),
		CancelURL:  strings.TrimRight(s.StoreURL, "/") + "/cart",
	}

	var sess *payment.Session
	if provider == models.ProviderStripe {
		sess, err = s.Stripe.CreateCheckoutSession(ctx, preq)
	} else {
		sess, err = s.PayPal.CreateOrder(ctx, preq)
	}
	if err != nil {
		l.Errorw("checkout_session_failed", "error", err)
		if _, cerr := s.Orders.CancelOrder(ctx, order.ID); cerr != nil {
			l.Errorw("cancel_order_failed", "error", cerr)
		}
		return nil, fmt.Errorf("%w: %s checkout failed", ErrPayment, provider)
	}

	if err := s.Repo.SetOrderPayment(ctx, order.ID, provider, sess.ID); err != nil {
		return nil, err
	}
	l.Infow("checkout_started", "total", order.Total.String(), "payment_ref", sess.ID)

	return &transport.CheckoutResponse{OrderID: order.ID, Provider: provider, URL: sess.URL}, nil
}

// CapturePayPal captures an approved PayPal order and marks the storefront order paid.
func (s *CheckoutService) CapturePayPal(ctx context.Context, userID, paypalOrderID string) (*models.Order, error) {
	if s.PayPal == nil {
		return nil, fmt.Errorf("%w: paypal is not configured", ErrUnavailable)
	}
	paypalOrderID = strings.TrimSpace(paypalOrderID)
	if paypalOrderID == "" {
		return nil, fmt.Errorf("%w: paypal_order_id required", ErrValidation)
	}

	o, err := s.Repo.FindOrderByPaymentRef(ctx, models.ProviderPayPal, paypalOrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	if o.Status != models.OrderStatusPending {
		return s.Orders.GetOrder(ctx, o.ID)
	}

	capture, err := s.PayPal.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		logging.FromContext(ctx).Errorw("paypal_capture_failed", "order_id", o.ID.String(), "error", err)
		return nil, fmt.Errorf("%w: paypal capture failed", ErrPayment)
	}
	if !capture.Completed() {
		return nil, fmt.Errorf("%w: paypal capture status %s", ErrPayment, capture.Status)
	}
	if capture.CustomID != "" && capture.CustomID != o.ID.String() {
		logging.FromContext(ctx).Errorw("paypal_capture_mismatch",
			"order_id", o.ID.String(), "custom_id", capture.CustomID, "paypal_order_id", paypalOrderID)
		return nil, fmt.Errorf("%w: paypal capture belongs to another order", ErrPayment)
	}

	res, err := s.Orders.MarkOrderPaid(ctx, o.ID, models.ProviderPayPal, paypalOrderID)
	if err != nil {
		return nil, err
	}
	return res.Order, nil
}

func (s *CheckoutService) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return strings.ToLower(s.Currency)
}

func (s *CheckoutService) successURL(orderID uuid.UUID) string {
	q := url.Values{"order_id": {orderID.String()}}
	return strings.TrimRight(s.StoreURL, "/") + "/checkout/success?" + q.Encode()
}

func lineName(it models.OrderItem) string {
	var parts []string
	if it.SizeName != "" {
		parts = append(parts, it.SizeName)
	}
	if it.Color != "" {
		parts = append(parts, it.Color)
	}
	if len(parts) == 0 {
		return it.ProductName
	}
	return it.ProductName + " (" + strings.Join(parts, ", ") + ")"
}
