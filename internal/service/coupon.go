package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var hundred = decimal.NewFromInt(100)

type CouponService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CouponService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	return s.Repo.ListCoupons(ctx)
}

func (s *CouponService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	c, err := s.Repo.GetCoupon(ctx, id)
	if err != nil {
		return nil, notFound(err, "coupon")
	}
	return c, nil
}

func (s *CouponService) CreateCoupon(ctx context.Context, req transport.CreateCouponRequest) (*models.Coupon, error) {
	c := &models.Coupon{
		Code:         normalizeCode(req.Code),
		DiscountType: strings.ToUpper(req.DiscountType),
		Value:        req.Value,
		MaxUses:      req.MaxUses,
		ExpiresAt:    req.ExpiresAt,
		Active:       true,
	}
	if req.MinOrderAmount != nil {
		c.MinOrderAmount = *req.MinOrderAmount
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := s.checkCoupon(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCoupon(ctx, c); err != nil {
		return nil, dupKey(err, "coupon code")
	}
	return c, nil
}

func (s *CouponService) PatchCoupon(ctx context.Context, id uuid.UUID, req transport.PatchCouponRequest) (*models.Coupon, error) {
	c, err := s.Repo.GetCoupon(ctx, id)
	if err != nil {
		return nil, notFound(err, "coupon")
	}
	if req.Code != nil {
		c.Code = normalizeCode(*req.Code)
	}
	if req.DiscountType != nil {
		c.DiscountType = strings.ToUpper(*req.DiscountType)
	}
	if req.Value != nil {
		c.Value = *req.Value
	}
	if req.MinOrderAmount != nil {
		c.MinOrderAmount = *req.MinOrderAmount
	}
	if req.MaxUses != nil {
		c.MaxUses = *req.MaxUses
	}
	switch {
	case req.ClearExpiry:
		c.ExpiresAt = nil
	case req.ExpiresAt != nil:
		exp := *req.ExpiresAt
		c.ExpiresAt = &exp
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := s.checkCoupon(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCoupon(ctx, c); err != nil {
		return nil, dupKey(err, "coupon code")
	}
	return c, nil
}

func (s *CouponService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteCoupon(ctx, id); err != nil {
		return notFound(err, "coupon")
	}
	return nil
}

func (s *CouponService) checkCoupon(ctx context.Context, c *models.Coupon) error {
	if c.Code == "" {
		return fmt.Errorf("%w: code required", ErrValidation)
	}
	switch c.DiscountType {
	case models.DiscountPercent:
		if !c.Value.IsPositive() || c.Value.GreaterThan(hundred) {
			return fmt.Errorf("%w: percent value must be in (0, 100]", ErrValidation)
		}
	case models.DiscountFixed:
		if !c.Value.IsPositive() {
			return fmt.Errorf("%w: fixed value must be > 0", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: discount_type must be PERCENT or FIXED", ErrValidation)
	}
	if c.MinOrderAmount.IsNegative() {
		return fmt.Errorf("%w: min_order_amount must be >= 0", ErrValidation)
	}
	if c.MaxUses < 0 {
		return fmt.Errorf("%w: max_uses must be >= 0", ErrValidation)
	}
	taken, err := s.Repo.CouponCodeExists(ctx, c.Code, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: coupon %q already exists", ErrConflict, c.Code)
	}
	return nil
}

// Quote looks up the coupon by code and prices it against subtotal.
func (s *CouponService) Quote(ctx context.Context, code string, subtotal decimal.Decimal) (*models.Coupon, *transport.CouponQuote, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, nil, fmt.Errorf("%w: coupon code required", ErrValidation)
	}
	c, err := s.Repo.GetCouponByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, fmt.Errorf("%w: coupon %q does not exist", ErrValidation, code)
		}
		return nil, nil, err
	}
	discount, err := Discount(c, subtotal, s.now())
	if err != nil {
		return nil, nil, err
	}
	return c, &transport.CouponQuote{
		Code:     c.Code,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}, nil
}

func (s *CouponService) ValidateCoupon(ctx context.Context, req transport.ValidateCouponRequest) (*transport.CouponQuote, error) {
	if req.Subtotal.IsNegative() {
		return nil, fmt.Errorf("%w: subtotal must be >= 0", ErrValidation)
	}
	_, q, err := s.Quote(ctx, req.Code, req.Subtotal)
	return q, err
}

// Discount applies the coupon to subtotal. The result never exceeds subtotal.
func Discount(c *models.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	switch {
	case !c.Active:
		return decimal.Zero, fmt.Errorf("%w: coupon is not active", ErrValidation)
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return decimal.Zero, fmt.Errorf("%w: coupon has expired", ErrValidation)
	case c.MaxUses > 0 && c.UsedCount >= c.MaxUses:
		return decimal.Zero, fmt.Errorf("%w: coupon usage limit reached", ErrValidation)
	case subtotal.LessThan(c.MinOrderAmount):
		return decimal.Zero, fmt.Errorf("%w: order must be at least %s", ErrValidation, c.MinOrderAmount.StringFixed(2))
	}

	var d decimal.Decimal
	switch c.DiscountType {
	case models.DiscountPercent:
		d = subtotal.Mul(c.Value).Div(hundred).Round(2)
	case models.DiscountFixed:
		d = c.Value
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown discount type %q", ErrValidation, c.DiscountType)
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
