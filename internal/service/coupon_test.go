package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDiscount(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		coupon   models.Coupon
		subtotal string
		want     string
		wantErr  bool
	}{
		{
			name:     "percent rounds to cents",
			coupon:   models.Coupon{DiscountType: models.DiscountPercent, Value: dec("15"), Active: true},
			subtotal: "33.33",
			want:     "5",
		},
		{
			name:     "fixed amount",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("10"), Active: true},
			subtotal: "50",
			want:     "10",
		},
		{
			name:     "fixed capped at subtotal",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("80"), Active: true},
			subtotal: "50",
			want:     "50",
		},
		{
			name:     "full percent",
			coupon:   models.Coupon{DiscountType: models.DiscountPercent, Value: dec("100"), Active: true},
			subtotal: "19.99",
			want:     "19.99",
		},
		{
			name:     "inactive",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("5"), Active: false},
			subtotal: "50",
			wantErr:  true,
		},
		{
			name:     "expired",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("5"), Active: true, ExpiresAt: &past},
			subtotal: "50",
			wantErr:  true,
		},
		{
			name:     "not yet expired",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("5"), Active: true, ExpiresAt: &future},
			subtotal: "50",
			want:     "5",
		},
		{
			name:     "usage limit reached",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("5"), Active: true, MaxUses: 3, UsedCount: 3},
			subtotal: "50",
			wantErr:  true,
		},
		{
			name:     "below minimum order",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("5"), Active: true, MinOrderAmount: dec("60")},
			subtotal: "59.99",
			wantErr:  true,
		},
		{
			name:     "exactly minimum order",
			coupon:   models.Coupon{DiscountType: models.DiscountFixed, Value: dec("5"), Active: true, MinOrderAmount: dec("60")},
			subtotal: "60",
			want:     "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Discount(&tt.coupon, dec(tt.subtotal), now)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestCouponCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := &CouponService{Repo: newTestRepo(t)}

	c, err := svc.CreateCoupon(ctx, transport.CreateCouponRequest{
		Code:         " spring10 ",
		DiscountType: "percent",
		Value:        dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "SPRING10", c.Code)
	assert.Equal(t, models.DiscountPercent, c.DiscountType)
	assert.True(t, c.Active)

	_, err = svc.CreateCoupon(ctx, transport.CreateCouponRequest{Code: "Spring10", DiscountType: "FIXED", Value: dec("5")})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateCoupon(ctx, transport.CreateCouponRequest{Code: "BIG", DiscountType: "PERCENT", Value: dec("120")})
	require.ErrorIs(t, err, ErrValidation)

	inactive := false
	patched, err := svc.PatchCoupon(ctx, c.ID, transport.PatchCouponRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, patched.Active)

	_, err = svc.ValidateCoupon(ctx, transport.ValidateCouponRequest{Code: "spring10", Subtotal: dec("40")})
	require.ErrorIs(t, err, ErrValidation)

	active := true
	_, err = svc.PatchCoupon(ctx, c.ID, transport.PatchCouponRequest{Active: &active})
	require.NoError(t, err)

	quote, err := svc.ValidateCoupon(ctx, transport.ValidateCouponRequest{Code: "spring10", Subtotal: dec("40")})
	require.NoError(t, err)
	assert.True(t, dec("4").Equal(quote.Discount))
	assert.True(t, dec("36").Equal(quote.Total))

	_, err = svc.ValidateCoupon(ctx, transport.ValidateCouponRequest{Code: "nope", Subtotal: dec("40")})
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DeleteCoupon(ctx, c.ID))
	require.ErrorIs(t, svc.DeleteCoupon(ctx, c.ID), ErrNotFound)
}
