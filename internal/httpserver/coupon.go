package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) ListCoupons(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.list")

	items, err := h.Svc.ListCoupons(ctx)
	if err != nil {
		return fail(l, "list_coupons_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CouponHTTP) GetCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.get")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "get_coupon_failed", err)
	}
	cp, err := h.Svc.GetCoupon(ctx, id)
	if err != nil {
		return fail(l, "get_coupon_failed", err)
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *CouponHTTP) CreateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create")

	var req transport.CreateCouponRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "create_coupon_failed", err)
	}
	cp, err := h.Svc.CreateCoupon(ctx, req)
	if err != nil {
		return fail(l, "create_coupon_failed", err)
	}
	l.Infow("create_coupon_success", "coupon_id", cp.ID.String(), "code", cp.Code)
	return c.JSON(http.StatusCreated, cp)
}

func (h *CouponHTTP) PatchCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.patch")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "patch_coupon_failed", err)
	}
	var req transport.PatchCouponRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "patch_coupon_failed", err)
	}
	cp, err := h.Svc.PatchCoupon(ctx, id, req)
	if err != nil {
		return fail(l, "patch_coupon_failed", err)
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *CouponHTTP) DeleteCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "delete_coupon_failed", err)
	}
	if err := h.Svc.DeleteCoupon(ctx, id); err != nil {
		return fail(l, "delete_coupon_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ValidateCoupon quotes the discount a code gives on a subtotal without consuming it.
func (h *CouponHTTP) ValidateCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateCouponRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "validate_coupon_failed", err)
	}
	quote, err := h.Svc.ValidateCoupon(ctx, req)
	if err != nil {
		return fail(l, "validate_coupon_failed", err)
	}
	return c.JSON(http.StatusOK, quote)
}
