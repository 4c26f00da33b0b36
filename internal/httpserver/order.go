package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) ListMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_mine")

	page, offset, limit := pageQuery(c, "size")
	total, items, err := h.Svc.ListMyOrders(ctx, middleware.UserID(c), offset, limit)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, pageResponse(items, page, offset, limit, total))
}

func (h *OrderHTTP) GetMyOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_mine")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	order, err := h.Svc.GetMyOrder(ctx, middleware.UserID(c), id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page, offset, limit := pageQuery(c, "size")
	total, items, err := h.Svc.ListOrders(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, pageResponse(items, page, offset, limit, total))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "update_order_status_failed", err)
	}
	var req transport.UpdateOrderStatusRequest
	if err := bindValid(c, &req); err != nil {
		return fail(l, "update_order_status_failed", err)
	}
	order, err := h.Svc.UpdateOrderStatus(ctx, id, req)
	if err != nil {
		return fail(l, "update_order_status_failed", err)
	}
	l.Infow("update_order_status_success", "order_id", order.ID.String(), "status", order.Status)
	return c.JSON(http.StatusOK, order)
}
