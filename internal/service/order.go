package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Cache  Cache
	Events Publisher
	Now    func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID string, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, "", offset, limit)
}

// GetMyOrder hides orders owned by someone else behind a 404.
func (s *OrderService) GetMyOrder(ctx context.Context, userID string, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetUserOrder(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	st := models.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Repo.ListOrders(ctx, "", st, offset, limit)
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// UpdateOrderStatus writes any known status. Transitions are not restricted.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, req transport.UpdateOrderStatusRequest) (*models.Order, error) {
	st := models.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !st.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	var tracking *string
	if req.TrackingCode != nil {
		t := strings.TrimSpace(*req.TrackingCode)
		tracking = &t
	}

	o, err := s.Repo.UpdateOrderStatus(ctx, id, st, tracking)
	if err != nil {
		return nil, notFound(err, "order")
	}

	revalidate(ctx, s.Cache, cachePrefixOrders, cachePrefixDashboard)
	publish(ctx, s.Events, TopicOrders, o.ID.String(), map[string]any{
		"type":         "order_status_updated",
		"orderID":      o.ID.String(),
		"userID":       o.UserID,
		"status":       string(o.Status),
		"trackingCode": o.TrackingCode,
	})
	return o, nil
}

// MarkOrderPaid settles a pending order. Applied is false when the order had already
// left PENDING, which makes repeated provider callbacks harmless.
func (s *OrderService) MarkOrderPaid(ctx context.Context, id uuid.UUID, provider, ref string) (*repo.PaidResult, error) {
	l := logging.FromContext(ctx).With("order_id", id.String(), "provider", provider)

	res, err := s.Repo.MarkOrderPaid(ctx, id, provider, ref, s.now())
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !res.Applied {
		l.Infow("order_already_processed", "status", string(res.Order.Status))
		return res, nil
	}
	for _, v := range res.Oversold {
		l.Warnw("order_oversold", "variant_id", v.String(), "reason", "stock clamped at zero")
	}
	l.Infow("order_paid", "total", res.Order.Total.String())

	revalidate(ctx, s.Cache, cachePrefixOrders, cachePrefixProducts, cachePrefixDashboard)
	publish(ctx, s.Events, TopicOrders, id.String(), map[string]any{
		"type":     "order_paid",
		"orderID":  id.String(),
		"userID":   res.Order.UserID,
		"provider": provider,
		"total":    res.Order.Total.String(),
		"currency": res.Order.Currency,
	})
	return res, nil
}

// CancelOrder moves a pending order to CANCELLED. Other states are left alone.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.Repo.CancelPendingOrder(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		revalidate(ctx, s.Cache, cachePrefixOrders, cachePrefixDashboard)
		publish(ctx, s.Events, TopicOrders, id.String(), map[string]any{
			"type":    "order_cancelled",
			"orderID": id.String(),
		})
	}
	return ok, nil
}
