package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

var revenueStatuses = []models.OrderStatus{
	models.OrderStatusPaid,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

type PaidOrder struct {
	Total  decimal.Decimal
	PaidAt time.Time
}

func (r *GormRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status IN ?", revenueStatuses).
		Row().
		Scan(&total)
	return total, err
}

func (r *GormRepo) OrderCountsByStatus(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&out).Error
	return out, err
}

func (r *GormRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&n).Error
	return n, err
}

func (r *GormRepo) LowStockVariants(ctx context.Context, threshold, limit int) ([]models.ProductVariant, error) {
	var items []models.ProductVariant
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Preload("Size").
		Where("stock <= ?", threshold).
		Order("stock ASC").
		Order("sku ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *GormRepo) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var items []models.Order
	err := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

func (r *GormRepo) PaidOrdersSince(ctx context.Context, since time.Time) ([]PaidOrder, error) {
	var rows []models.Order
	err := r.DB.WithContext(ctx).
		Select("total", "paid_at").
		Where("status IN ? AND paid_at >= ?", revenueStatuses, since).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]PaidOrder, 0, len(rows))
	for _, o := range rows {
		if o.PaidAt != nil {
			out = append(out, PaidOrder{Total: o.Total, PaidAt: *o.PaidAt})
		}
	}
	return out, nil
}
