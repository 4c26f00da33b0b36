package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const (
	dashboardKey      = cachePrefixDashboard + "stats"
	lowStockThreshold = 5
	lowStockLimit     = 10
	recentOrderLimit  = 5
	revenueDays       = 30
)

type DashboardService struct {
	Repo     *repo.GormRepo
	Cache    Cache
	CacheTTL time.Duration
	Now      func() time.Time
}

func (s *DashboardService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *DashboardService) Stats(ctx context.Context) (*transport.DashboardStats, error) {
	var cached transport.DashboardStats
	if cacheGet(ctx, s.Cache, dashboardKey, &cached) {
		return &cached, nil
	}

	out := &transport.DashboardStats{OrdersByStatus: map[string]int64{}}
	var err error

	if out.TotalRevenue, err = s.Repo.TotalRevenue(ctx); err != nil {
		return nil, err
	}
	counts, err := s.Repo.OrderCountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range []models.OrderStatus{
		models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled,
	} {
		out.OrdersByStatus[string(st)] = 0
	}
	for _, c := range counts {
		out.OrdersByStatus[string(c.Status)] = c.Count
	}
	if out.ProductCount, err = s.Repo.CountProducts(ctx); err != nil {
		return nil, err
	}
	if out.CustomerCount, err = s.Repo.CountCustomers(ctx); err != nil {
		return nil, err
	}
	if out.LowStock, err = s.Repo.LowStockVariants(ctx, lowStockThreshold, lowStockLimit); err != nil {
		return nil, err
	}
	if out.RecentOrders, err = s.Repo.RecentOrders(ctx, recentOrderLimit); err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(revenueDays - 1))
	paid, err := s.Repo.PaidOrdersSince(ctx, since)
	if err != nil {
		return nil, err
	}
	out.DailyRevenue = dailyRevenue(since, paid)

	cacheSet(ctx, s.Cache, dashboardKey, out, s.CacheTTL)
	return out, nil
}

// dailyRevenue buckets paid orders per UTC day, filling empty days with zero.
func dailyRevenue(since time.Time, paid []repo.PaidOrder) []transport.DailyRevenue {
	buckets := make([]transport.DailyRevenue, revenueDays)
	index := make(map[string]int, revenueDays)
	for i := range buckets {
		d := since.AddDate(0, 0, i).Format(time.DateOnly)
		buckets[i] = transport.DailyRevenue{Date: d, Revenue: decimal.Zero}
		index[d] = i
	}
	for _, p := range paid {
		i, ok := index[p.PaidAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		buckets[i].Revenue = buckets[i].Revenue.Add(p.Total)
		buckets[i].Orders++
	}
	return buckets
}
