package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) GetUserOrder(ctx context.Context, userID string, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders lists newest first. Empty userID or status means no filter.
func (r *GormRepo) ListOrders(ctx context.Context, userID string, status models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingCode *string) (*models.Order, error) {
	updates := map[string]any{"status": status}
	if trackingCode != nil {
		updates["tracking_code"] = *trackingCode
	}
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetOrder(ctx, id)
}

func (r *GormRepo) SetOrderPayment(ctx context.Context, id uuid.UUID, provider, ref string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]any{"payment_provider": provider, "payment_ref": ref}).Error
}

func (r *GormRepo) FindOrderByPaymentRef(ctx context.Context, provider, ref string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Where("payment_provider = ? AND payment_ref = ?", provider, ref).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelPendingOrder reports whether the order moved from PENDING to CANCELLED.
func (r *GormRepo) CancelPendingOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Update("status", models.OrderStatusCancelled)
	return res.RowsAffected > 0, res.Error
}

type PaidResult struct {
	Order    *models.Order
	Applied  bool
	Oversold []uuid.UUID
}

// MarkOrderPaid settles a pending order in one transaction: stock is decremented per item
// (clamped at zero), coupon usage is counted and the buyer's cart is cleared.
// An order that is no longer pending is returned untouched with Applied=false.
func (r *GormRepo) MarkOrderPaid(ctx context.Context, id uuid.UUID, provider, ref string, paidAt time.Time) (*PaidResult, error) {
	out := &PaidResult{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
			return err
		}
		out.Order = &o
		if o.Status != models.OrderStatusPending {
			return nil
		}

		claimed := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, models.OrderStatusPending).
			Updates(map[string]any{
				"status":           models.OrderStatusPaid,
				"paid_at":          paidAt,
				"payment_provider": provider,
				"payment_ref":      ref,
			})
		if claimed.Error != nil {
			return claimed.Error
		}
		if claimed.RowsAffected == 0 {
			return nil
		}

		for _, it := range o.Items {
			if it.VariantID == nil {
				continue
			}
			var stock int
			if err := tx.Model(&models.ProductVariant{}).Select("stock").Where("id = ?", *it.VariantID).Row().Scan(&stock); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return err
			}
			if stock < it.Quantity {
				out.Oversold = append(out.Oversold, *it.VariantID)
			}
			err := tx.Model(&models.ProductVariant{}).Where("id = ?", *it.VariantID).
				Update("stock", gorm.Expr("CASE WHEN stock >= ? THEN stock - ? ELSE 0 END", it.Quantity, it.Quantity)).Error
			if err != nil {
				return err
			}
		}

		if o.CouponID != nil {
			if err := tx.Model(&models.Coupon{}).Where("id = ?", *o.CouponID).
				Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", o.UserID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		o.Status = models.OrderStatusPaid
		o.PaidAt = &paidAt
		o.PaymentProvider = provider
		o.PaymentRef = ref
		out.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
