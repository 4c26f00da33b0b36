package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var items []models.Coupon
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CouponCodeExists(ctx context.Context, code string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Coupon{}).Where("code = ? AND id <> ?", code, except).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) SaveCoupon(ctx context.Context, c *models.Coupon) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
