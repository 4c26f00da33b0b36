package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListSeasons(ctx context.Context) ([]models.Season, error) {
	var items []models.Season
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetSeason(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	var s models.Season
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) SeasonSlugExists(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Season{}).Where("slug = ? AND id <> ?", slug, except).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) SaveSeason(ctx context.Context, s *models.Season) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

// DeleteSeason detaches products from the season before removing it.
func (r *GormRepo) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&models.Product{}).Where("season_id = ?", id).Update("season_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Season{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) ListSizes(ctx context.Context) ([]models.Size, error) {
	var items []models.Size
	if err := r.DB.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetSize(ctx context.Context, id uuid.UUID) (*models.Size, error) {
	var s models.Size
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) SizeNameExists(ctx context.Context, name string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Size{}).Where("name = ? AND id <> ?", name, except).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) SaveSize(ctx context.Context, s *models.Size) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

func (r *GormRepo) CountSizeVariants(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.ProductVariant{}).Where("size_id = ?", id).Count(&n).Error
	return n, err
}

func (r *GormRepo) DeleteSize(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Size{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
