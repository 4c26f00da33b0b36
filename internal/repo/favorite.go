package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	var items []models.Favorite
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images", orderedImages).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) AddFavorites(ctx context.Context, userID string, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	favs := make([]models.Favorite, 0, len(productIDs))
	for _, id := range productIDs {
		favs = append(favs, models.Favorite{UserID: userID, ProductID: id})
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&favs).Error
}

func (r *GormRepo) RemoveFavorite(ctx context.Context, userID string, productID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExistingProductIDs filters ids down to live, non-archived products.
func (r *GormRepo) ExistingProductIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []uuid.UUID
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id IN ? AND is_archived = ?", ids, false).
		Pluck("id", &out).Error
	return out, err
}
