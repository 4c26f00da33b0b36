package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).
		Preload("Variant").
		Preload("Variant.Size").
		Preload("Variant.Product").
		Preload("Variant.Product.Images", orderedImages).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart increments the line quantity, creating the line when missing.
// The resulting quantity may not exceed stock.
func (r *GormRepo) AddToCart(ctx context.Context, userID string, variantID uuid.UUID, qty, stock int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND variant_id = ?", userID, variantID).First(&item).Error
		switch {
		case err == nil:
			if item.Quantity+qty > stock {
				return ErrInsufficientStock
			}
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", qty)).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", item.ID).First(&item).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if qty > stock {
				return ErrInsufficientStock
			}
			item = models.CartItem{UserID: userID, VariantID: variantID, Quantity: qty}
			return tx.Create(&item).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, userID string, variantID uuid.UUID, qty int) error {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteFromCart(ctx context.Context, userID string, variantID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("user_id = ? AND variant_id = ?", userID, variantID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PruneCart removes the given lines without reporting missing ones.
func (r *GormRepo) PruneCart(ctx context.Context, userID string, variantIDs []uuid.UUID) error {
	if len(variantIDs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND variant_id IN ?", userID, variantIDs).
		Delete(&models.CartItem{}).Error
}

func (r *GormRepo) ClearCart(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// UpsertCartLines writes the given quantities, replacing existing ones, in one transaction.
func (r *GormRepo) UpsertCartLines(ctx context.Context, userID string, lines map[uuid.UUID]int) error {
	if len(lines) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for variantID, qty := range lines {
			item := models.CartItem{UserID: userID, VariantID: variantID, Quantity: qty}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "variant_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
			}).Create(&item).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
