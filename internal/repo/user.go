package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser inserts the user or refreshes its profile fields and role.
func (r *GormRepo) UpsertUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "image_url", "role", "updated_at"}),
	}).Create(u).Error
}

// CreateUserIfMissing leaves an existing row untouched.
func (r *GormRepo) CreateUserIfMissing(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(u).Error
}

// DeleteUser removes the user with its cart and favorites. Orders are kept.
func (r *GormRepo) DeleteUser(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) ListUsers(ctx context.Context, query string, offset, limit int) (int64, []models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if s := strings.TrimSpace(strings.ToLower(query)); s != "" {
		q = q.Where("LOWER(email) LIKE ?", "%"+s+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.User
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SetUserRole(ctx context.Context, id, role string) (*models.User, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetUser(ctx, id)
}
