package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// ListCategories returns categories ordered for display. A nil parentID lists every category.
func (r *GormRepo) ListCategories(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error) {
	q := r.DB.WithContext(ctx).Model(&models.Category{})
	if parentID != nil {
		q = q.Where("parent_id = ?", *parentID)
	}
	var items []models.Category
	if err := q.Order("sort_order ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := r.DB.WithContext(ctx).
		Preload("Parent").
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC").Order("name ASC") }).
		Where("slug = ?", slug).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CategorySlugExists(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("slug = ? AND id <> ?", slug, except).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

// CountCategoryProducts includes soft-deleted products, they still reference the category.
func (r *GormRepo) CountCategoryProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Unscoped().Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountCategoryChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&n).Error
	return n, err
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CategorySubtree returns rootID and the ids of all its descendants.
func (r *GormRepo) CategorySubtree(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, error) {
	var rows []struct {
		ID       uuid.UUID
		ParentID *uuid.UUID
	}
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Select("id, parent_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, row := range rows {
		if row.ParentID != nil {
			children[*row.ParentID] = append(children[*row.ParentID], row.ID)
		}
	}

	out := []uuid.UUID{rootID}
	seen := map[uuid.UUID]bool{rootID: true}
	for i := 0; i < len(out); i++ {
		for _, child := range children[out[i]] {
			if !seen[child] {
				seen[child] = true
				out = append(out, child)
			}
		}
	}
	return out, nil
}
