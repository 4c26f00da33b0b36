package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductFilter struct {
	CategoryIDs     []uuid.UUID
	SeasonSlug      string
	SizeName        string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Featured        *bool
	Query           string
	Sort            string
	IncludeArchived bool
	Offset          int
	Limit           int
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})

	if !f.IncludeArchived {
		q = q.Where("is_archived = ?", false)
	}
	if len(f.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.SeasonSlug != "" {
		q = q.Where("season_id IN (?)", r.DB.Model(&models.Season{}).Select("id").Where("slug = ?", f.SeasonSlug))
	}
	if f.SizeName != "" {
		sized := r.DB.Model(&models.ProductVariant{}).
			Select("product_variants.product_id").
			Joins("JOIN sizes ON sizes.id = product_variants.size_id").
			Where("sizes.name = ?", f.SizeName)
		q = q.Where("id IN (?)", sized)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Featured != nil {
		q = q.Where("is_featured = ?", *f.Featured)
	}
	if s := strings.TrimSpace(strings.ToLower(f.Query)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	err := q.
		Preload("Images", orderedImages).
		Preload("Category").
		Order(sortClause(f.Sort)).
		Order("id ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func sortClause(sort string) string {
	switch sort {
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "name":
		return "name ASC"
	default:
		return "created_at DESC"
	}
}

func (r *GormRepo) productDetail(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("color ASC").Order("sku ASC") }).
		Preload("Variants.Size").
		Preload("Images", orderedImages).
		Preload("Category").
		Preload("Season")
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.productDetail(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	if err := r.productDetail(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductsByIDs keeps the order of ids and skips ids that no longer exist.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	err := r.DB.WithContext(ctx).
		Preload("Images", orderedImages).
		Preload("Category").
		Where("id IN ? AND is_archived = ?", ids, false).
		Find(&found).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) ProductSlugExists(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Unscoped().Model(&models.Product{}).
		Where("slug = ? AND id <> ?", slug, except).
		Count(&n).Error
	return n > 0, err
}

// CreateProduct inserts the product with its variants and images in one transaction.
func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variants, images := p.Variants, p.Images
		p.Variants, p.Images = nil, nil

		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		for i := range variants {
			variants[i].ProductID = p.ID
			if err := tx.Omit(clause.Associations).Create(&variants[i]).Error; err != nil {
				return err
			}
		}
		for i := range images {
			images[i].ProductID = p.ID
			if err := tx.Create(&images[i]).Error; err != nil {
				return err
			}
		}
		p.Variants, p.Images = variants, images
		return nil
	})
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

// ProductHasOpenOrders reports whether any order that is not delivered still holds the product.
func (r *GormRepo) ProductHasOpenOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.status <> ?", id, models.OrderStatusDelivered).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) SoftDeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("id = ?", id).Update("is_archived", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		variantIDs := tx.Model(&models.ProductVariant{}).Select("id").Where("product_id = ?", id)
		if err := tx.Where("variant_id IN (?)", variantIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
}

// HardDeleteProduct removes the product and its dependent rows. Order items keep their
// snapshot with the references cleared. The removed images are returned.
func (r *GormRepo) HardDeleteProduct(ctx context.Context, id uuid.UUID) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Unscoped().Select("id").Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Find(&images).Error; err != nil {
			return err
		}

		variantIDs := tx.Model(&models.ProductVariant{}).Select("id").Where("product_id = ?", id)
		if err := tx.Where("variant_id IN (?)", variantIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).
			Updates(map[string]any{"product_id": nil, "variant_id": nil}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Product{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *GormRepo) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images", orderedImages).
		Preload("Size").
		Where("id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) SKUExists(ctx context.Context, sku string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("sku = ? AND id <> ?", sku, except).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateVariant(ctx context.Context, v *models.ProductVariant) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

func (r *GormRepo) SaveVariant(ctx context.Context, v *models.ProductVariant) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(v).Error
}

func (r *GormRepo) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("variant_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("variant_id = ?", id).Update("variant_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ProductVariant{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) NextImagePosition(ctx context.Context, productID uuid.UUID) (int, error) {
	var maxPos int
	err := r.DB.WithContext(ctx).Model(&models.ProductImage{}).
		Select("COALESCE(MAX(position), -1)").
		Where("product_id = ?", productID).
		Row().
		Scan(&maxPos)
	if err != nil {
		return 0, err
	}
	return maxPos + 1, nil
}

func (r *GormRepo) CreateImage(ctx context.Context, img *models.ProductImage) error {
	return r.DB.WithContext(ctx).Create(img).Error
}

func (r *GormRepo) GetImage(ctx context.Context, id uuid.UUID) (*models.ProductImage, error) {
	var img models.ProductImage
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *GormRepo) DeleteImage(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.ProductImage{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
