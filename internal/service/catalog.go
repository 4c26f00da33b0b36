package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	DeletedSoft = "soft"
	DeletedHard = "hard"
)

type CatalogService struct {
	Repo     *repo.GormRepo
	Cache    Cache
	Events   Publisher
	Index    ProductIndex
	Media    *MediaService
	CacheTTL time.Duration
}

func (s *CatalogService) ListProducts(ctx context.Context, q transport.ProductQuery) (*transport.ProductPage, error) {
	offset, limit := util.Calculate(q.Page, q.PageSize)

	key := productListKey(q, offset, limit)
	if !q.IncludeArchived {
		var cached transport.ProductPage
		if cacheGet(ctx, s.Cache, key, &cached) {
			return &cached, nil
		}
	}

	f := repo.ProductFilter{
		SeasonSlug:      q.Season,
		SizeName:        q.SizeName,
		MinPrice:        q.MinPrice,
		MaxPrice:        q.MaxPrice,
		Featured:        q.Featured,
		Query:           q.Query,
		Sort:            q.Sort,
		IncludeArchived: q.IncludeArchived,
		Offset:          offset,
		Limit:           limit,
	}
	if q.Category != "" {
		cat, err := s.Repo.GetCategoryBySlug(ctx, q.Category)
		if err != nil {
			if isNotFound(err) {
				return &transport.ProductPage{Items: []models.Product{}}, nil
			}
			return nil, err
		}
		ids, err := s.Repo.CategorySubtree(ctx, cat.ID)
		if err != nil {
			return nil, err
		}
		f.CategoryIDs = ids
	}

	total, items, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	page := &transport.ProductPage{Total: total, Items: items}
	if !q.IncludeArchived {
		cacheSet(ctx, s.Cache, key, page, s.CacheTTL)
	}
	return page, nil
}

func productListKey(q transport.ProductQuery, offset, limit int) string {
	dec := func(d *decimal.Decimal) string {
		if d == nil {
			return ""
		}
		return d.String()
	}
	featured := ""
	if q.Featured != nil {
		featured = fmt.Sprint(*q.Featured)
	}
	return fmt.Sprintf("%slist:c=%s|s=%s|z=%s|min=%s|max=%s|f=%s|q=%s|o=%s|%d:%d",
		cachePrefixProducts, q.Category, q.Season, q.SizeName, dec(q.MinPrice), dec(q.MaxPrice),
		featured, strings.ToLower(strings.TrimSpace(q.Query)), q.Sort, offset, limit)
}

// GetProduct resolves a product by id or slug. Archived products are only visible to admins.
func (s *CatalogService) GetProduct(ctx context.Context, idOrSlug string, includeArchived bool) (*models.Product, error) {
	key := cachePrefixProducts + "detail:" + idOrSlug
	if !includeArchived {
		var cached models.Product
		if cacheGet(ctx, s.Cache, key, &cached) {
			return &cached, nil
		}
	}

	var (
		p   *models.Product
		err error
	)
	if id, perr := uuid.Parse(idOrSlug); perr == nil {
		p, err = s.Repo.GetProduct(ctx, id)
	} else {
		p, err = s.Repo.GetProductBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, notFound(err, "product")
	}
	if p.IsArchived && !includeArchived {
		return nil, fmt.Errorf("%w: product", ErrNotFound)
	}

	if !includeArchived {
		cacheSet(ctx, s.Cache, key, p, s.CacheTTL)
	}
	return p, nil
}

// SearchProducts uses the search index when configured and falls back to SQL matching.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, size int) (*transport.ProductPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return &transport.ProductPage{Total: total, Items: items}, nil
		}
		logging.FromContext(ctx).Warnw("search_index_failed", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{Query: query, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &transport.ProductPage{Total: total, Items: items}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.CompareAtPrice != nil && req.CompareAtPrice.IsNegative() {
		return nil, fmt.Errorf("%w: compare_at_price must be >= 0", ErrValidation)
	}
	if req.CategoryID == uuid.Nil {
		return nil, fmt.Errorf("%w: category_id required", ErrValidation)
	}
	if err := s.checkRefs(ctx, &req.CategoryID, req.SeasonID); err != nil {
		return nil, err
	}

	slug, err := s.productSlug(ctx, req.Slug, name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        name,
		Slug:        slug,
		Description: req.Description,
		Price:       req.Price.Round(2),
		CategoryID:  req.CategoryID,
		SeasonID:    req.SeasonID,
		IsFeatured:  req.IsFeatured,
		IsArchived:  req.IsArchived,
	}
	if req.CompareAtPrice != nil {
		p.CompareAtPrice = decimal.NewNullDecimal(req.CompareAtPrice.Round(2))
	}

	seenSKU := map[string]bool{}
	for _, in := range req.Variants {
		v, err := s.buildVariant(ctx, slug, in)
		if err != nil {
			return nil, err
		}
		if seenSKU[v.SKU] {
			return nil, fmt.Errorf("%w: duplicate sku %q", ErrConflict, v.SKU)
		}
		seenSKU[v.SKU] = true
		p.Variants = append(p.Variants, *v)
	}
	for i, u := range req.ImageURLs {
		p.Images = append(p.Images, models.ProductImage{URL: u, Position: i})
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, dupKey(err, "product")
	}

	s.changed(ctx, "product_created", p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name required", ErrValidation)
		}
		p.Name = name
	}
	if req.Slug != nil {
		slug, err := s.productSlug(ctx, *req.Slug, p.Name, p.ID)
		if err != nil {
			return nil, err
		}
		p.Slug = slug
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		p.Price = req.Price.Round(2)
	}
	if req.CompareAtPrice != nil {
		if req.CompareAtPrice.IsNegative() {
			return nil, fmt.Errorf("%w: compare_at_price must be >= 0", ErrValidation)
		}
		p.CompareAtPrice = decimal.NewNullDecimal(req.CompareAtPrice.Round(2))
	}
	if err := s.checkRefs(ctx, req.CategoryID, req.SeasonID); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
		p.Category = nil
	}
	switch {
	case req.ClearSeason:
		p.SeasonID = nil
		p.Season = nil
	case req.SeasonID != nil:
		sid := *req.SeasonID
		p.SeasonID = &sid
		p.Season = nil
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
	if req.IsArchived != nil {
		p.IsArchived = *req.IsArchived
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, dupKey(err, "product slug")
	}

	updated, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	s.changed(ctx, "product_updated", updated)
	return updated, nil
}

// DeleteProduct soft-deletes products still referenced by undelivered orders and
// hard-deletes everything else. It returns DeletedSoft or DeletedHard.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) (string, error) {
	l := logging.FromContext(ctx)

	open, err := s.Repo.ProductHasOpenOrders(ctx, id)
	if err != nil {
		return "", err
	}

	mode := DeletedHard
	if open {
		mode = DeletedSoft
		if err := s.Repo.SoftDeleteProduct(ctx, id); err != nil {
			return "", notFound(err, "product")
		}
	} else {
		images, err := s.Repo.HardDeleteProduct(ctx, id)
		if err != nil {
			return "", notFound(err, "product")
		}
		for _, img := range images {
			if err := s.Media.Delete(ctx, img.StorageKey); err != nil {
				l.Warnw("delete_image_object_failed", "key", img.StorageKey, "error", err)
			}
		}
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warnw("search_unindex_failed", "product_id", id.String(), "error", err)
		}
	}
	revalidate(ctx, s.Cache, cachePrefixProducts, cachePrefixDashboard)
	publish(ctx, s.Events, TopicProducts, id.String(), map[string]any{
		"type":      "product_deleted",
		"productID": id.String(),
		"mode":      mode,
	})
	return mode, nil
}

func (s *CatalogService) AddVariant(ctx context.Context, productID uuid.UUID, in transport.VariantInput) (*models.ProductVariant, error) {
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	v, err := s.buildVariant(ctx, p.Slug, in)
	if err != nil {
		return nil, err
	}
	v.ProductID = p.ID
	if err := s.Repo.CreateVariant(ctx, v); err != nil {
		return nil, dupKey(err, "sku")
	}
	s.variantsChanged(ctx, p.ID)
	return v, nil
}

func (s *CatalogService) PatchVariant(ctx context.Context, id uuid.UUID, req transport.PatchVariantRequest) (*models.ProductVariant, error) {
	v, err := s.Repo.GetVariant(ctx, id)
	if err != nil {
		return nil, notFound(err, "variant")
	}
	if req.Color != nil {
		v.Color = strings.TrimSpace(*req.Color)
	}
	if req.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*req.SKU))
		if sku == "" {
			return nil, fmt.Errorf("%w: sku required", ErrValidation)
		}
		taken, err := s.Repo.SKUExists(ctx, sku, v.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: sku %q already exists", ErrConflict, sku)
		}
		v.SKU = sku
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
		}
		v.Stock = *req.Stock
	}
	if err := s.Repo.SaveVariant(ctx, v); err != nil {
		return nil, dupKey(err, "sku")
	}
	s.variantsChanged(ctx, v.ProductID)
	return v, nil
}

func (s *CatalogService) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	v, err := s.Repo.GetVariant(ctx, id)
	if err != nil {
		return notFound(err, "variant")
	}
	if err := s.Repo.DeleteVariant(ctx, id); err != nil {
		return notFound(err, "variant")
	}
	s.variantsChanged(ctx, v.ProductID)
	return nil
}

func (s *CatalogService) UploadProductImage(ctx context.Context, productID uuid.UUID, filename, contentType string, size int64, body io.Reader) (*models.ProductImage, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	up, err := s.Media.UploadImage(ctx, filename, contentType, size, body)
	if err != nil {
		return nil, err
	}
	pos, err := s.Repo.NextImagePosition(ctx, productID)
	if err != nil {
		return nil, err
	}
	img := &models.ProductImage{ProductID: productID, URL: up.URL, StorageKey: up.Key, Position: pos}
	if err := s.Repo.CreateImage(ctx, img); err != nil {
		return nil, err
	}
	s.variantsChanged(ctx, productID)
	return img, nil
}

func (s *CatalogService) DeleteProductImage(ctx context.Context, id uuid.UUID) error {
	img, err := s.Repo.GetImage(ctx, id)
	if err != nil {
		return notFound(err, "image")
	}
	if err := s.Repo.DeleteImage(ctx, id); err != nil {
		return notFound(err, "image")
	}
	if err := s.Media.Delete(ctx, img.StorageKey); err != nil {
		logging.FromContext(ctx).Warnw("delete_image_object_failed", "key", img.StorageKey, "error", err)
	}
	s.variantsChanged(ctx, img.ProductID)
	return nil
}

func (s *CatalogService) checkRefs(ctx context.Context, categoryID, seasonID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *categoryID); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: category does not exist", ErrValidation)
			}
			return err
		}
	}
	if seasonID != nil {
		if _, err := s.Repo.GetSeason(ctx, *seasonID); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: season does not exist", ErrValidation)
			}
			return err
		}
	}
	return nil
}

// productSlug returns explicit slugs as-is (409 on collision) and suffixes generated ones until free.
func (s *CatalogService) productSlug(ctx context.Context, explicit, name string, except uuid.UUID) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		slug := util.Slugify(explicit)
		taken, err := s.Repo.ProductSlugExists(ctx, slug, except)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("%w: product slug %q already exists", ErrConflict, slug)
		}
		return slug, nil
	}

	base := util.Slugify(name)
	slug := base
	for i := 2; ; i++ {
		taken, err := s.Repo.ProductSlugExists(ctx, slug, except)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *CatalogService) buildVariant(ctx context.Context, productSlug string, in transport.VariantInput) (*models.ProductVariant, error) {
	if in.SizeID == uuid.Nil {
		return nil, fmt.Errorf("%w: size_id required", ErrValidation)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	size, err := s.Repo.GetSize(ctx, in.SizeID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: size does not exist", ErrValidation)
		}
		return nil, err
	}

	color := strings.TrimSpace(in.Color)
	sku := strings.ToUpper(strings.TrimSpace(in.SKU))
	if sku == "" {
		sku = generateSKU(productSlug, size.Name, color)
	}
	taken, err := s.Repo.SKUExists(ctx, sku, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: sku %q already exists", ErrConflict, sku)
	}

	return &models.ProductVariant{SizeID: size.ID, Color: color, SKU: sku, Stock: in.Stock}, nil
}

func generateSKU(productSlug, size, color string) string {
	prefix := productSlug
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	parts := []string{prefix, util.Slugify(size)}
	if color != "" {
		parts = append(parts, util.Slugify(color))
	}
	parts = append(parts, uuid.NewString()[:6])
	return strings.ToUpper(strings.Join(parts, "-"))
}

func (s *CatalogService) variantsChanged(ctx context.Context, productID uuid.UUID) {
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		revalidate(ctx, s.Cache, cachePrefixProducts)
		return
	}
	s.changed(ctx, "product_updated", p)
}

func (s *CatalogService) changed(ctx context.Context, eventType string, p *models.Product) {
	if s.Index != nil {
		var err error
		if p.IsArchived {
			err = s.Index.DeleteProduct(ctx, p.ID)
		} else {
			err = s.Index.IndexProduct(ctx, p)
		}
		if err != nil {
			logging.FromContext(ctx).Warnw("search_index_failed", "product_id", p.ID.String(), "error", err)
		}
	}
	revalidate(ctx, s.Cache, cachePrefixProducts, cachePrefixDashboard)
	publish(ctx, s.Events, TopicProducts, p.ID.String(), map[string]any{
		"type":      eventType,
		"productID": p.ID.String(),
		"name":      p.Name,
		"slug":      p.Slug,
		"price":     p.Price.String(),
	})
}
