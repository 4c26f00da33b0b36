package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

const categoryTreeKey = cachePrefixCategories + "tree"

type CategoryService struct {
	Repo     *repo.GormRepo
	Cache    Cache
	Events   Publisher
	CacheTTL time.Duration
}

func (s *CategoryService) ListCategories(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx, parentID)
}

// CategoryTree returns root categories with nested children.
func (s *CategoryService) CategoryTree(ctx context.Context) ([]transport.CategoryNode, error) {
	var cached []transport.CategoryNode
	if cacheGet(ctx, s.Cache, categoryTreeKey, &cached) {
		return cached, nil
	}

	all, err := s.Repo.ListCategories(ctx, nil)
	if err != nil {
		return nil, err
	}
	tree := buildTree(all)
	cacheSet(ctx, s.Cache, categoryTreeKey, tree, s.CacheTTL)
	return tree, nil
}

func buildTree(all []models.Category) []transport.CategoryNode {
	byParent := make(map[uuid.UUID][]models.Category)
	known := make(map[uuid.UUID]bool, len(all))
	for _, c := range all {
		known[c.ID] = true
	}
	var roots []models.Category
	for _, c := range all {
		if c.ParentID == nil || !known[*c.ParentID] {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	var build func(cs []models.Category) []transport.CategoryNode
	build = func(cs []models.Category) []transport.CategoryNode {
		out := make([]transport.CategoryNode, 0, len(cs))
		for _, c := range cs {
			out = append(out, transport.CategoryNode{
				ID:        c.ID,
				Name:      c.Name,
				Slug:      c.Slug,
				ImageURL:  c.ImageURL,
				SortOrder: c.SortOrder,
				Children:  build(byParent[c.ID]),
			})
		}
		return out
	}
	return build(roots)
}

func (s *CategoryService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.Repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	slug := util.Slugify(req.Slug)
	if strings.TrimSpace(req.Slug) == "" {
		slug = util.Slugify(name)
	}
	if err := s.ensureCategorySlugFree(ctx, slug, uuid.Nil); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if _, err := s.Repo.GetCategory(ctx, *req.ParentID); err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: parent category does not exist", ErrValidation)
			}
			return nil, err
		}
	}

	c := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   req.SortOrder,
		ParentID:    req.ParentID,
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, dupKey(err, "category slug")
	}

	s.changed(ctx, "category_created", c)
	return c, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.PatchCategoryRequest) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name required", ErrValidation)
		}
		c.Name = name
		if req.Slug == nil {
			c.Slug = util.Slugify(name)
		}
	}
	if req.Slug != nil {
		c.Slug = util.Slugify(*req.Slug)
	}
	if err := s.ensureCategorySlugFree(ctx, c.Slug, c.ID); err != nil {
		return nil, err
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.ImageURL != nil {
		c.ImageURL = *req.ImageURL
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}

	switch {
	case req.ClearParent:
		c.ParentID = nil
	case req.ParentID != nil:
		if err := s.checkNewParent(ctx, c.ID, *req.ParentID); err != nil {
			return nil, err
		}
		parent := *req.ParentID
		c.ParentID = &parent
	}

	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		return nil, dupKey(err, "category slug")
	}

	s.changed(ctx, "category_updated", c)
	return c, nil
}

// checkNewParent rejects a parent that is the category itself or one of its descendants.
func (s *CategoryService) checkNewParent(ctx context.Context, id, parentID uuid.UUID) error {
	if _, err := s.Repo.GetCategory(ctx, parentID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: parent category does not exist", ErrValidation)
		}
		return err
	}
	subtree, err := s.Repo.CategorySubtree(ctx, id)
	if err != nil {
		return err
	}
	for _, sid := range subtree {
		if sid == parentID {
			return fmt.Errorf("%w: category cannot be moved under itself", ErrValidation)
		}
	}
	return nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return notFound(err, "category")
	}

	products, err := s.Repo.CountCategoryProducts(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return fmt.Errorf("%w: category has %d products", ErrConflict, products)
	}
	children, err := s.Repo.CountCategoryChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("%w: category has subcategories", ErrConflict)
	}

	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return notFound(err, "category")
	}
	s.changed(ctx, "category_deleted", c)
	return nil
}

func (s *CategoryService) ensureCategorySlugFree(ctx context.Context, slug string, except uuid.UUID) error {
	taken, err := s.Repo.CategorySlugExists(ctx, slug, except)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: category slug %q already exists", ErrConflict, slug)
	}
	return nil
}

func (s *CategoryService) changed(ctx context.Context, eventType string, c *models.Category) {
	revalidate(ctx, s.Cache, cachePrefixCategories, cachePrefixProducts)
	publish(ctx, s.Events, TopicCategories, c.ID.String(), map[string]any{
		"type":       eventType,
		"categoryID": c.ID.String(),
		"slug":       c.Slug,
		"name":       c.Name,
	})
}
