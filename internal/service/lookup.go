package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

// LookupService manages the small reference tables: seasons and sizes.
type LookupService struct {
	Repo  *repo.GormRepo
	Cache Cache
}

func (s *LookupService) ListSeasons(ctx context.Context) ([]models.Season, error) {
	return s.Repo.ListSeasons(ctx)
}

func (s *LookupService) CreateSeason(ctx context.Context, req transport.SeasonRequest) (*models.Season, error) {
	season := &models.Season{}
	if err := s.applySeason(ctx, season, req); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveSeason(ctx, season); err != nil {
		return nil, dupKey(err, "season")
	}
	return season, nil
}

func (s *LookupService) UpdateSeason(ctx context.Context, id uuid.UUID, req transport.SeasonRequest) (*models.Season, error) {
	season, err := s.Repo.GetSeason(ctx, id)
	if err != nil {
		return nil, notFound(err, "season")
	}
	if err := s.applySeason(ctx, season, req); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveSeason(ctx, season); err != nil {
		return nil, dupKey(err, "season")
	}
	revalidate(ctx, s.Cache, cachePrefixProducts)
	return season, nil
}

func (s *LookupService) applySeason(ctx context.Context, season *models.Season, req transport.SeasonRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	slug := util.Slugify(name)
	taken, err := s.Repo.SeasonSlugExists(ctx, slug, season.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: season %q already exists", ErrConflict, slug)
	}
	season.Name = name
	season.Slug = slug
	return nil
}

func (s *LookupService) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteSeason(ctx, id); err != nil {
		return notFound(err, "season")
	}
	revalidate(ctx, s.Cache, cachePrefixProducts)
	return nil
}

func (s *LookupService) ListSizes(ctx context.Context) ([]models.Size, error) {
	return s.Repo.ListSizes(ctx)
}

func (s *LookupService) CreateSize(ctx context.Context, req transport.SizeRequest) (*models.Size, error) {
	size := &models.Size{}
	if err := s.applySize(ctx, size, req); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveSize(ctx, size); err != nil {
		return nil, dupKey(err, "size")
	}
	return size, nil
}

func (s *LookupService) UpdateSize(ctx context.Context, id uuid.UUID, req transport.SizeRequest) (*models.Size, error) {
	size, err := s.Repo.GetSize(ctx, id)
	if err != nil {
		return nil, notFound(err, "size")
	}
	if err := s.applySize(ctx, size, req); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveSize(ctx, size); err != nil {
		return nil, dupKey(err, "size")
	}
	revalidate(ctx, s.Cache, cachePrefixProducts)
	return size, nil
}

func (s *LookupService) applySize(ctx context.Context, size *models.Size, req transport.SizeRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	taken, err := s.Repo.SizeNameExists(ctx, name, size.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: size %q already exists", ErrConflict, name)
	}
	size.Name = name
	if req.SortOrder != nil {
		size.SortOrder = *req.SortOrder
	}
	return nil
}

func (s *LookupService) DeleteSize(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Repo.GetSize(ctx, id); err != nil {
		return notFound(err, "size")
	}
	used, err := s.Repo.CountSizeVariants(ctx, id)
	if err != nil {
		return err
	}
	if used > 0 {
		return fmt.Errorf("%w: size is used by %d variants", ErrConflict, used)
	}
	if err := s.Repo.DeleteSize(ctx, id); err != nil {
		return notFound(err, "size")
	}
	return nil
}
