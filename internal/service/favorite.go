package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type FavoriteService struct {
	Repo *repo.GormRepo
}

// ListFavorites returns the favorite products that are still on sale.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]models.Product, error) {
	favs, err := s.Repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(favs))
	for _, f := range favs {
		if f.Product == nil || f.Product.IsArchived {
			continue
		}
		out = append(out, *f.Product)
	}
	return out, nil
}

func (s *FavoriteService) AddFavorite(ctx context.Context, userID string, productID uuid.UUID) error {
	ids, err := s.Repo.ExistingProductIDs(ctx, []uuid.UUID{productID})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: product", ErrNotFound)
	}
	return s.Repo.AddFavorites(ctx, userID, ids)
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID string, productID uuid.UUID) error {
	if err := s.Repo.RemoveFavorite(ctx, userID, productID); err != nil {
		return notFound(err, "favorite")
	}
	return nil
}

// SyncFavorites adds the client's list to the stored one and returns the union.
func (s *FavoriteService) SyncFavorites(ctx context.Context, userID string, productIDs []uuid.UUID) ([]models.Product, error) {
	seen := make(map[uuid.UUID]bool, len(productIDs))
	uniq := make([]uuid.UUID, 0, len(productIDs))
	for _, id := range productIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}

	existing, err := s.Repo.ExistingProductIDs(ctx, uniq)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddFavorites(ctx, userID, existing); err != nil {
		return nil, err
	}
	return s.ListFavorites(ctx, userID)
}
