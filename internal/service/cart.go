package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*transport.CartResponse, error) {
	items, err := loadCart(ctx, s.Repo, userID)
	if err != nil {
		return nil, err
	}
	return buildCart(items), nil
}

// loadCart returns the user's cart lines. Lines whose variant or product no longer
// exists are deleted and left out.
func loadCart(ctx context.Context, r *repo.GormRepo, userID string) ([]models.CartItem, error) {
	items, err := r.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	live := items[:0]
	var orphans []uuid.UUID
	for _, it := range items {
		if it.Variant == nil || it.Variant.Product == nil {
			orphans = append(orphans, it.VariantID)
			continue
		}
		live = append(live, it)
	}
	if len(orphans) > 0 {
		if err := r.PruneCart(ctx, userID, orphans); err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Infow("cart_pruned", "user_id", userID, "lines", len(orphans))
	}
	return live, nil
}

func buildCart(items []models.CartItem) *transport.CartResponse {
	out := &transport.CartResponse{Items: []transport.CartLine{}, Subtotal: decimal.Zero}
	for _, it := range items {
		v := it.Variant
		line := transport.CartLine{
			VariantID:   v.ID,
			ProductID:   v.Product.ID,
			ProductName: v.Product.Name,
			ProductSlug: v.Product.Slug,
			Color:       v.Color,
			UnitPrice:   v.Product.Price,
			Quantity:    it.Quantity,
			LineTotal:   v.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
			Stock:       v.Stock,
		}
		if v.Size != nil {
			line.Size = v.Size.Name
		}
		if len(v.Product.Images) > 0 {
			line.ImageURL = v.Product.Images[0].URL
		}
		out.Items = append(out.Items, line)
		out.Count += it.Quantity
		out.Subtotal = out.Subtotal.Add(line.LineTotal)
	}
	return out
}

// availableVariant loads a variant that can still be bought.
func (s *CartService) availableVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	v, err := s.Repo.GetVariant(ctx, id)
	if err != nil {
		return nil, notFound(err, "variant")
	}
	if v.Product == nil || v.Product.IsArchived {
		return nil, fmt.Errorf("%w: product is not available", ErrNotFound)
	}
	return v, nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, req transport.CartItemRequest) (*transport.CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	v, err := s.availableVariant(ctx, req.VariantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.AddToCart(ctx, userID, v.ID, req.Quantity, v.Stock); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: only %d in stock", ErrConflict, v.Stock)
		}
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// UpdateItem sets the line quantity. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID string, variantID uuid.UUID, qty int) (*transport.CartResponse, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, variantID)
	}
	v, err := s.availableVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if qty > v.Stock {
		return nil, fmt.Errorf("%w: only %d in stock", ErrConflict, v.Stock)
	}
	if err := s.Repo.SetCartQuantity(ctx, userID, variantID, qty); err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, variantID uuid.UUID) (*transport.CartResponse, error) {
	if err := s.Repo.DeleteFromCart(ctx, userID, variantID); err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	return s.Repo.ClearCart(ctx, userID)
}

// SyncCart merges a client-side cart into the stored one. For each variant the larger
// quantity wins, clamped to stock. Unknown or unavailable variants are skipped.
func (s *CartService) SyncCart(ctx context.Context, userID string, req transport.SyncCartRequest) (*transport.CartResponse, error) {
	l := logging.FromContext(ctx)

	current, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	have := make(map[uuid.UUID]int, len(current))
	for _, it := range current {
		have[it.VariantID] = it.Quantity
	}

	merged := make(map[uuid.UUID]int)
	for _, in := range req.Items {
		if in.Quantity <= 0 {
			continue
		}
		v, err := s.availableVariant(ctx, in.VariantID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				l.Debugw("cart_sync_skip", "variant_id", in.VariantID.String())
				continue
			}
			return nil, err
		}
		qty := max(in.Quantity, have[v.ID], merged[v.ID])
		if qty > v.Stock {
			qty = v.Stock
		}
		if qty <= 0 {
			continue
		}
		merged[v.ID] = qty
	}

	if err := s.Repo.UpsertCartLines(ctx, userID, merged); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}
