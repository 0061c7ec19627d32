package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type shopRepository struct {
	s *Store
}

// Create inserts the seller's shop; an existing shop is returned in shop unchanged
func (r *shopRepository) Create(ctx context.Context, shop *domain.SellerShop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.shops[shop.SellerID]; ok {
		*shop = *existing
		return nil
	}
	r.s.track(&shop.ID)
	now := r.s.now()
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = now
	}
	shop.UpdatedAt = now
	c := *shop
	r.s.shops[shop.SellerID] = &c
	return nil
}

func (r *shopRepository) GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*domain.SellerShop, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	shop, ok := r.s.shops[sellerID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "shop", ID: sellerID.String()}
	}
	c := *shop
	return &c, nil
}

func (r *shopRepository) IncrementVisits(ctx context.Context, shopID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, shop := range r.s.shops {
		if shop.ID == shopID {
			shop.Analytics.TotalVisits++
			shop.UpdatedAt = r.s.now()
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "shop", ID: shopID.String()}
}
