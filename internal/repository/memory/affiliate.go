package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type affiliateLinkRepository struct {
	s *Store
}

func (r *affiliateLinkRepository) Create(ctx context.Context, link *domain.AffiliateLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.links {
		if l.SellerID == link.SellerID && l.ProductID == link.ProductID {
			return &errors.ErrConflict{Code: errors.CodeDuplicateLink, Message: "an affiliate link for this product already exists"}
		}
		if l.Code == link.Code {
			return repository.ErrDuplicateAffiliateCode
		}
	}
	r.s.track(&link.ID)
	now := r.s.now()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now
	c := *link
	r.s.links[link.ID] = &c
	return nil
}

func (r *affiliateLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AffiliateLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.links[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	c := *l
	return &c, nil
}

func (r *affiliateLinkRepository) GetByCode(ctx context.Context, code string) (*domain.AffiliateLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.links {
		if l.Code == code {
			c := *l
			return &c, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "affiliate_link", ID: code}
}

func (r *affiliateLinkRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.AffiliateLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.AffiliateLink
	for _, l := range r.s.links {
		if l.SellerID == sellerID {
			c := *l
			out = append(out, &c)
		}
	}
	newestFirst(r.s, out, func(l *domain.AffiliateLink) uuid.UUID { return l.ID })
	return out, nil
}

func (r *affiliateLinkRepository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.links[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	l.Clicks++
	l.UpdatedAt = r.s.now()
	return nil
}

func (r *affiliateLinkRepository) RecordConversion(ctx context.Context, id uuid.UUID, earnings decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.recordConversion(id, earnings)
}

// recordConversion bumps conversion counters; callers hold mu
func (s *Store) recordConversion(id uuid.UUID, earnings decimal.Decimal) error {
	l, ok := s.links[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	l.Conversions++
	l.Earnings = l.Earnings.Add(earnings)
	l.UpdatedAt = s.now()
	return nil
}

func (r *affiliateLinkRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.links[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	l.IsActive = active
	l.UpdatedAt = r.s.now()
	return nil
}

func (r *affiliateLinkRepository) Totals(ctx context.Context, sellerID *uuid.UUID) (*repository.AffiliateTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	totals := &repository.AffiliateTotals{Earnings: decimal.Zero}
	for _, l := range r.s.links {
		if sellerID != nil && l.SellerID != *sellerID {
			continue
		}
		totals.Links++
		totals.Clicks += l.Clicks
		totals.Conversions += l.Conversions
		totals.Earnings = totals.Earnings.Add(l.Earnings)
	}
	return totals, nil
}
