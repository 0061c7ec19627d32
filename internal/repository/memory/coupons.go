package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type couponRepository struct {
	s *Store
}

func cloneCoupon(c *domain.Coupon) *domain.Coupon {
	cp := *c
	cp.ProductIDs = cloneUUIDs(c.ProductIDs)
	cp.CategoryIDs = cloneUUIDs(c.CategoryIDs)
	return &cp
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.coupons {
		if strings.EqualFold(c.Code, coupon.Code) {
			return &errors.ErrConflict{Code: errors.CodeDuplicateCoupon, Message: "coupon code already exists"}
		}
	}
	r.s.track(&coupon.ID)
	now := r.s.now()
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = now
	}
	coupon.UpdatedAt = now
	r.s.coupons[coupon.ID] = cloneCoupon(coupon)
	return nil
}

func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.coupons[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: id.String()}
	}
	return cloneCoupon(c), nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.coupons {
		if strings.EqualFold(c.Code, code) {
			return cloneCoupon(c), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "coupon", ID: code}
}

func (r *couponRepository) List(ctx context.Context, page repository.Page) ([]*domain.Coupon, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Coupon, 0, len(r.s.coupons))
	for _, c := range r.s.coupons {
		out = append(out, cloneCoupon(c))
	}
	newestFirst(r.s, out, func(c *domain.Coupon) uuid.UUID { return c.ID })
	return repository.Window(out, page), len(out), nil
}

func (r *couponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.coupons[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "coupon", ID: id.String()}
	}
	c.IsActive = active
	c.UpdatedAt = r.s.now()
	return nil
}
