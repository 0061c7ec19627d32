package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type categoryRepository struct {
	s *Store
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.categories {
		if c.Slug == category.Slug {
			return &errors.ErrConflict{Code: errors.CodeDuplicateSlug, Message: "category slug already exists"}
		}
	}
	r.s.track(&category.ID)
	if category.CreatedAt.IsZero() {
		category.CreatedAt = r.s.now()
	}
	c := *category
	r.s.categories[category.ID] = &c
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "category", ID: id.String()}
	}
	cp := *c
	return &cp, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	newestFirst(r.s, out, func(c *domain.Category) uuid.UUID { return c.ID })
	return out, nil
}

type productRepository struct {
	s *Store
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	return &c
}

// insertProduct stores a product; callers hold mu
func (s *Store) insertProduct(product *domain.Product) error {
	for _, p := range s.products {
		if p.SKU == product.SKU {
			return &errors.ErrConflict{Code: errors.CodeDuplicateSKU, Message: "sku already exists"}
		}
	}
	s.track(&product.ID)
	now := s.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertProduct(product)
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return cloneProduct(p), nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.products[product.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}
	for _, p := range r.s.products {
		if p.ID != product.ID && p.SKU == product.SKU {
			return &errors.ErrConflict{Code: errors.CodeDuplicateSKU, Message: "sku already exists"}
		}
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = r.s.now()
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*domain.Product
	for _, p := range r.s.products {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.SellerID != nil && (p.SellerID == nil || *p.SellerID != *filter.SellerID) {
			continue
		}
		if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	newestFirst(r.s, out, func(p *domain.Product) uuid.UUID { return p.ID })
	return repository.Window(out, filter.Page), len(out), nil
}

func (r *productRepository) CountByStatus(ctx context.Context) (map[domain.ProductStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[domain.ProductStatus]int)
	for _, p := range r.s.products {
		counts[p.Status]++
	}
	return counts, nil
}
