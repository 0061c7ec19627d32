package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

// MaxAffiliatePercentage bounds a product's affiliate commission
var MaxAffiliatePercentage = decimal.NewFromInt(50)

type catalogService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repos *repository.Repositories, logger *zap.Logger) *catalogService {
	return &catalogService{
		repos:  repos,
		logger: logger,
	}
}

// CreateCategory creates an active category
func (s *catalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &errors.ErrValidation{Message: "name is required", Fields: map[string]string{"name": "required"}}
	}
	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return nil, &errors.ErrValidation{Message: "slug is required", Fields: map[string]string{"slug": "invalid"}}
	}
	category := &domain.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}
	if err := s.repos.Category.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories lists categories; public callers only see active ones
func (s *catalogService) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.repos.Category.List(ctx, activeOnly)
}

func validateProductFields(price decimal.Decimal, stock int, affiliatePct decimal.Decimal) error {
	fields := map[string]string{}
	if price.IsNegative() {
		fields["price"] = "must be >= 0"
	} else if !price.Equal(domain.RoundMoney(price)) {
		fields["price"] = "at most 2 decimal places"
	}
	if stock < 0 {
		fields["stock"] = "must be >= 0"
	}
	if affiliatePct.IsNegative() || affiliatePct.GreaterThan(MaxAffiliatePercentage) {
		fields["affiliate_percentage"] = "must be between 0 and 50"
	}
	if len(fields) > 0 {
		return &errors.ErrValidation{Message: "invalid product", Fields: fields}
	}
	return nil
}

func (s *catalogService) requireCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return &errors.ErrValidation{Message: "category is required", Fields: map[string]string{"category_id": "required"}}
	}
	if _, err := s.repos.Category.GetByID(ctx, id); err != nil {
		return err
	}
	return nil
}

// CreateProduct adds an admin-owned active product
func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &errors.ErrValidation{Message: "name is required", Fields: map[string]string{"name": "required"}}
	}
	if err := validateProductFields(req.Price, req.Stock, req.AffiliatePercentage); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		generated, err := randomCode(10)
		if err != nil {
			return nil, err
		}
		sku = "SKU-" + generated
	}

	product := &domain.Product{
		Name:                name,
		Description:         strings.TrimSpace(req.Description),
		Price:               req.Price,
		Stock:               req.Stock,
		SKU:                 sku,
		CategoryID:          req.CategoryID,
		Images:              req.Images,
		AffiliatePercentage: req.AffiliatePercentage,
		Status:              domain.ProductStatusActive,
	}
	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("sku", sku))
	return product, nil
}

// UpdateProduct applies the present fields. Existing affiliate links keep their commission snapshot.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*domain.Product, error) {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &errors.ErrValidation{Message: "name is required", Fields: map[string]string{"name": "required"}}
		}
		product.Name = name
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.AffiliatePercentage != nil {
		product.AffiliatePercentage = *req.AffiliatePercentage
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.CategoryID != nil {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, &errors.ErrValidation{Message: "invalid product status", Fields: map[string]string{"status": "invalid"}}
		}
		product.Status = *req.Status
	}
	if err := validateProductFields(product.Price, product.Stock, product.AffiliatePercentage); err != nil {
		return nil, err
	}
	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns a product; publicOnly hides anything that is not active
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID, publicOnly bool) (*domain.Product, error) {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if publicOnly && product.Status != domain.ProductStatusActive {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return product, nil
}

// ListProducts runs a typed product query
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) (*PageResult[*domain.Product], error) {
	filter.Page = filter.Page.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, &errors.ErrValidation{Message: "min_price must not exceed max_price"}
	}
	products, total, err := s.repos.Product.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return newPageResult(products, total, filter.Page), nil
}

// ListPublicProducts forces the active-only visibility rule
func (s *catalogService) ListPublicProducts(ctx context.Context, filter repository.ProductFilter) (*PageResult[*domain.Product], error) {
	active := domain.ProductStatusActive
	filter.Status = &active
	return s.ListProducts(ctx, filter)
}
