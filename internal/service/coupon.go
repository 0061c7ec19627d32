package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type couponService struct {
	cfg    *config.Config
	repos  *repository.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewCouponService creates a new coupon service
func NewCouponService(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) *couponService {
	return &couponService{
		cfg:    cfg,
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// cartLine is the part of an order line a coupon looks at
type cartLine struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	Total      decimal.Decimal
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create adds a coupon. Codes are stored upper-cased.
func (s *couponService) Create(ctx context.Context, req CreateCouponRequest) (*domain.Coupon, error) {
	code := normalizeCouponCode(req.Code)
	fields := map[string]string{}
	if code == "" {
		fields["code"] = "required"
	}
	switch req.DiscountType {
	case domain.DiscountPercentage:
		if !req.DiscountValue.IsPositive() || req.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			fields["discount_value"] = "must be greater than 0 and at most 100"
		}
	case domain.DiscountFixed:
		if !req.DiscountValue.IsPositive() {
			fields["discount_value"] = "must be greater than 0"
		}
	default:
		fields["discount_type"] = "must be percentage or fixed"
	}
	if req.MinOrderAmount.IsNegative() {
		fields["min_order_amount"] = "must be >= 0"
	}
	if req.MaxDiscount != nil && !req.MaxDiscount.IsPositive() {
		fields["max_discount"] = "must be greater than 0"
	}
	if req.UsageLimit != nil && *req.UsageLimit < 1 {
		fields["usage_limit"] = "must be at least 1"
	}
	if req.ValidFrom != nil && req.ValidUntil != nil && req.ValidUntil.Before(*req.ValidFrom) {
		fields["valid_until"] = "must be after valid_from"
	}
	if len(fields) > 0 {
		return nil, &errors.ErrValidation{Message: "invalid coupon", Fields: fields}
	}

	coupon := &domain.Coupon{
		Code:           code,
		Description:    strings.TrimSpace(req.Description),
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		UsageLimit:     req.UsageLimit,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		IsActive:       true,
		ProductIDs:     req.ProductIDs,
		CategoryIDs:    req.CategoryIDs,
	}
	if err := s.repos.Coupon.Create(ctx, coupon); err != nil {
		return nil, err
	}
	s.logger.Info("Coupon created", zap.String("coupon_code", code))
	return coupon, nil
}

// List returns coupons for the admin console
func (s *couponService) List(ctx context.Context, page repository.Page) (*PageResult[*domain.Coupon], error) {
	page = page.Normalize()
	items, total, err := s.repos.Coupon.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return newPageResult(items, total, page), nil
}

// SetActive toggles a coupon
func (s *couponService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Coupon, error) {
	if err := s.repos.Coupon.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.repos.Coupon.GetByID(ctx, id)
}

// Validate previews the discount a coupon gives the listed items at catalog prices
func (s *couponService) Validate(ctx context.Context, req ValidateCouponRequest) (*CouponQuote, error) {
	lines := make([]cartLine, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &errors.ErrValidation{Message: "quantity must be at least 1", Fields: map[string]string{"quantity": "min"}}
		}
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Status != domain.ProductStatusActive {
			return nil, &errors.ErrProductUnavailable{ProductID: product.ID.String(), Status: string(product.Status)}
		}
		total := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, cartLine{ProductID: product.ID, CategoryID: product.CategoryID, Total: total})
		subtotal = subtotal.Add(total)
	}
	coupon, discount, err := s.Quote(ctx, req.Code, subtotal, lines)
	if err != nil {
		return nil, err
	}
	return &CouponQuote{Code: coupon.Code, Subtotal: subtotal, Discount: discount}, nil
}

// Quote looks the coupon up and computes its discount for a cart
func (s *couponService) Quote(ctx context.Context, code string, subtotal decimal.Decimal, lines []cartLine) (*domain.Coupon, decimal.Decimal, error) {
	if !s.cfg.Site.EnableCoupons {
		return nil, decimal.Zero, &errors.ErrValidation{Message: "coupons are disabled", Fields: map[string]string{"coupon_code": "disabled"}}
	}
	coupon, err := s.repos.Coupon.GetByCode(ctx, normalizeCouponCode(code))
	if err != nil {
		var notFound *errors.ErrNotFound
		if stderrors.As(err, &notFound) {
			return nil, decimal.Zero, invalidCoupon("coupon code is invalid")
		}
		return nil, decimal.Zero, err
	}
	discount, err := evaluateCoupon(coupon, subtotal, lines, s.now())
	if err != nil {
		return nil, decimal.Zero, err
	}
	return coupon, discount, nil
}

func invalidCoupon(msg string) error {
	return &errors.ErrValidation{Message: msg, Fields: map[string]string{"coupon_code": "invalid"}}
}

// evaluateCoupon checks the coupon's rules and returns the discount, rounded to money precision
func evaluateCoupon(c *domain.Coupon, subtotal decimal.Decimal, lines []cartLine, now time.Time) (decimal.Decimal, error) {
	switch {
	case !c.IsActive:
		return decimal.Zero, invalidCoupon("coupon is not active")
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return decimal.Zero, invalidCoupon("coupon is not yet valid")
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return decimal.Zero, invalidCoupon("coupon has expired")
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return decimal.Zero, invalidCoupon("coupon usage limit reached")
	case subtotal.LessThan(c.MinOrderAmount):
		return decimal.Zero, invalidCoupon("minimum order amount is " + c.MinOrderAmount.StringFixed(domain.MoneyPlaces))
	}

	base := subtotal
	if len(c.ProductIDs) > 0 || len(c.CategoryIDs) > 0 {
		base = decimal.Zero
		for _, line := range lines {
			if containsUUID(c.ProductIDs, line.ProductID) || containsUUID(c.CategoryIDs, line.CategoryID) {
				base = base.Add(line.Total)
			}
		}
		if base.IsZero() {
			return decimal.Zero, invalidCoupon("coupon does not apply to these items")
		}
	}

	var discount decimal.Decimal
	if c.DiscountType == domain.DiscountPercentage {
		discount = domain.Percent(base, c.DiscountValue)
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	} else {
		discount = decimal.Min(c.DiscountValue, base)
	}
	return domain.RoundMoney(discount), nil
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
