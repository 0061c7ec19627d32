package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/pkg/errors"
)

func TestEvaluateCoupon(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)
	productA, productB := uuid.New(), uuid.New()
	category := uuid.New()
	lines := []cartLine{
		{ProductID: productA, CategoryID: category, Total: dec("300")},
		{ProductID: productB, CategoryID: uuid.New(), Total: dec("700")},
	}
	maxDiscount := dec("50")
	one := 1

	tests := []struct {
		name     string
		coupon   domain.Coupon
		want     string
		wantFail bool
	}{
		{"percentage", domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountValue: dec("10")}, "100", false},
		{"percentage capped", domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountValue: dec("10"), MaxDiscount: &maxDiscount}, "50", false},
		{"percentage rounds", domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountValue: dec("3.333")}, "33.33", false},
		{"fixed", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("75")}, "75", false},
		{"fixed capped by base", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5000")}, "1000", false},
		{"product scoped", domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountValue: dec("10"), ProductIDs: []uuid.UUID{productB}}, "70", false},
		{"category scoped", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("500"), CategoryIDs: []uuid.UUID{category}}, "300", false},
		{"scope misses", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5"), ProductIDs: []uuid.UUID{uuid.New()}}, "", true},
		{"inactive", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5"), IsActive: false}, "", true},
		{"not started", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5"), ValidFrom: &tomorrow}, "", true},
		{"expired", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5"), ValidUntil: &yesterday}, "", true},
		{"in window", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5"), ValidFrom: &yesterday, ValidUntil: &tomorrow}, "5", false},
		{"exhausted", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5"), UsageLimit: &one, UsedCount: 1}, "", true},
		{"below minimum", domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: dec("5"), MinOrderAmount: dec("1000.01")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.coupon
			if tt.name != "inactive" {
				c.IsActive = true
			}
			got, err := evaluateCoupon(&c, dec("1000"), lines, now)
			if tt.wantFail {
				var validation *errors.ErrValidation
				assert.True(t, stderrors.As(err, &validation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCreateCoupon(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	c, err := h.svc.Coupons.Create(ctx, CreateCouponRequest{Code: " welcome ", DiscountType: domain.DiscountFixed, DiscountValue: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", c.Code)
	assert.True(t, c.IsActive)

	_, err = h.svc.Coupons.Create(ctx, CreateCouponRequest{Code: "Welcome", DiscountType: domain.DiscountFixed, DiscountValue: dec("10")})
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeDuplicateCoupon, conflict.Code)

	zero := 0
	_, err = h.svc.Coupons.Create(ctx, CreateCouponRequest{
		Code:          "BROKEN",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: dec("120"),
		UsageLimit:    &zero,
	})
	var validation *errors.ErrValidation
	require.True(t, stderrors.As(err, &validation))
	assert.Contains(t, validation.Fields, "discount_value")
	assert.Contains(t, validation.Fields, "usage_limit")
}

func TestValidateCouponPreview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.product(t, nil, "250", 10, "0", domain.ProductStatusActive)
	c, err := h.svc.Coupons.Create(ctx, CreateCouponRequest{Code: "QUARTER", DiscountType: domain.DiscountPercentage, DiscountValue: dec("25")})
	require.NoError(t, err)

	quote, err := h.svc.Coupons.Validate(ctx, ValidateCouponRequest{
		Code:  "quarter",
		Items: []OrderItemRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "QUARTER", quote.Code)
	assert.True(t, quote.Subtotal.Equal(dec("500")))
	assert.True(t, quote.Discount.Equal(dec("125")))

	_, err = h.svc.Coupons.SetActive(ctx, c.ID, false)
	require.NoError(t, err)
	_, err = h.svc.Coupons.Validate(ctx, ValidateCouponRequest{Code: "QUARTER", Items: []OrderItemRequest{{ProductID: p.ID, Quantity: 1}}})
	var validation *errors.ErrValidation
	assert.True(t, stderrors.As(err, &validation))

	_, err = h.svc.Coupons.Validate(ctx, ValidateCouponRequest{Code: "NOPE", Items: []OrderItemRequest{{ProductID: p.ID, Quantity: 1}}})
	assert.True(t, stderrors.As(err, &validation))
}

func TestCouponsDisabled(t *testing.T) {
	h := newHarness(t)
	h.cfg.Site.EnableCoupons = false
	_, _, err := h.svc.Coupons.Quote(context.Background(), "ANY", decimal.NewFromInt(10), nil)
	var validation *errors.ErrValidation
	assert.True(t, stderrors.As(err, &validation))
}
