package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/pkg/errors"
)

func TestCreateAffiliateLinkRequiresActiveProduct(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")

	for _, status := range []domain.ProductStatus{domain.ProductStatusPending, domain.ProductStatusRejected, domain.ProductStatusInactive} {
		t.Run(string(status), func(t *testing.T) {
			p := h.product(t, nil, "100", 5, "10", status)
			_, err := h.svc.Affiliates.Create(ctx, seller.ID, p.ID)
			var unavailable *errors.ErrProductUnavailable
			assert.True(t, stderrors.As(err, &unavailable))
		})
	}

	active := h.product(t, nil, "100", 5, "12.5", domain.ProductStatusActive)
	link, err := h.svc.Affiliates.Create(ctx, seller.ID, active.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^AFF-[0-9A-F]{8}[A-Z2-7]{10}$`, link.Code)
	assert.True(t, link.CommissionRate.Equal(dec("12.5")))
	assert.True(t, link.IsActive)

	_, err = h.svc.Affiliates.Create(ctx, seller.ID, active.ID)
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeDuplicateLink, conflict.Code)
}

func TestAffiliateCommissionIsSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")
	p := h.product(t, nil, "100", 5, "10", domain.ProductStatusActive)

	link, err := h.svc.Affiliates.Create(ctx, seller.ID, p.ID)
	require.NoError(t, err)

	pct := dec("30")
	_, err = h.svc.Catalog.UpdateProduct(ctx, p.ID, UpdateProductRequest{AffiliatePercentage: &pct})
	require.NoError(t, err)

	got, err := h.repos.AffiliateLink.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.True(t, got.CommissionRate.Equal(dec("10")))
}

func TestRecordClickCountsShopVisit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")
	p := h.product(t, nil, "100", 5, "10", domain.ProductStatusActive)
	link, err := h.svc.Affiliates.Create(ctx, seller.ID, p.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := h.svc.Affiliates.RecordClick(ctx, link.Code)
		require.NoError(t, err)
	}

	got, err := h.repos.AffiliateLink.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Clicks)
	shop, err := h.repos.Shop.GetBySellerID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), shop.Analytics.TotalVisits)

	_, err = h.svc.Affiliates.Deactivate(ctx, seller.ID, link.ID)
	require.NoError(t, err)
	_, err = h.svc.Affiliates.RecordClick(ctx, link.Code)
	var notFound *errors.ErrNotFound
	assert.True(t, stderrors.As(err, &notFound))
}

func TestConcurrentConversionsAreNotLost(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")
	p := h.product(t, nil, "100", 5, "10", domain.ProductStatusActive)
	link, err := h.svc.Affiliates.Create(ctx, seller.ID, p.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.svc.Affiliates.RecordConversion(ctx, link.ID, dec("1.10")))
		}()
	}
	wg.Wait()

	got, err := h.repos.AffiliateLink.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Conversions)
	assert.True(t, got.Earnings.Equal(dec("55")), "earnings %s", got.Earnings)

	err = h.svc.Affiliates.RecordConversion(ctx, link.ID, dec("-1"))
	var validation *errors.ErrValidation
	assert.True(t, stderrors.As(err, &validation))
}

func TestDeactivateOnlyOwnLinks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.approvedSeller(t, "owner@example.com")
	other := h.approvedSeller(t, "other@example.com")
	p := h.product(t, nil, "100", 5, "10", domain.ProductStatusActive)
	link, err := h.svc.Affiliates.Create(ctx, owner.ID, p.ID)
	require.NoError(t, err)

	_, err = h.svc.Affiliates.Deactivate(ctx, other.ID, link.ID)
	var notFound *errors.ErrNotFound
	assert.True(t, stderrors.As(err, &notFound))

	links, err := h.svc.Affiliates.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].IsActive)
}
