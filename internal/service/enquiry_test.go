package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

func enquiryRequest(h *harness, t *testing.T) SubmitEnquiryRequest {
	return SubmitEnquiryRequest{
		Name:           "Hand-loomed scarf",
		Description:    "Wool, 180cm",
		CategoryID:     h.category(t).ID,
		SuggestedPrice: dec("450"),
		Message:        "We can supply 200 units a month",
	}
}

func TestSubmitEnquiryRejectsDuplicateProduct(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")
	product := h.product(t, nil, "500", 10, "0", domain.ProductStatusActive)

	req := enquiryRequest(h, t)
	req.ProductID = &product.ID
	_, err := h.svc.Enquiries.Submit(ctx, seller.ID, req)
	require.NoError(t, err)

	_, err = h.svc.Enquiries.Submit(ctx, seller.ID, req)
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeDuplicateEnquiry, conflict.Code)
	assert.Contains(t, conflict.Error(), "already exists")

	other := h.approvedSeller(t, "other@example.com")
	_, err = h.svc.Enquiries.Submit(ctx, other.ID, req)
	assert.NoError(t, err, "a different seller may enquire about the same product")
}

func TestSubmitEnquiryValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")

	_, err := h.svc.Enquiries.Submit(ctx, seller.ID, SubmitEnquiryRequest{SuggestedPrice: dec("1.234")})
	var validation *errors.ErrValidation
	require.True(t, stderrors.As(err, &validation))
	for _, field := range []string{"name", "description", "category_id", "suggested_price", "message"} {
		assert.Contains(t, validation.Fields, field)
	}

	h.cfg.Site.EnableEnquiries = false
	_, err = h.svc.Enquiries.Submit(ctx, seller.ID, enquiryRequest(h, t))
	var forbidden *errors.ErrForbidden
	assert.True(t, stderrors.As(err, &forbidden))
}

func TestResolveEnquiryCreatesSellerProduct(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")

	enquiry, err := h.svc.Enquiries.Submit(ctx, seller.ID, enquiryRequest(h, t))
	require.NoError(t, err)

	stock := 25
	resolved, err := h.svc.Enquiries.Resolve(ctx, enquiry.ID, ResolveEnquiryRequest{
		Decision: domain.EnquiryStatusApproved,
		Feedback: "Listed",
		Stock:    &stock,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EnquiryStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ApprovedProductID)
	require.NotNil(t, resolved.ResolvedAt)

	product, err := h.repos.Product.GetByID(ctx, *resolved.ApprovedProductID)
	require.NoError(t, err)
	assert.Equal(t, "Hand-loomed scarf", product.Name)
	assert.True(t, product.Price.Equal(dec("450")))
	assert.Equal(t, 25, product.Stock)
	assert.Equal(t, domain.ProductStatusActive, product.Status)
	require.NotNil(t, product.SellerID)
	assert.Equal(t, seller.ID, *product.SellerID)
	assert.Regexp(t, `^ENQ-[0-9A-F]{8}$`, product.SKU)

	_, err = h.svc.Enquiries.Resolve(ctx, enquiry.ID, ResolveEnquiryRequest{Decision: domain.EnquiryStatusRejected})
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeAlreadyResolved, conflict.Code)

	notes, err := h.svc.Notifications.List(ctx, seller.ID, false, pageOne())
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationEnquiryResolved, notes.Items[0].Type)
}

func TestResolveEnquiryExistingProduct(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")
	product := h.product(t, nil, "500", 10, "0", domain.ProductStatusActive)
	req := enquiryRequest(h, t)
	req.ProductID = &product.ID

	enquiry, err := h.svc.Enquiries.Submit(ctx, seller.ID, req)
	require.NoError(t, err)
	resolved, err := h.svc.Enquiries.Resolve(ctx, enquiry.ID, ResolveEnquiryRequest{Decision: domain.EnquiryStatusApproved})
	require.NoError(t, err)
	require.NotNil(t, resolved.ApprovedProductID)
	assert.Equal(t, product.ID, *resolved.ApprovedProductID)

	products, err := h.svc.Catalog.ListProducts(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, products.Total)
}

func TestConcurrentResolveAppliesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")
	enquiry, err := h.svc.Enquiries.Submit(ctx, seller.ID, enquiryRequest(h, t))
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Enquiries.Resolve(ctx, enquiry.ID, ResolveEnquiryRequest{Decision: domain.EnquiryStatusApproved})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	products, err := h.svc.Catalog.ListProducts(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, products.Total)
}

func TestResolveEnquiryRejectsUnknownDecision(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")
	enquiry, err := h.svc.Enquiries.Submit(ctx, seller.ID, enquiryRequest(h, t))
	require.NoError(t, err)

	_, err = h.svc.Enquiries.Resolve(ctx, enquiry.ID, ResolveEnquiryRequest{Decision: domain.EnquiryStatusPending})
	var validation *errors.ErrValidation
	assert.True(t, stderrors.As(err, &validation))

	pending := domain.EnquiryStatusPending
	queue, err := h.svc.Enquiries.List(ctx, repository.EnquiryFilter{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, 1, queue.Total)
}
