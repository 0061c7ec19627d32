package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/pkg/errors"
)

func TestSellerLoginRequiresApproval(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	seller := h.register(t, domain.RoleSeller, "seller@example.com")
	assert.Equal(t, domain.UserStatusPending, seller.Status)

	_, err := h.svc.Identity.Login(ctx, "seller@example.com", "password123")
	var pending *errors.ErrPendingApproval
	require.True(t, stderrors.As(err, &pending))
	assert.Equal(t, "pending", pending.Status)

	_, err = h.svc.Sellers.Approve(ctx, seller.ID)
	require.NoError(t, err)

	session, err := h.svc.Identity.Login(ctx, "Seller@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, session.User.Role)

	principal, err := h.svc.Identity.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, seller.ID, principal.UserID)
	assert.Equal(t, domain.RoleSeller, principal.Role)
}

func TestLoginChecksPasswordBeforeApproval(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.register(t, domain.RoleSeller, "pending@example.com")

	_, err := h.svc.Identity.Login(ctx, "pending@example.com", "wrong-password")
	var invalid *errors.ErrInvalidCredentials
	assert.True(t, stderrors.As(err, &invalid))

	_, err = h.svc.Identity.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, stderrors.As(err, &invalid))
}

func TestRegisterSellerProvisionsWalletAndShop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.register(t, domain.RoleSeller, "shop@example.com")

	w := h.wallet(t, seller.ID)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, "INR", w.Currency)

	shop, err := h.repos.Shop.GetBySellerID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Biz shop@example.com", shop.ShopName)

	notes, err := h.svc.Notifications.List(ctx, seller.ID, true, pageOne())
	require.NoError(t, err)
	require.Equal(t, 1, notes.Total)
	assert.Equal(t, domain.NotificationSellerApplication, notes.Items[0].Type)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.customer(t, "taken@example.com")

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"admin role", RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123", Role: "admin"}},
		{"short password", RegisterRequest{Name: "A", Email: "a@example.com", Password: "short", Role: "customer"}},
		{"bad email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "password123", Role: "customer"}},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "password123", Role: "customer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Identity.Register(ctx, tt.req)
			var validation *errors.ErrValidation
			assert.True(t, stderrors.As(err, &validation), "got %v", err)
		})
	}

	_, err := h.svc.Identity.Register(ctx, RegisterRequest{Name: "B", Email: "TAKEN@example.com", Password: "password123", Role: "customer"})
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeDuplicateEmail, conflict.Code)
}

func TestSellerOnboardingTransitions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	approved := h.approvedSeller(t, "ok@example.com")
	again, err := h.svc.Sellers.Approve(ctx, approved.ID)
	require.NoError(t, err, "re-approving is a no-op")
	assert.Equal(t, domain.UserStatusApproved, again.Status)

	_, err = h.svc.Sellers.Reject(ctx, approved.ID, "too late")
	var transition *errors.ErrInvalidStateTransition
	assert.True(t, stderrors.As(err, &transition))

	rejected := h.register(t, domain.RoleSeller, "no@example.com")
	_, err = h.svc.Sellers.Reject(ctx, rejected.ID, "")
	var validation *errors.ErrValidation
	assert.True(t, stderrors.As(err, &validation))

	got, err := h.svc.Sellers.Reject(ctx, rejected.ID, "incomplete documents")
	require.NoError(t, err)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "incomplete documents", *got.RejectionReason)

	_, err = h.svc.Identity.Login(ctx, "no@example.com", "password123")
	var pending *errors.ErrPendingApproval
	require.True(t, stderrors.As(err, &pending))
	assert.Contains(t, pending.Error(), "incomplete documents")

	_, err = h.svc.Sellers.Approve(ctx, rejected.ID)
	assert.True(t, stderrors.As(err, &transition))

	customer := h.customer(t, "buyer@example.com")
	_, err = h.svc.Sellers.Approve(ctx, customer.ID)
	var notFound *errors.ErrNotFound
	assert.True(t, stderrors.As(err, &notFound))
}

func TestListSellers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.approvedSeller(t, "one@example.com")
	h.register(t, domain.RoleSeller, "two@example.com")
	h.customer(t, "three@example.com")

	all, err := h.svc.Sellers.List(ctx, SellerQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 20, all.Limit)

	pending := domain.UserStatusPending
	onlyPending, err := h.svc.Sellers.List(ctx, SellerQuery{Status: &pending})
	require.NoError(t, err)
	require.Equal(t, 1, onlyPending.Total)
	assert.Equal(t, "two@example.com", onlyPending.Items[0].Email)
}
