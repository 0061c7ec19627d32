package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/gateway"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/repository/memory"
)

const testGatewaySecret = "gateway-secret"

type harness struct {
	cfg     *config.Config
	repos   *repository.Repositories
	gateway *gateway.Sandbox
	metrics *metrics.Metrics
	svc     *Services
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:   "test",
		StorageDriver: config.StorageMemory,
		Session:       config.SessionConfig{JWTSecret: "jwt-secret", TTL: 7 * 24 * time.Hour, CookieName: "token"},
		Gateway:       config.GatewayConfig{KeySecret: testGatewaySecret},
		Site: config.SiteConfig{
			Name:             "Test Market",
			Currency:         "INR",
			PayoutSchedule:   "weekly",
			PayoutMinAmount:  decimal.NewFromInt(100),
			TaxRatePercent:   decimal.Zero,
			EnableAffiliates: true,
			EnableCoupons:    true,
			EnableEnquiries:  true,
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testConfig()
	repos := memory.NewRepositories(memory.NewStore(nil))
	gw := gateway.NewSandbox(testGatewaySecret)
	m := metrics.New()
	tokens := auth.NewTokenIssuer(cfg.Session.JWTSecret, cfg.Session.TTL)
	return &harness{
		cfg:     cfg,
		repos:   repos,
		gateway: gw,
		metrics: m,
		svc:     NewServices(cfg, repos, gw, tokens, m, zap.NewNop()),
	}
}

func (h *harness) register(t *testing.T, role domain.Role, email string) *domain.User {
	t.Helper()
	user, err := h.svc.Identity.Register(context.Background(), RegisterRequest{
		Name:         "User " + email,
		Email:        email,
		Password:     "password123",
		Role:         string(role),
		BusinessName: "Biz " + email,
	})
	require.NoError(t, err)
	return user
}

func (h *harness) approvedSeller(t *testing.T, email string) *domain.User {
	t.Helper()
	seller := h.register(t, domain.RoleSeller, email)
	approved, err := h.svc.Sellers.Approve(context.Background(), seller.ID)
	require.NoError(t, err)
	return approved
}

func (h *harness) customer(t *testing.T, email string) *domain.User {
	t.Helper()
	return h.register(t, domain.RoleCustomer, email)
}

func (h *harness) category(t *testing.T) *domain.Category {
	t.Helper()
	c, err := h.svc.Catalog.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Cat " + uuid.NewString()[:8]})
	require.NoError(t, err)
	return c
}

// product stores a product directly; sellerID nil makes it admin-owned
func (h *harness) product(t *testing.T, sellerID *uuid.UUID, price string, stock int, affiliatePct string, status domain.ProductStatus) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:                "Product " + uuid.NewString()[:8],
		Price:               decimal.RequireFromString(price),
		Stock:               stock,
		SKU:                 "SKU-" + uuid.NewString()[:8],
		CategoryID:          h.category(t).ID,
		AffiliatePercentage: decimal.RequireFromString(affiliatePct),
		Status:              status,
		SellerID:            sellerID,
	}
	require.NoError(t, h.repos.Product.Create(context.Background(), p))
	return p
}

func (h *harness) verifyRequest(o *domain.Order, paymentID string) VerifyPaymentRequest {
	return VerifyPaymentRequest{
		GatewayOrderID: o.Payment.GatewayOrderID,
		PaymentID:      paymentID,
		Signature:      gateway.SignPayment(testGatewaySecret, o.Payment.GatewayOrderID, paymentID),
	}
}

func (h *harness) wallet(t *testing.T, sellerID uuid.UUID) *domain.Wallet {
	t.Helper()
	w, err := h.repos.Wallet.GetBySellerID(context.Background(), sellerID)
	require.NoError(t, err)
	return w
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pageOne() repository.Page {
	return repository.Page{Page: 1, Limit: repository.DefaultPageLimit}
}
