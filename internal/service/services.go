package service

import (
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/gateway"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/repository"
)

// Services bundles every business service built over one set of repositories
type Services struct {
	Identity      *identityService
	Sellers       *sellerService
	Catalog       *catalogService
	Enquiries     *enquiryService
	Affiliates    *affiliateService
	Coupons       *couponService
	Orders        *orderService
	Wallets       *walletService
	Notifications *notificationService
	Analytics     *analyticsService
}

// NewServices wires the services together. m may be nil.
func NewServices(
	cfg *config.Config,
	repos *repository.Repositories,
	gw gateway.Gateway,
	tokens *auth.TokenIssuer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := NewNotificationService(repos, logger)
	coupons := NewCouponService(cfg, repos, logger)
	return &Services{
		Identity:      NewIdentityService(cfg, repos, tokens, notifications, logger),
		Sellers:       NewSellerService(repos, notifications, logger),
		Catalog:       NewCatalogService(repos, logger),
		Enquiries:     NewEnquiryService(cfg, repos, notifications, logger),
		Affiliates:    NewAffiliateService(cfg, repos, m, logger),
		Coupons:       coupons,
		Orders:        NewOrderService(cfg, repos, gw, coupons, notifications, m, logger),
		Wallets:       NewWalletService(cfg, repos, gw, notifications, m, logger),
		Notifications: notifications,
		Analytics:     NewAnalyticsService(repos, logger),
	}
}
