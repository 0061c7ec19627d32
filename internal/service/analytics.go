package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
)

const recentOrdersLimit = 5

// Dashboard is the admin rollup
type Dashboard struct {
	Users            []repository.RoleStatusCount
	ProductsByStatus map[domain.ProductStatus]int
	PendingEnquiries int
	OrdersByStatus   map[domain.OrderStatus]int
	PaidRevenue      decimal.Decimal
	OpenPayouts      int
	OpenPayoutAmount decimal.Decimal
	Affiliates       *repository.AffiliateTotals
}

// SellerDashboard is one seller's rollup
type SellerDashboard struct {
	Shop         *domain.SellerShop
	Wallet       *domain.Wallet
	ProductCount int
	Affiliates   *repository.AffiliateTotals
	RecentOrders []*domain.Order
}

type analyticsService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repos *repository.Repositories, logger *zap.Logger) *analyticsService {
	return &analyticsService{
		repos:  repos,
		logger: logger,
	}
}

// Dashboard runs every admin rollup query concurrently
func (s *analyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.Users, err = s.repos.User.CountByRoleAndStatus(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.ProductsByStatus, err = s.repos.Product.CountByStatus(ctx)
		return err
	})
	g.Go(func() error {
		pending := domain.EnquiryStatusPending
		_, total, err := s.repos.Enquiry.List(ctx, repository.EnquiryFilter{Status: &pending, Page: repository.Page{Page: 1, Limit: 1}})
		d.PendingEnquiries = total
		return err
	})
	g.Go(func() error {
		var err error
		d.OrdersByStatus, err = s.repos.Order.CountByStatus(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.PaidRevenue, err = s.repos.Order.PaidRevenue(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.OpenPayouts, d.OpenPayoutAmount, err = s.repos.Payout.OpenSummary(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Affiliates, err = s.repos.AffiliateLink.Totals(ctx, nil)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build admin dashboard", zap.Error(err))
		return nil, err
	}
	return d, nil
}

// SellerDashboard runs the seller's rollup queries concurrently
func (s *analyticsService) SellerDashboard(ctx context.Context, sellerID uuid.UUID) (*SellerDashboard, error) {
	d := &SellerDashboard{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.Shop, err = s.repos.Shop.GetBySellerID(ctx, sellerID)
		return err
	})
	g.Go(func() error {
		var err error
		d.Wallet, err = s.repos.Wallet.GetBySellerID(ctx, sellerID)
		return err
	})
	g.Go(func() error {
		_, total, err := s.repos.Product.List(ctx, repository.ProductFilter{SellerID: &sellerID, Page: repository.Page{Page: 1, Limit: 1}})
		d.ProductCount = total
		return err
	})
	g.Go(func() error {
		var err error
		d.Affiliates, err = s.repos.AffiliateLink.Totals(ctx, &sellerID)
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentOrders, _, err = s.repos.Order.List(ctx, repository.OrderFilter{SellerID: &sellerID, Page: repository.Page{Page: 1, Limit: recentOrdersLimit}})
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build seller dashboard", zap.String("seller_id", sellerID.String()), zap.Error(err))
		return nil, err
	}
	return d, nil
}
