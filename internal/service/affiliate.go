package service

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

// maxCodeAttempts bounds regeneration when a random affiliate code collides
const maxCodeAttempts = 5

type affiliateService struct {
	cfg     *config.Config
	repos   *repository.Repositories
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAffiliateService creates a new affiliate link service
func NewAffiliateService(cfg *config.Config, repos *repository.Repositories, m *metrics.Metrics, logger *zap.Logger) *affiliateService {
	return &affiliateService{
		cfg:     cfg,
		repos:   repos,
		metrics: m,
		logger:  logger,
	}
}

// Create issues the seller's link for an active product, snapshotting its commission rate
func (s *affiliateService) Create(ctx context.Context, sellerID, productID uuid.UUID) (*domain.AffiliateLink, error) {
	if !s.cfg.Site.EnableAffiliates {
		return nil, &errors.ErrForbidden{Message: "affiliate links are disabled"}
	}
	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.ProductStatusActive {
		return nil, &errors.ErrProductUnavailable{ProductID: productID.String(), Status: string(product.Status)}
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := affiliateCode(sellerID, productID)
		if err != nil {
			return nil, err
		}
		link := &domain.AffiliateLink{
			SellerID:       sellerID,
			ProductID:      productID,
			Code:           code,
			CommissionRate: product.AffiliatePercentage,
			Earnings:       decimal.Zero,
			IsActive:       true,
		}
		err = s.repos.AffiliateLink.Create(ctx, link)
		if err == nil {
			s.logger.Info("Affiliate link created",
				zap.String("link_id", link.ID.String()),
				zap.String("seller_id", sellerID.String()),
				zap.String("code", code),
			)
			return link, nil
		}
		if !stderrors.Is(err, repository.ErrDuplicateAffiliateCode) {
			return nil, err
		}
		s.logger.Warn("Affiliate code collision, regenerating", zap.Int("attempt", attempt))
	}
	return nil, &errors.ErrConflict{Message: "could not generate a unique affiliate code"}
}

// RecordClick counts a click on an active link and a visit on the owning shop
func (s *affiliateService) RecordClick(ctx context.Context, code string) (*domain.AffiliateLink, error) {
	link, err := s.repos.AffiliateLink.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !link.IsActive {
		return nil, &errors.ErrNotFound{Resource: "affiliate_link", ID: code}
	}
	if err := s.repos.AffiliateLink.IncrementClicks(ctx, link.ID); err != nil {
		return nil, err
	}
	link.Clicks++
	s.metrics.AffiliateEvent(metrics.EventClick)

	if shop, err := s.repos.Shop.GetBySellerID(ctx, link.SellerID); err == nil {
		if err := s.repos.Shop.IncrementVisits(ctx, shop.ID); err != nil {
			s.logger.Warn("Failed to count shop visit", zap.String("shop_id", shop.ID.String()), zap.Error(err))
		}
	}
	return link, nil
}

// RecordConversion adds one conversion and its earnings atomically
func (s *affiliateService) RecordConversion(ctx context.Context, linkID uuid.UUID, earnings decimal.Decimal) error {
	if earnings.IsNegative() {
		return &errors.ErrValidation{Message: "earnings must not be negative", Fields: map[string]string{"earnings": "negative"}}
	}
	if err := s.repos.AffiliateLink.RecordConversion(ctx, linkID, earnings); err != nil {
		return err
	}
	s.metrics.AffiliateEvent(metrics.EventConversion)
	return nil
}

// ListMine returns the seller's links
func (s *affiliateService) ListMine(ctx context.Context, sellerID uuid.UUID) ([]*domain.AffiliateLink, error) {
	return s.repos.AffiliateLink.ListBySeller(ctx, sellerID)
}

// Deactivate disables one of the seller's own links
func (s *affiliateService) Deactivate(ctx context.Context, sellerID, linkID uuid.UUID) (*domain.AffiliateLink, error) {
	link, err := s.repos.AffiliateLink.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.SellerID != sellerID {
		return nil, &errors.ErrNotFound{Resource: "affiliate_link", ID: linkID.String()}
	}
	if !link.IsActive {
		return link, nil
	}
	if err := s.repos.AffiliateLink.SetActive(ctx, linkID, false); err != nil {
		return nil, err
	}
	link.IsActive = false
	return link, nil
}
