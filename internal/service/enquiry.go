package service

import (
	"context"
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

type enquiryService struct {
	cfg           *config.Config
	repos         *repository.Repositories
	notifications *notificationService
	logger        *zap.Logger
}

// NewEnquiryService creates a new product enquiry service
func NewEnquiryService(
	cfg *config.Config,
	repos *repository.Repositories,
	notifications *notificationService,
	logger *zap.Logger,
) *enquiryService {
	return &enquiryService{
		cfg:           cfg,
		repos:         repos,
		notifications: notifications,
		logger:        logger,
	}
}

func duplicateEnquiry() error {
	return &errors.ErrConflict{Code: errors.CodeDuplicateEnquiry, Message: "an enquiry for this product already exists"}
}

// Submit records a seller's product proposal. A seller may enquire about a given product only once.
func (s *enquiryService) Submit(ctx context.Context, sellerID uuid.UUID, req SubmitEnquiryRequest) (*domain.ProductEnquiry, error) {
	if !s.cfg.Site.EnableEnquiries {
		return nil, &errors.ErrForbidden{Message: "product enquiries are disabled"}
	}

	fields := map[string]string{}
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	message := strings.TrimSpace(req.Message)
	if name == "" {
		fields["name"] = "required"
	}
	if description == "" {
		fields["description"] = "required"
	}
	if req.CategoryID == uuid.Nil {
		fields["category_id"] = "required"
	}
	if !req.SuggestedPrice.IsPositive() {
		fields["suggested_price"] = "must be greater than 0"
	} else if !req.SuggestedPrice.Equal(domain.RoundMoney(req.SuggestedPrice)) {
		fields["suggested_price"] = "at most 2 decimal places"
	}
	if message == "" {
		fields["message"] = "required"
	}
	if len(fields) > 0 {
		return nil, &errors.ErrValidation{Message: "missing or invalid enquiry fields", Fields: fields}
	}

	if _, err := s.repos.Category.GetByID(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	if req.ProductID != nil {
		if _, err := s.repos.Product.GetByID(ctx, *req.ProductID); err != nil {
			return nil, err
		}
		exists, err := s.repos.Enquiry.ExistsForSellerProduct(ctx, sellerID, *req.ProductID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, duplicateEnquiry()
		}
	}

	enquiry := &domain.ProductEnquiry{
		SellerID:       sellerID,
		ProductID:      req.ProductID,
		Name:           name,
		Description:    description,
		CategoryID:     req.CategoryID,
		SuggestedPrice: req.SuggestedPrice,
		Message:        message,
		Status:         domain.EnquiryStatusPending,
	}
	if err := s.repos.Enquiry.Create(ctx, enquiry); err != nil {
		return nil, err
	}
	s.logger.Info("Enquiry submitted",
		zap.String("enquiry_id", enquiry.ID.String()),
		zap.String("seller_id", sellerID.String()),
	)
	return enquiry, nil
}

// Resolve approves or rejects a pending enquiry exactly once
func (s *enquiryService) Resolve(ctx context.Context, enquiryID uuid.UUID, req ResolveEnquiryRequest) (*domain.ProductEnquiry, error) {
	if req.Decision != domain.EnquiryStatusApproved && req.Decision != domain.EnquiryStatusRejected {
		return nil, &errors.ErrValidation{Message: "decision must be approved or rejected", Fields: map[string]string{"decision": "invalid"}}
	}
	enquiry, err := s.repos.Enquiry.GetByID(ctx, enquiryID)
	if err != nil {
		return nil, err
	}
	if enquiry.Status.IsResolved() {
		return nil, alreadyResolved()
	}

	res := repository.EnquiryResolution{
		EnquiryID:  enquiryID,
		Status:     req.Decision,
		ResolvedAt: time.Now().UTC(),
	}
	if feedback := strings.TrimSpace(req.Feedback); feedback != "" {
		res.Feedback = &feedback
	}

	if req.Decision == domain.EnquiryStatusApproved {
		if enquiry.ProductID != nil {
			id := *enquiry.ProductID
			res.ApprovedProductID = &id
		} else {
			product, err := s.productFromEnquiry(enquiry, req)
			if err != nil {
				return nil, err
			}
			res.NewProduct = product
		}
	}

	ok, err := s.repos.Enquiry.Resolve(ctx, res)
	if err != nil {
		s.logger.Error("Failed to resolve enquiry", zap.String("enquiry_id", enquiryID.String()), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, alreadyResolved()
	}

	s.logger.Info("Enquiry resolved",
		zap.String("enquiry_id", enquiryID.String()),
		zap.String("decision", string(req.Decision)),
	)
	msg := "Your product enquiry \"" + enquiry.Name + "\" was " + string(req.Decision) + "."
	if res.Feedback != nil {
		msg += " Feedback: " + *res.Feedback
	}
	s.notifications.Notify(ctx, enquiry.SellerID, domain.NotificationEnquiryResolved, "Enquiry "+string(req.Decision), msg)

	return s.repos.Enquiry.GetByID(ctx, enquiryID)
}

func alreadyResolved() error {
	return &errors.ErrConflict{Code: errors.CodeAlreadyResolved, Message: "enquiry has already been resolved"}
}

func (s *enquiryService) productFromEnquiry(enquiry *domain.ProductEnquiry, req ResolveEnquiryRequest) (*domain.Product, error) {
	price := enquiry.SuggestedPrice
	if req.Price != nil {
		price = *req.Price
	}
	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}
	pct := decimal.Zero
	if req.AffiliatePercentage != nil {
		pct = *req.AffiliatePercentage
	}
	if err := validateProductFields(price, stock, pct); err != nil {
		return nil, err
	}
	sku, err := enquirySKU()
	if err != nil {
		return nil, err
	}
	sellerID := enquiry.SellerID
	return &domain.Product{
		Name:                enquiry.Name,
		Description:         enquiry.Description,
		Price:               price,
		Stock:               stock,
		SKU:                 sku,
		CategoryID:          enquiry.CategoryID,
		AffiliatePercentage: pct,
		Status:              domain.ProductStatusActive,
		SellerID:            &sellerID,
	}, nil
}

// ListMine returns the seller's own enquiries
func (s *enquiryService) ListMine(ctx context.Context, sellerID uuid.UUID, page repository.Page) (*PageResult[*domain.ProductEnquiry], error) {
	return s.List(ctx, repository.EnquiryFilter{SellerID: &sellerID, Page: page})
}

// List returns enquiries for the admin review queue
func (s *enquiryService) List(ctx context.Context, filter repository.EnquiryFilter) (*PageResult[*domain.ProductEnquiry], error) {
	filter.Page = filter.Page.Normalize()
	items, total, err := s.repos.Enquiry.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return newPageResult(items, total, filter.Page), nil
}
