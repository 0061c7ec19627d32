package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type sellerService struct {
	repos         *repository.Repositories
	notifications *notificationService
	logger        *zap.Logger
}

// NewSellerService creates a new seller onboarding service
func NewSellerService(repos *repository.Repositories, notifications *notificationService, logger *zap.Logger) *sellerService {
	return &sellerService{
		repos:         repos,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *sellerService) getSeller(ctx context.Context, sellerID uuid.UUID) (*domain.User, error) {
	user, err := s.repos.User.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleSeller {
		return nil, &errors.ErrNotFound{Resource: "seller", ID: sellerID.String()}
	}
	return user, nil
}

// Approve moves a pending seller to approved. Approving an approved seller is a no-op.
func (s *sellerService) Approve(ctx context.Context, sellerID uuid.UUID) (*domain.User, error) {
	return s.transition(ctx, sellerID, domain.UserStatusApproved, nil)
}

// Reject moves a pending seller to rejected and stores the reason shown at login
func (s *sellerService) Reject(ctx context.Context, sellerID uuid.UUID, reason string) (*domain.User, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &errors.ErrValidation{Message: "rejection reason is required", Fields: map[string]string{"reason": "required"}}
	}
	return s.transition(ctx, sellerID, domain.UserStatusRejected, &reason)
}

func (s *sellerService) transition(ctx context.Context, sellerID uuid.UUID, next domain.UserStatus, reason *string) (*domain.User, error) {
	seller, err := s.getSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status == next {
		return seller, nil
	}
	if !seller.Status.CanTransitionTo(next) {
		return nil, &errors.ErrInvalidStateTransition{Entity: "seller", From: string(seller.Status), To: string(next)}
	}

	ok, err := s.repos.User.UpdateStatus(ctx, sellerID, seller.Status, next, reason)
	if err != nil {
		s.logger.Error("Failed to update seller status", zap.String("seller_id", sellerID.String()), zap.Error(err))
		return nil, err
	}
	if !ok {
		// lost a race with another admin; report against the status that won
		current, err := s.getSeller(ctx, sellerID)
		if err != nil {
			return nil, err
		}
		if current.Status == next {
			return current, nil
		}
		return nil, &errors.ErrInvalidStateTransition{Entity: "seller", From: string(current.Status), To: string(next)}
	}

	s.logger.Info("Seller status updated",
		zap.String("seller_id", sellerID.String()),
		zap.String("status", string(next)),
	)
	if next == domain.UserStatusApproved {
		s.notifications.Notify(ctx, sellerID, domain.NotificationSellerApproved,
			"Application approved", "Your seller account has been approved. You can now sign in.")
	} else {
		s.notifications.Notify(ctx, sellerID, domain.NotificationSellerRejected,
			"Application rejected", "Your seller application was rejected: "+*reason)
	}
	return s.getSeller(ctx, sellerID)
}

// List returns sellers for the admin console
func (s *sellerService) List(ctx context.Context, q SellerQuery) (*PageResult[*domain.User], error) {
	role := domain.RoleSeller
	page := q.Page.Normalize()
	users, total, err := s.repos.User.List(ctx, repository.UserFilter{
		Role:   &role,
		Status: q.Status,
		Search: strings.TrimSpace(q.Search),
		Page:   page,
	})
	if err != nil {
		return nil, err
	}
	return newPageResult(users, total, page), nil
}
