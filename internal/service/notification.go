package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type notificationService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repos *repository.Repositories, logger *zap.Logger) *notificationService {
	return &notificationService{
		repos:  repos,
		logger: logger,
	}
}

// Notify stores a message for the user. Failures are logged and never returned.
func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, typ domain.NotificationType, title, message string) {
	n := &domain.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
	if err := s.repos.Notification.Create(ctx, n); err != nil {
		s.logger.Warn("Failed to store notification",
			zap.String("user_id", userID.String()),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}

// List returns the user's notifications, newest first
func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page repository.Page) (*PageResult[*domain.Notification], error) {
	page = page.Normalize()
	items, total, err := s.repos.Notification.ListByUser(ctx, userID, unreadOnly, page)
	if err != nil {
		return nil, err
	}
	return newPageResult(items, total, page), nil
}

// MarkRead marks one of the user's own notifications as read
func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repos.Notification.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return &errors.ErrNotFound{Resource: "notification", ID: id.String()}
	}
	return nil
}

// MarkAllRead marks every unread notification of the user and returns how many changed
func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repos.Notification.MarkAllRead(ctx, userID)
}
