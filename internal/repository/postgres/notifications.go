package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
)

type notificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *notificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.IsRead, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return err
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page repository.Page) ([]*domain.Notification, int, error) {
	var w where
	w.add("user_id = ?", userID)
	if unreadOnly {
		w.add("is_read = ?", false)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+w.String(), w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count notifications", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT id, user_id, type, title, message, is_read, created_at FROM notifications` + w.String() + ` ORDER BY created_at DESC`
	if page.Limit > 0 {
		query += ` LIMIT ` + w.next(page.Limit) + ` OFFSET ` + w.next(page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, total, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Error(err))
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID,
	)
	if err != nil {
		r.logger.Error("Failed to mark notifications read", zap.Error(err))
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}
