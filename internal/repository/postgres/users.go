package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, name, email, password_hash, role, status, rejection_reason, phone, business_name, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var rejectionReason, phone, businessName sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&rejectionReason,
		&phone,
		&businessName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.RejectionReason = stringPtr(rejectionReason)
	user.Phone = phone.String
	user.BusinessName = businessName.String
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		nullString(user.RejectionReason),
		user.Phone,
		user.BusinessName,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if _, ok := uniqueConstraint(err); ok {
		return &errors.ErrConflict{Code: errors.CodeDuplicateEmail, Message: "email already registered"}
	}
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: email}
	}
	if err != nil {
		r.logger.Error("Failed to get user by email", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.UserStatus, reason *string) (bool, error) {
	query := `
		UPDATE users
		SET status = $3, rejection_reason = $4, updated_at = $5
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, expected, next, nullString(reason), time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update user status", zap.Error(err), zap.String("user_id", id.String()))
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	var w where
	if filter.Role != nil {
		w.add("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		w.add("(name ILIKE ? OR email ILIKE ? OR business_name ILIKE ?)", pattern, pattern, pattern)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count users", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY created_at DESC`
	if filter.Page.Limit > 0 {
		query += ` LIMIT ` + w.next(filter.Page.Limit) + ` OFFSET ` + w.next(filter.Page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *userRepository) CountByRoleAndStatus(ctx context.Context) ([]repository.RoleStatusCount, error) {
	query := `
		SELECT role, status, COUNT(*)
		FROM users
		GROUP BY role, status
		ORDER BY role, status
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to count users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var counts []repository.RoleStatusCount
	for rows.Next() {
		var c repository.RoleStatusCount
		if err := rows.Scan(&c.Role, &c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
