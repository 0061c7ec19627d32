package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type affiliateLinkRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAffiliateLinkRepository creates a new affiliate link repository
func NewAffiliateLinkRepository(db *sql.DB, logger *zap.Logger) *affiliateLinkRepository {
	return &affiliateLinkRepository{
		db:     db,
		logger: logger,
	}
}

const affiliateLinkColumns = `id, seller_id, product_id, code, commission_rate, clicks, conversions, earnings, is_active, created_at, updated_at`

func scanAffiliateLink(row rowScanner) (*domain.AffiliateLink, error) {
	var l domain.AffiliateLink
	err := row.Scan(
		&l.ID,
		&l.SellerID,
		&l.ProductID,
		&l.Code,
		&l.CommissionRate,
		&l.Clicks,
		&l.Conversions,
		&l.Earnings,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *affiliateLinkRepository) Create(ctx context.Context, link *domain.AffiliateLink) error {
	query := `
		INSERT INTO affiliate_links (` + affiliateLinkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now().UTC()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.SellerID,
		link.ProductID,
		link.Code,
		link.CommissionRate,
		link.Clicks,
		link.Conversions,
		link.Earnings,
		link.IsActive,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if constraint, ok := uniqueConstraint(err); ok {
		if constraint == "affiliate_links_code_key" {
			return repository.ErrDuplicateAffiliateCode
		}
		return &errors.ErrConflict{Code: errors.CodeDuplicateLink, Message: "an affiliate link for this product already exists"}
	}
	if err != nil {
		r.logger.Error("Failed to create affiliate link", zap.Error(err))
		return err
	}
	return nil
}

func (r *affiliateLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AffiliateLink, error) {
	query := `SELECT ` + affiliateLinkColumns + ` FROM affiliate_links WHERE id = $1`

	l, err := scanAffiliateLink(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get affiliate link by ID", zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (r *affiliateLinkRepository) GetByCode(ctx context.Context, code string) (*domain.AffiliateLink, error) {
	query := `SELECT ` + affiliateLinkColumns + ` FROM affiliate_links WHERE code = $1`

	l, err := scanAffiliateLink(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "affiliate_link", ID: code}
	}
	if err != nil {
		r.logger.Error("Failed to get affiliate link by code", zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (r *affiliateLinkRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.AffiliateLink, error) {
	query := `SELECT ` + affiliateLinkColumns + ` FROM affiliate_links WHERE seller_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		r.logger.Error("Failed to list affiliate links", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var links []*domain.AffiliateLink
	for rows.Next() {
		l, err := scanAffiliateLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *affiliateLinkRepository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE affiliate_links SET clicks = clicks + 1, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to record affiliate click", zap.Error(err), zap.String("link_id", id.String()))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	return nil
}

func recordConversion(ctx context.Context, q execer, id uuid.UUID, earnings decimal.Decimal) error {
	result, err := q.ExecContext(ctx, `
		UPDATE affiliate_links
		SET conversions = conversions + 1, earnings = earnings + $2, updated_at = $3
		WHERE id = $1
	`, id, earnings, time.Now().UTC())
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	return nil
}

func (r *affiliateLinkRepository) RecordConversion(ctx context.Context, id uuid.UUID, earnings decimal.Decimal) error {
	if err := recordConversion(ctx, r.db, id, earnings); err != nil {
		r.logger.Error("Failed to record affiliate conversion", zap.Error(err), zap.String("link_id", id.String()))
		return err
	}
	return nil
}

func (r *affiliateLinkRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE affiliate_links SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to update affiliate link", zap.Error(err), zap.String("link_id", id.String()))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "affiliate_link", ID: id.String()}
	}
	return nil
}

func (r *affiliateLinkRepository) Totals(ctx context.Context, sellerID *uuid.UUID) (*repository.AffiliateTotals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(clicks), 0), COALESCE(SUM(conversions), 0), COALESCE(SUM(earnings), 0)
		FROM affiliate_links
		WHERE $1::uuid IS NULL OR seller_id = $1
	`

	var totals repository.AffiliateTotals
	err := r.db.QueryRowContext(ctx, query, nullUUID(sellerID)).Scan(
		&totals.Links,
		&totals.Clicks,
		&totals.Conversions,
		&totals.Earnings,
	)
	if err != nil {
		r.logger.Error("Failed to sum affiliate links", zap.Error(err))
		return nil, err
	}
	return &totals, nil
}
