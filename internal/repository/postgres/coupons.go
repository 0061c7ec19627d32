package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type couponRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *sql.DB, logger *zap.Logger) *couponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

const couponColumns = `id, code, description, discount_type, discount_value, min_order_amount, max_discount,
	usage_limit, used_count, valid_from, valid_until, is_active, product_ids, category_ids, created_at, updated_at`

func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	var c domain.Coupon
	var description sql.NullString
	var maxDiscount decimal.NullDecimal
	var usageLimit sql.NullInt64
	var validFrom, validUntil sql.NullTime
	var productIDs, categoryIDs []string
	err := row.Scan(
		&c.ID,
		&c.Code,
		&description,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinOrderAmount,
		&maxDiscount,
		&usageLimit,
		&c.UsedCount,
		&validFrom,
		&validUntil,
		&c.IsActive,
		pq.Array(&productIDs),
		pq.Array(&categoryIDs),
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	if maxDiscount.Valid {
		d := maxDiscount.Decimal
		c.MaxDiscount = &d
	}
	if usageLimit.Valid {
		n := int(usageLimit.Int64)
		c.UsageLimit = &n
	}
	c.ValidFrom = timePtr(validFrom)
	c.ValidUntil = timePtr(validUntil)
	if c.ProductIDs, err = parseUUIDs(productIDs); err != nil {
		return nil, err
	}
	if c.CategoryIDs, err = parseUUIDs(categoryIDs); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	now := time.Now().UTC()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = now
	}
	coupon.UpdatedAt = now

	var maxDiscount decimal.NullDecimal
	if coupon.MaxDiscount != nil {
		maxDiscount = decimal.NullDecimal{Decimal: *coupon.MaxDiscount, Valid: true}
	}
	var usageLimit sql.NullInt64
	if coupon.UsageLimit != nil {
		usageLimit = sql.NullInt64{Int64: int64(*coupon.UsageLimit), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MinOrderAmount,
		maxDiscount,
		usageLimit,
		coupon.UsedCount,
		nullTime(coupon.ValidFrom),
		nullTime(coupon.ValidUntil),
		coupon.IsActive,
		pq.Array(uuidStrings(coupon.ProductIDs)),
		pq.Array(uuidStrings(coupon.CategoryIDs)),
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)
	if _, ok := uniqueConstraint(err); ok {
		return &errors.ErrConflict{Code: errors.CodeDuplicateCoupon, Message: "coupon code already exists"}
	}
	if err != nil {
		r.logger.Error("Failed to create coupon", zap.Error(err))
		return err
	}
	return nil
}

func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get coupon by ID", zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: code}
	}
	if err != nil {
		r.logger.Error("Failed to get coupon by code", zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) List(ctx context.Context, page repository.Page) ([]*domain.Coupon, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		r.logger.Error("Failed to count coupons", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`
	var args []interface{}
	if page.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, page.Limit, page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var coupons []*domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, err
		}
		coupons = append(coupons, c)
	}
	return coupons, total, rows.Err()
}

func (r *couponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to update coupon", zap.Error(err), zap.String("coupon_id", id.String()))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "coupon", ID: id.String()}
	}
	return nil
}
