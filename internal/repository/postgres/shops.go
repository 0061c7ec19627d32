package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type shopRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShopRepository creates a new seller shop repository
func NewShopRepository(db *sql.DB, logger *zap.Logger) *shopRepository {
	return &shopRepository{
		db:     db,
		logger: logger,
	}
}

func (r *shopRepository) Create(ctx context.Context, shop *domain.SellerShop) error {
	query := `
		INSERT INTO seller_shops (id, seller_id, shop_name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (seller_id) DO NOTHING
	`

	now := time.Now().UTC()
	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = now
	}
	shop.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		shop.ID,
		shop.SellerID,
		shop.ShopName,
		shop.Description,
		shop.IsActive,
		shop.CreatedAt,
		shop.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create shop", zap.Error(err), zap.String("seller_id", shop.SellerID.String()))
		return err
	}

	existing, err := r.GetBySellerID(ctx, shop.SellerID)
	if err != nil {
		return err
	}
	*shop = *existing
	return nil
}

func (r *shopRepository) GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*domain.SellerShop, error) {
	query := `
		SELECT id, seller_id, shop_name, description, is_active, total_visits, total_orders, total_revenue, created_at, updated_at
		FROM seller_shops
		WHERE seller_id = $1
	`

	var shop domain.SellerShop
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, sellerID).Scan(
		&shop.ID,
		&shop.SellerID,
		&shop.ShopName,
		&description,
		&shop.IsActive,
		&shop.Analytics.TotalVisits,
		&shop.Analytics.TotalOrders,
		&shop.Analytics.TotalRevenue,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "shop", ID: sellerID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get shop", zap.Error(err))
		return nil, err
	}
	shop.Description = description.String
	return &shop, nil
}

func (r *shopRepository) IncrementVisits(ctx context.Context, shopID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE seller_shops SET total_visits = total_visits + 1, updated_at = $2 WHERE id = $1`,
		shopID, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to record shop visit", zap.Error(err), zap.String("shop_id", shopID.String()))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "shop", ID: shopID.String()}
	}
	return nil
}
