package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
)

type settlementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *sql.DB, logger *zap.Logger) *settlementRepository {
	return &settlementRepository{
		db:     db,
		logger: logger,
	}
}

// SettleOrder runs every payment effect in one transaction. The first statement is the
// pending -> completed compare-and-set; when it matches no row nothing else runs.
func (r *settlementRepository) SettleOrder(ctx context.Context, s *domain.Settlement) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, payment_id = $3, payment_signature = $4, paid_at = $5, status = $6, updated_at = $7
		WHERE id = $1 AND payment_status = $8
	`,
		s.OrderID,
		domain.PaymentStatusCompleted,
		s.PaymentID,
		s.Signature,
		s.PaidAt,
		domain.OrderStatusConfirmed,
		now,
		domain.PaymentStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark order paid", zap.Error(err), zap.String("order_id", s.OrderID.String()))
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if s.ShopID != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE seller_shops
			SET total_orders = total_orders + 1, total_revenue = total_revenue + $2, updated_at = $3
			WHERE id = $1
		`, *s.ShopID, s.Revenue, now); err != nil {
			return false, fmt.Errorf("update shop analytics: %w", err)
		}
	}

	if s.AffiliateLinkID != nil {
		if err := recordConversion(ctx, tx, *s.AffiliateLinkID, s.AffiliateEarnings); err != nil {
			return false, fmt.Errorf("record affiliate conversion: %w", err)
		}
	}

	if s.CouponCode != nil {
		result, err := tx.ExecContext(ctx, `
			UPDATE coupons
			SET used_count = used_count + 1, updated_at = $2
			WHERE code = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
		`, *s.CouponCode, now)
		if err != nil {
			return false, fmt.Errorf("consume coupon: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			r.logger.Warn("Coupon usage limit reached at settlement",
				zap.String("coupon_code", *s.CouponCode),
				zap.String("order_id", s.OrderID.String()),
			)
		}
	}

	reference := s.OrderID.String()
	for _, credit := range s.Credits {
		walletID, err := lockWallet(ctx, tx, credit.SellerID, s.Currency, now)
		if err != nil {
			return false, fmt.Errorf("lock wallet: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE wallets
			SET balance = balance + $2, total_earnings = total_earnings + $2, updated_at = $3
			WHERE id = $1
		`, walletID, credit.Amount, now); err != nil {
			return false, fmt.Errorf("credit wallet: %w", err)
		}
		if err := insertTransaction(ctx, tx, &domain.WalletTransaction{
			WalletID:    walletID,
			Type:        domain.TransactionCredit,
			Amount:      credit.Amount,
			Status:      domain.TransactionStatusCompleted,
			Reference:   reference,
			Description: credit.Description,
			CreatedAt:   now,
		}); err != nil {
			return false, fmt.Errorf("append credit: %w", err)
		}
	}

	for _, dec := range s.StockDecrements {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = GREATEST(stock - $2, 0), updated_at = $3
			WHERE id = $1
		`, dec.ProductID, dec.Quantity, now); err != nil {
			return false, fmt.Errorf("decrement stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit settlement", zap.Error(err), zap.String("order_id", s.OrderID.String()))
		return false, err
	}
	committed = true
	return true, nil
}

// lockWallet returns the seller's wallet id, creating the wallet if needed, with the row locked
func lockWallet(ctx context.Context, tx *sql.Tx, sellerID uuid.UUID, currency string, now time.Time) (uuid.UUID, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, seller_id, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (seller_id) DO NOTHING
	`, uuid.New(), sellerID, currency, now); err != nil {
		return uuid.Nil, err
	}
	var walletID uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE seller_id = $1 FOR UPDATE`, sellerID).Scan(&walletID)
	return walletID, err
}

func insertTransaction(ctx context.Context, q execer, t *domain.WalletTransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, type, amount, status, reference, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.WalletID, t.Type, t.Amount, t.Status, t.Reference, t.Description, t.CreatedAt)
	return err
}
