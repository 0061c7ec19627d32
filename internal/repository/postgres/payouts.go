package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type payoutRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *sql.DB, logger *zap.Logger) *payoutRepository {
	return &payoutRepository{
		db:     db,
		logger: logger,
	}
}

const payoutColumns = `id, seller_id, wallet_id, amount, currency, status, gateway_payout_id, failure_reason,
	requested_by, processed_at, created_at, updated_at`

func scanPayout(row rowScanner) (*domain.Payout, error) {
	var p domain.Payout
	var gatewayPayoutID, failureReason sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.WalletID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&gatewayPayoutID,
		&failureReason,
		&p.RequestedBy,
		&processedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.GatewayPayoutID = stringPtr(gatewayPayoutID)
	p.FailureReason = stringPtr(failureReason)
	p.ProcessedAt = timePtr(processedAt)
	return &p, nil
}

// CreateReserved locks the wallet row so concurrent requests see each other's reservations
func (r *payoutRepository) CreateReserved(ctx context.Context, p *domain.Payout) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var walletID uuid.UUID
	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance FROM wallets WHERE seller_id = $1 FOR UPDATE`, p.SellerID,
	).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return &errors.ErrNotFound{Resource: "wallet", ID: p.SellerID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to lock wallet", zap.Error(err), zap.String("seller_id", p.SellerID.String()))
		return err
	}

	var reserved decimal.Decimal
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payouts
		WHERE seller_id = $1 AND status IN ($2, $3)
	`, p.SellerID, domain.PayoutStatusPending, domain.PayoutStatusProcessing).Scan(&reserved); err != nil {
		return err
	}

	available := balance.Sub(reserved)
	if p.Amount.GreaterThan(available) {
		return &errors.ErrInsufficientFunds{
			Available: available.StringFixed(domain.MoneyPlaces),
			Requested: p.Amount.StringFixed(domain.MoneyPlaces),
		}
	}

	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.WalletID = walletID
	p.Status = domain.PayoutStatusPending
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payouts (`+payoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		p.ID,
		p.SellerID,
		p.WalletID,
		p.Amount,
		p.Currency,
		p.Status,
		nullString(p.GatewayPayoutID),
		nullString(p.FailureReason),
		p.RequestedBy,
		nullTime(p.ProcessedAt),
		p.CreatedAt,
		p.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create payout", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *payoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	p, err := scanPayout(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "payout", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get payout by ID", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *payoutRepository) List(ctx context.Context, filter repository.PayoutFilter) ([]*domain.Payout, int, error) {
	var w where
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		w.add("seller_id = ?", *filter.SellerID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payouts`+w.String(), w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count payouts", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + payoutColumns + ` FROM payouts` + w.String() + ` ORDER BY created_at DESC`
	if filter.Page.Limit > 0 {
		query += ` LIMIT ` + w.next(filter.Page.Limit) + ` OFFSET ` + w.next(filter.Page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list payouts", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var payouts []*domain.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, 0, err
		}
		payouts = append(payouts, p)
	}
	return payouts, total, rows.Err()
}

// transition moves a payout between statuses; false when the current status is not from
func (r *payoutRepository) transition(ctx context.Context, id uuid.UUID, from, to domain.PayoutStatus, reason *string) (bool, error) {
	now := time.Now().UTC()
	var processedAt sql.NullTime
	if to == domain.PayoutStatusFailed {
		processedAt = sql.NullTime{Time: now, Valid: true}
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE payouts
		SET status = $3, failure_reason = COALESCE($4, failure_reason), processed_at = COALESCE($5, processed_at), updated_at = $6
		WHERE id = $1 AND status = $2
	`, id, from, to, nullString(reason), processedAt, now)
	if err != nil {
		r.logger.Error("Failed to update payout status", zap.Error(err), zap.String("payout_id", id.String()))
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

func (r *payoutRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, id, domain.PayoutStatusPending, domain.PayoutStatusProcessing, nil)
}

func (r *payoutRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	return r.transition(ctx, id, domain.PayoutStatusProcessing, domain.PayoutStatusFailed, &reason)
}

// Complete marks the payout completed, debits the wallet and appends the debit entry in one transaction
func (r *payoutRepository) Complete(ctx context.Context, c *domain.PayoutCompletion) (bool, error) {
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

	var walletID uuid.UUID
	var amount decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		UPDATE payouts
		SET status = $2, gateway_payout_id = $3, processed_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING wallet_id, amount
	`,
		c.PayoutID,
		domain.PayoutStatusCompleted,
		c.GatewayPayoutID,
		c.ProcessedAt,
		domain.PayoutStatusProcessing,
	).Scan(&walletID, &amount)
	if err == sql.ErrNoRows {
		if _, err := r.GetByID(ctx, c.PayoutID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to complete payout", zap.Error(err), zap.String("payout_id", c.PayoutID.String()))
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - $2, total_withdrawn = total_withdrawn + $2, updated_at = $3
		WHERE id = $1
	`, walletID, amount, c.ProcessedAt); err != nil {
		return false, fmt.Errorf("debit wallet: %w", err)
	}

	if err := insertTransaction(ctx, tx, &domain.WalletTransaction{
		WalletID:    walletID,
		Type:        domain.TransactionDebit,
		Amount:      amount,
		Status:      domain.TransactionStatusCompleted,
		Reference:   c.PayoutID.String(),
		Description: "Payout " + c.GatewayPayoutID,
		CreatedAt:   c.ProcessedAt,
	}); err != nil {
		return false, fmt.Errorf("append debit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

func (r *payoutRepository) OpenSummary(ctx context.Context) (int, decimal.Decimal, error) {
	var count int
	var amount decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM payouts
		WHERE status IN ($1, $2)
	`, domain.PayoutStatusPending, domain.PayoutStatusProcessing).Scan(&count, &amount)
	if err != nil {
		r.logger.Error("Failed to summarise open payouts", zap.Error(err))
		return 0, decimal.Zero, err
	}
	return count, amount, nil
}
