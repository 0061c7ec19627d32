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

type walletRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *sql.DB, logger *zap.Logger) *walletRepository {
	return &walletRepository{
		db:     db,
		logger: logger,
	}
}

const walletColumns = `id, seller_id, balance, total_earnings, total_withdrawn, currency,
	bank_account_number, bank_ifsc, bank_holder_name, created_at, updated_at`

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var w domain.Wallet
	var accountNumber, ifsc, holderName sql.NullString
	err := row.Scan(
		&w.ID,
		&w.SellerID,
		&w.Balance,
		&w.TotalEarnings,
		&w.TotalWithdrawn,
		&w.Currency,
		&accountNumber,
		&ifsc,
		&holderName,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if accountNumber.Valid {
		w.BankAccount = &domain.BankAccount{
			AccountNumber: accountNumber.String,
			IFSC:          ifsc.String,
			HolderName:    holderName.String,
		}
	}
	return &w, nil
}

func (r *walletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, seller_id, balance, total_earnings, total_withdrawn, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (seller_id) DO NOTHING
	`

	now := time.Now().UTC()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.SellerID,
		w.Balance,
		w.TotalEarnings,
		w.TotalWithdrawn,
		w.Currency,
		w.CreatedAt,
		w.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create wallet", zap.Error(err), zap.String("seller_id", w.SellerID.String()))
		return err
	}

	existing, err := r.GetBySellerID(ctx, w.SellerID)
	if err != nil {
		return err
	}
	*w = *existing
	return nil
}

func (r *walletRepository) GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE seller_id = $1`

	w, err := scanWallet(r.db.QueryRowContext(ctx, query, sellerID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "wallet", ID: sellerID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get wallet", zap.Error(err))
		return nil, err
	}
	return w, nil
}

func (r *walletRepository) UpdateBankAccount(ctx context.Context, sellerID uuid.UUID, account domain.BankAccount) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE wallets
		SET bank_account_number = $2, bank_ifsc = $3, bank_holder_name = $4, updated_at = $5
		WHERE seller_id = $1
	`, sellerID, account.AccountNumber, account.IFSC, account.HolderName, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update bank account", zap.Error(err), zap.String("seller_id", sellerID.String()))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "wallet", ID: sellerID.String()}
	}
	return nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, page repository.Page) ([]*domain.WalletTransaction, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID,
	).Scan(&total); err != nil {
		r.logger.Error("Failed to count wallet transactions", zap.Error(err))
		return nil, 0, err
	}

	query := `
		SELECT id, wallet_id, type, amount, status, reference, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id
	`
	args := []interface{}{walletID}
	if page.Limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, page.Limit, page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list wallet transactions", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var txns []*domain.WalletTransaction
	for rows.Next() {
		var t domain.WalletTransaction
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.Status, &t.Reference, &description, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		t.Description = description.String
		txns = append(txns, &t)
	}
	return txns, total, rows.Err()
}
