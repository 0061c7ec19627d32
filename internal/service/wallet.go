package service

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/gateway"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

var (
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
)

type walletService struct {
	cfg           *config.Config
	repos         *repository.Repositories
	gateway       gateway.Gateway
	notifications *notificationService
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewWalletService creates a new wallet and payout service
func NewWalletService(
	cfg *config.Config,
	repos *repository.Repositories,
	gw gateway.Gateway,
	notifications *notificationService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *walletService {
	return &walletService{
		cfg:           cfg,
		repos:         repos,
		gateway:       gw,
		notifications: notifications,
		metrics:       m,
		logger:        logger,
	}
}

// GetWallet returns the seller's wallet, creating an empty one on first access
func (s *walletService) GetWallet(ctx context.Context, sellerID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.repos.Wallet.GetBySellerID(ctx, sellerID)
	if err == nil {
		return w, nil
	}
	var notFound *errors.ErrNotFound
	if !stderrors.As(err, &notFound) {
		return nil, err
	}
	w = &domain.Wallet{
		SellerID:       sellerID,
		Balance:        decimal.Zero,
		TotalEarnings:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		Currency:       s.cfg.Site.Currency,
	}
	if err := s.repos.Wallet.Create(ctx, w); err != nil {
		s.logger.Error("Failed to create wallet", zap.String("seller_id", sellerID.String()), zap.Error(err))
		return nil, err
	}
	return w, nil
}

// ListTransactions returns the wallet's ledger, newest first
func (s *walletService) ListTransactions(ctx context.Context, sellerID uuid.UUID, page repository.Page) (*PageResult[*domain.WalletTransaction], error) {
	w, err := s.GetWallet(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.repos.Wallet.ListTransactions(ctx, w.ID, page)
	if err != nil {
		return nil, err
	}
	return newPageResult(items, total, page), nil
}

// UpdateBankAccount sets the payout destination
func (s *walletService) UpdateBankAccount(ctx context.Context, sellerID uuid.UUID, req BankAccountRequest) (*domain.Wallet, error) {
	account := domain.BankAccount{
		AccountNumber: strings.ReplaceAll(strings.TrimSpace(req.AccountNumber), " ", ""),
		IFSC:          strings.ToUpper(strings.TrimSpace(req.IFSC)),
		HolderName:    strings.TrimSpace(req.HolderName),
	}
	fields := map[string]string{}
	if !accountPattern.MatchString(account.AccountNumber) {
		fields["account_number"] = "must be 9 to 18 digits"
	}
	if !ifscPattern.MatchString(account.IFSC) {
		fields["ifsc"] = "invalid IFSC code"
	}
	if account.HolderName == "" {
		fields["holder_name"] = "required"
	}
	if len(fields) > 0 {
		return nil, &errors.ErrValidation{Message: "invalid bank account", Fields: fields}
	}
	if _, err := s.GetWallet(ctx, sellerID); err != nil {
		return nil, err
	}
	if err := s.repos.Wallet.UpdateBankAccount(ctx, sellerID, account); err != nil {
		return nil, err
	}
	return s.repos.Wallet.GetBySellerID(ctx, sellerID)
}

// RequestPayout reserves wallet funds in a pending payout. Seller-initiated requests must
// meet the configured minimum; admin requests may be any positive amount.
func (s *walletService) RequestPayout(ctx context.Context, requestedBy, sellerID uuid.UUID, amount decimal.Decimal, enforceMinimum bool) (*domain.Payout, error) {
	if !amount.IsPositive() {
		return nil, &errors.ErrValidation{Message: "amount must be greater than 0", Fields: map[string]string{"amount": "positive"}}
	}
	if !amount.Equal(domain.RoundMoney(amount)) {
		return nil, &errors.ErrValidation{Message: "amount has more than 2 decimal places", Fields: map[string]string{"amount": "precision"}}
	}
	if enforceMinimum && amount.LessThan(s.cfg.Site.PayoutMinAmount) {
		return nil, &errors.ErrValidation{
			Message: "minimum payout amount is " + s.cfg.Site.PayoutMinAmount.StringFixed(domain.MoneyPlaces),
			Fields:  map[string]string{"amount": "below_minimum"},
		}
	}

	seller, err := s.repos.User.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Role != domain.RoleSeller {
		return nil, &errors.ErrNotFound{Resource: "seller", ID: sellerID.String()}
	}
	w, err := s.GetWallet(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if w.BankAccount == nil {
		return nil, &errors.ErrValidation{Message: "bank account details are required before requesting a payout", Fields: map[string]string{"bank_account": "required"}}
	}

	p := &domain.Payout{
		SellerID:    sellerID,
		WalletID:    w.ID,
		Amount:      amount,
		Currency:    w.Currency,
		Status:      domain.PayoutStatusPending,
		RequestedBy: requestedBy,
	}
	if err := s.repos.Payout.CreateReserved(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Payout requested",
		zap.String("payout_id", p.ID.String()),
		zap.String("seller_id", sellerID.String()),
		zap.String("amount", amount.StringFixed(domain.MoneyPlaces)),
	)
	return p, nil
}

// ProcessPayout claims a pending payout, sends it through the gateway and then either completes
// it together with the wallet debit or records the failure.
func (s *walletService) ProcessPayout(ctx context.Context, payoutID uuid.UUID) (*domain.Payout, error) {
	p, err := s.repos.Payout.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	claimed, err := s.repos.Payout.MarkProcessing(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		current, err := s.repos.Payout.GetByID(ctx, payoutID)
		if err != nil {
			return nil, err
		}
		s.metrics.PayoutProcessed(metrics.ResultConflict)
		return nil, &errors.ErrInvalidStateTransition{Entity: "payout", From: string(current.Status), To: string(domain.PayoutStatusProcessing)}
	}

	w, err := s.repos.Wallet.GetBySellerID(ctx, p.SellerID)
	if err != nil {
		return nil, s.failPayout(ctx, p, err)
	}
	if w.BankAccount == nil {
		return nil, s.failPayout(ctx, p, &errors.ErrValidation{Message: "seller has no bank account on file"})
	}
	amountMinor, err := domain.ToMinorUnits(p.Amount)
	if err != nil {
		return nil, s.failPayout(ctx, p, err)
	}

	gwPayout, err := s.gateway.CreatePayout(ctx, gateway.PayoutRequest{
		AccountNumber: w.BankAccount.AccountNumber,
		IFSC:          w.BankAccount.IFSC,
		HolderName:    w.BankAccount.HolderName,
		AmountMinor:   amountMinor,
		Currency:      p.Currency,
		Reference:     p.ID.String(),
	})
	if err != nil {
		var gwErr *errors.ErrPaymentGateway
		if !stderrors.As(err, &gwErr) {
			err = &errors.ErrPaymentGateway{Op: "create_payout", Err: err}
		}
		return nil, s.failPayout(ctx, p, err)
	}

	completed, err := s.repos.Payout.Complete(ctx, &domain.PayoutCompletion{
		PayoutID:        p.ID,
		GatewayPayoutID: gwPayout.ID,
		ProcessedAt:     time.Now().UTC(),
	})
	if err != nil || !completed {
		// the transfer went out; the payout stays in processing for manual reconciliation
		s.metrics.PayoutProcessed(metrics.ResultFailed)
		s.logger.Error("Payout sent but completion was not recorded",
			zap.String("payout_id", p.ID.String()),
			zap.String("gateway_payout_id", gwPayout.ID),
			zap.Bool("completed", completed),
			zap.Error(err),
		)
		if err == nil {
			err = &errors.ErrInvalidStateTransition{Entity: "payout", From: string(domain.PayoutStatusProcessing), To: string(domain.PayoutStatusCompleted)}
		}
		return nil, err
	}

	s.metrics.PayoutProcessed(metrics.ResultOK)
	s.logger.Info("Payout completed",
		zap.String("payout_id", p.ID.String()),
		zap.String("gateway_payout_id", gwPayout.ID),
		zap.String("seller_id", p.SellerID.String()),
	)
	s.notifications.Notify(ctx, p.SellerID, domain.NotificationPayoutCompleted,
		"Payout completed", p.Amount.StringFixed(domain.MoneyPlaces)+" "+p.Currency+" was sent to your bank account.")
	return s.repos.Payout.GetByID(ctx, p.ID)
}

// failPayout records the attempt as failed and returns cause
func (s *walletService) failPayout(ctx context.Context, p *domain.Payout, cause error) error {
	s.metrics.PayoutProcessed(metrics.ResultFailed)
	s.logger.Error("Payout failed", zap.String("payout_id", p.ID.String()), zap.Error(cause))
	if _, err := s.repos.Payout.MarkFailed(ctx, p.ID, cause.Error()); err != nil {
		s.logger.Error("Failed to record payout failure", zap.String("payout_id", p.ID.String()), zap.Error(err))
	}
	s.notifications.Notify(ctx, p.SellerID, domain.NotificationPayoutFailed,
		"Payout failed", "Your payout of "+p.Amount.StringFixed(domain.MoneyPlaces)+" "+p.Currency+" could not be sent.")
	return cause
}

// ListPayouts runs a typed payout query
func (s *walletService) ListPayouts(ctx context.Context, filter repository.PayoutFilter) (*PageResult[*domain.Payout], error) {
	filter.Page = filter.Page.Normalize()
	items, total, err := s.repos.Payout.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return newPageResult(items, total, filter.Page), nil
}

// VerifyLedger recomputes the balance from the transaction log and compares it with the cached figures
func (s *walletService) VerifyLedger(ctx context.Context, sellerID uuid.UUID) (*LedgerReport, error) {
	w, err := s.repos.Wallet.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	txns, _, err := s.repos.Wallet.ListTransactions(ctx, w.ID, repository.Page{})
	if err != nil {
		return nil, err
	}
	credits, debits := decimal.Zero, decimal.Zero
	for _, t := range txns {
		if t.Status != domain.TransactionStatusCompleted {
			continue
		}
		switch t.Type {
		case domain.TransactionCredit:
			credits = credits.Add(t.Amount)
		case domain.TransactionDebit:
			debits = debits.Add(t.Amount)
		}
	}
	report := &LedgerReport{
		SellerID:       sellerID,
		Balance:        w.Balance,
		TotalEarnings:  w.TotalEarnings,
		TotalWithdrawn: w.TotalWithdrawn,
		Credits:        credits,
		Debits:         debits,
	}
	report.Consistent = w.Balance.Equal(w.TotalEarnings.Sub(w.TotalWithdrawn)) &&
		w.Balance.Equal(credits.Sub(debits)) &&
		w.TotalEarnings.Equal(credits) &&
		w.TotalWithdrawn.Equal(debits)
	if !report.Consistent {
		s.logger.Warn("Wallet ledger drift detected",
			zap.String("seller_id", sellerID.String()),
			zap.String("balance", w.Balance.String()),
			zap.String("credits", credits.String()),
			zap.String("debits", debits.String()),
		)
	}
	return report, nil
}
