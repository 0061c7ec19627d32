package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type walletRepository struct {
	s *Store
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	if w.BankAccount != nil {
		b := *w.BankAccount
		c.BankAccount = &b
	}
	return &c
}

// walletFor returns the seller's wallet, creating an empty one when missing; callers hold mu
func (s *Store) walletFor(sellerID uuid.UUID, currency string) *domain.Wallet {
	if w, ok := s.wallets[sellerID]; ok {
		return w
	}
	now := s.now()
	w := &domain.Wallet{
		SellerID:       sellerID,
		Balance:        decimal.Zero,
		TotalEarnings:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		Currency:       currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.track(&w.ID)
	s.wallets[sellerID] = w
	return w
}

// hasTransaction reports an existing (wallet, type, reference) entry; callers hold mu
func (s *Store) hasTransaction(walletID uuid.UUID, typ domain.TransactionType, reference string) bool {
	for _, t := range s.transactions {
		if t.WalletID == walletID && t.Type == typ && t.Reference == reference {
			return true
		}
	}
	return false
}

// appendTransaction adds a ledger entry; callers hold mu
func (s *Store) appendTransaction(t *domain.WalletTransaction) {
	s.track(&t.ID)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.transactions = append(s.transactions, t)
}

func (r *walletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.wallets[w.SellerID]; ok {
		*w = *cloneWallet(existing)
		return nil
	}
	r.s.track(&w.ID)
	now := r.s.now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	r.s.wallets[w.SellerID] = cloneWallet(w)
	return nil
}

func (r *walletRepository) GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.wallets[sellerID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "wallet", ID: sellerID.String()}
	}
	return cloneWallet(w), nil
}

func (r *walletRepository) UpdateBankAccount(ctx context.Context, sellerID uuid.UUID, account domain.BankAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.wallets[sellerID]
	if !ok {
		return &errors.ErrNotFound{Resource: "wallet", ID: sellerID.String()}
	}
	w.BankAccount = &account
	w.UpdatedAt = r.s.now()
	return nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, page repository.Page) ([]*domain.WalletTransaction, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.WalletTransaction
	for i := len(r.s.transactions) - 1; i >= 0; i-- {
		t := r.s.transactions[i]
		if t.WalletID == walletID {
			c := *t
			out = append(out, &c)
		}
	}
	return repository.Window(out, page), len(out), nil
}

type payoutRepository struct {
	s *Store
}

func (r *payoutRepository) CreateReserved(ctx context.Context, p *domain.Payout) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.wallets[p.SellerID]
	if !ok {
		return &errors.ErrNotFound{Resource: "wallet", ID: p.SellerID.String()}
	}
	reserved := decimal.Zero
	for _, existing := range r.s.payouts {
		if existing.SellerID == p.SellerID && existing.Status.IsOpen() {
			reserved = reserved.Add(existing.Amount)
		}
	}
	available := w.Balance.Sub(reserved)
	if p.Amount.GreaterThan(available) {
		return &errors.ErrInsufficientFunds{Available: available.StringFixed(domain.MoneyPlaces), Requested: p.Amount.StringFixed(domain.MoneyPlaces)}
	}

	r.s.track(&p.ID)
	now := r.s.now()
	p.WalletID = w.ID
	p.Status = domain.PayoutStatusPending
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	c := *p
	r.s.payouts[p.ID] = &c
	return nil
}

func (r *payoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payouts[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "payout", ID: id.String()}
	}
	c := *p
	return &c, nil
}

func (r *payoutRepository) List(ctx context.Context, filter repository.PayoutFilter) ([]*domain.Payout, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.Payout
	for _, p := range r.s.payouts {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.SellerID != nil && p.SellerID != *filter.SellerID {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	newestFirst(r.s, out, func(p *domain.Payout) uuid.UUID { return p.ID })
	return repository.Window(out, filter.Page), len(out), nil
}

func (r *payoutRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payouts[id]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "payout", ID: id.String()}
	}
	if p.Status != domain.PayoutStatusPending {
		return false, nil
	}
	p.Status = domain.PayoutStatusProcessing
	p.UpdatedAt = r.s.now()
	return true, nil
}

func (r *payoutRepository) Complete(ctx context.Context, c *domain.PayoutCompletion) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payouts[c.PayoutID]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "payout", ID: c.PayoutID.String()}
	}
	if p.Status != domain.PayoutStatusProcessing {
		return false, nil
	}
	w, ok := r.s.wallets[p.SellerID]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "wallet", ID: p.SellerID.String()}
	}
	if w.Balance.LessThan(p.Amount) {
		return false, &errors.ErrInsufficientFunds{Available: w.Balance.StringFixed(domain.MoneyPlaces), Requested: p.Amount.StringFixed(domain.MoneyPlaces)}
	}
	reference := p.ID.String()
	if r.s.hasTransaction(w.ID, domain.TransactionDebit, reference) {
		return false, nil
	}

	gatewayID := c.GatewayPayoutID
	processedAt := c.ProcessedAt
	p.Status = domain.PayoutStatusCompleted
	p.GatewayPayoutID = &gatewayID
	p.ProcessedAt = &processedAt
	p.UpdatedAt = processedAt

	w.Balance = w.Balance.Sub(p.Amount)
	w.TotalWithdrawn = w.TotalWithdrawn.Add(p.Amount)
	w.UpdatedAt = processedAt
	r.s.appendTransaction(&domain.WalletTransaction{
		WalletID:    w.ID,
		Type:        domain.TransactionDebit,
		Amount:      p.Amount,
		Status:      domain.TransactionStatusCompleted,
		Reference:   reference,
		Description: "Payout " + gatewayID,
	})
	return true, nil
}

func (r *payoutRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payouts[id]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "payout", ID: id.String()}
	}
	if p.Status != domain.PayoutStatusProcessing {
		return false, nil
	}
	now := r.s.now()
	p.Status = domain.PayoutStatusFailed
	p.FailureReason = &reason
	p.ProcessedAt = &now
	p.UpdatedAt = now
	return true, nil
}

func (r *payoutRepository) OpenSummary(ctx context.Context) (int, decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	amount := decimal.Zero
	for _, p := range r.s.payouts {
		if p.Status.IsOpen() {
			count++
			amount = amount.Add(p.Amount)
		}
	}
	return count, amount, nil
}
