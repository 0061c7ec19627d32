package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

// fundedSeller returns an approved seller with a bank account whose wallet was credited through a paid order
func (h *harness) fundedSeller(t *testing.T, email, amount string) *domain.User {
	t.Helper()
	ctx := context.Background()
	seller := h.approvedSeller(t, email)
	customer := h.customer(t, "buyer-"+email)
	p := h.product(t, &seller.ID, amount, 1, "0", domain.ProductStatusActive)

	o, err := h.svc.Orders.CreateOrder(ctx, customer.ID, CreateOrderRequest{Items: []OrderItemRequest{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = h.svc.Orders.VerifyPayment(ctx, customer.ID, o.ID, h.verifyRequest(o, "pay_"+email))
	require.NoError(t, err)

	_, err = h.svc.Wallets.UpdateBankAccount(ctx, seller.ID, BankAccountRequest{
		AccountNumber: "123456789012",
		IFSC:          "hdfc0001234",
		HolderName:    "Asha Rao",
	})
	require.NoError(t, err)
	return seller
}

func TestPayoutLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.fundedSeller(t, "seller@example.com", "1000")

	p, err := h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("400"), true)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusPending, p.Status)
	assert.True(t, h.wallet(t, seller.ID).Balance.Equal(dec("1000")), "requesting does not debit")

	done, err := h.svc.Wallets.ProcessPayout(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusCompleted, done.Status)
	require.NotNil(t, done.GatewayPayoutID)
	require.NotNil(t, done.ProcessedAt)

	w := h.wallet(t, seller.ID)
	assert.True(t, w.Balance.Equal(dec("600")))
	assert.True(t, w.TotalWithdrawn.Equal(dec("400")))

	sent := h.gateway.Payouts()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(40000), sent[0].AmountMinor)
	assert.Equal(t, "HDFC0001234", sent[0].IFSC)
	assert.Equal(t, p.ID.String(), sent[0].Reference)

	_, err = h.svc.Wallets.ProcessPayout(ctx, p.ID)
	var transition *errors.ErrInvalidStateTransition
	assert.True(t, stderrors.As(err, &transition), "a completed payout cannot be processed again")
	assert.Len(t, h.gateway.Payouts(), 1)

	report, err := h.svc.Wallets.VerifyLedger(ctx, seller.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.True(t, report.Debits.Equal(dec("400")))

	txns, err := h.svc.Wallets.ListTransactions(ctx, seller.ID, pageOne())
	require.NoError(t, err)
	require.Equal(t, 2, txns.Total)
	assert.Equal(t, domain.TransactionDebit, txns.Items[0].Type)
}

func TestPayoutReservesOpenAmounts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.fundedSeller(t, "seller@example.com", "500")

	_, err := h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("300"), true)
	require.NoError(t, err)

	_, err = h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("300"), true)
	var insufficient *errors.ErrInsufficientFunds
	require.True(t, stderrors.As(err, &insufficient))
	assert.Equal(t, "200.00", insufficient.Available)

	_, err = h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("200"), true)
	assert.NoError(t, err)
}

func TestPayoutValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.fundedSeller(t, "seller@example.com", "500")
	admin := h.customer(t, "admin@example.com")

	tests := []struct {
		name    string
		amount  string
		enforce bool
	}{
		{"zero", "0", false},
		{"negative", "-5", false},
		{"three decimals", "150.005", false},
		{"below minimum", "99.99", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec(tt.amount), tt.enforce)
			var validation *errors.ErrValidation
			assert.True(t, stderrors.As(err, &validation), "got %v", err)
		})
	}

	p, err := h.svc.Wallets.RequestPayout(ctx, admin.ID, seller.ID, dec("50"), false)
	require.NoError(t, err, "admin-initiated payouts skip the minimum")
	assert.Equal(t, admin.ID, p.RequestedBy)

	noBank := h.approvedSeller(t, "nobank@example.com")
	_, err = h.svc.Wallets.RequestPayout(ctx, noBank.ID, noBank.ID, dec("150"), true)
	var validation *errors.ErrValidation
	require.True(t, stderrors.As(err, &validation))
	assert.Contains(t, validation.Fields, "bank_account")
}

func TestPayoutGatewayFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.fundedSeller(t, "seller@example.com", "1000")
	p, err := h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("250"), true)
	require.NoError(t, err)

	h.gateway.FailPayouts(fmt.Errorf("beneficiary bank offline"))
	_, err = h.svc.Wallets.ProcessPayout(ctx, p.ID)
	var gwErr *errors.ErrPaymentGateway
	require.True(t, stderrors.As(err, &gwErr))

	got, err := h.repos.Payout.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Contains(t, *got.FailureReason, "beneficiary bank offline")
	assert.True(t, h.wallet(t, seller.ID).Balance.Equal(dec("1000")))

	_, err = h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("1000"), true)
	assert.NoError(t, err, "a failed payout releases its reservation")

	notes, err := h.svc.Notifications.List(ctx, seller.ID, true, pageOne())
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationPayoutFailed, notes.Items[0].Type)
}

func TestConcurrentProcessSendsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.fundedSeller(t, "seller@example.com", "1000")
	p, err := h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("300"), true)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.svc.Wallets.ProcessPayout(ctx, p.ID)
		}()
	}
	wg.Wait()

	assert.Len(t, h.gateway.Payouts(), 1)
	assert.True(t, h.wallet(t, seller.ID).Balance.Equal(dec("700")))
}

func TestUpdateBankAccountValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.approvedSeller(t, "seller@example.com")

	_, err := h.svc.Wallets.UpdateBankAccount(ctx, seller.ID, BankAccountRequest{
		AccountNumber: "12ab",
		IFSC:          "HDFC1234567",
	})
	var validation *errors.ErrValidation
	require.True(t, stderrors.As(err, &validation))
	assert.Contains(t, validation.Fields, "account_number")
	assert.Contains(t, validation.Fields, "ifsc")
	assert.Contains(t, validation.Fields, "holder_name")

	w, err := h.svc.Wallets.UpdateBankAccount(ctx, seller.ID, BankAccountRequest{
		AccountNumber: "1234 5678 9012",
		IFSC:          "sbin0000001",
		HolderName:    "Asha Rao",
	})
	require.NoError(t, err)
	require.NotNil(t, w.BankAccount)
	assert.Equal(t, "123456789012", w.BankAccount.AccountNumber)
	assert.Equal(t, "SBIN0000001", w.BankAccount.IFSC)
}

func TestListPayoutsByStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seller := h.fundedSeller(t, "seller@example.com", "1000")
	first, err := h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("100"), true)
	require.NoError(t, err)
	_, err = h.svc.Wallets.RequestPayout(ctx, seller.ID, seller.ID, dec("200"), true)
	require.NoError(t, err)
	_, err = h.svc.Wallets.ProcessPayout(ctx, first.ID)
	require.NoError(t, err)

	pending := domain.PayoutStatusPending
	result, err := h.svc.Wallets.ListPayouts(ctx, repository.PayoutFilter{Status: &pending})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.True(t, result.Items[0].Amount.Equal(dec("200")))
}
