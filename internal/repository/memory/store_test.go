package memory

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

func seedPendingOrder(t *testing.T, repos *repository.Repositories, sellerID uuid.UUID, total string) *domain.Order {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repos.Wallet.Create(ctx, &domain.Wallet{SellerID: sellerID, Currency: "INR"}))
	order := &domain.Order{
		OrderNumber: "ORD-" + uuid.NewString()[:8],
		CustomerID:  uuid.New(),
		SellerID:    &sellerID,
		Total:       decimal.RequireFromString(total),
		Payment:     domain.PaymentDetails{GatewayOrderID: "order_x", Status: domain.PaymentStatusPending},
		Status:      domain.OrderStatusPending,
	}
	require.NoError(t, repos.Order.Create(ctx, order))
	return order
}

func TestSettleOrder_AppliesOnce(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore(nil))
	sellerID := uuid.New()
	order := seedPendingOrder(t, repos, sellerID, "250.00")

	settlement := &domain.Settlement{
		OrderID:   order.ID,
		PaymentID: "pay_1",
		Signature: "sig",
		PaidAt:    time.Now(),
		Revenue:   order.Total,
		Credits:   []domain.WalletCredit{{SellerID: sellerID, Amount: order.Total}},
	}

	var wg sync.WaitGroup
	applied := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repos.Settlement.SettleOrder(ctx, settlement)
			assert.NoError(t, err)
			applied <- ok
		}()
	}
	wg.Wait()
	close(applied)

	count := 0
	for ok := range applied {
		if ok {
			count++
		}
	}
	assert.Equal(t, 1, count)

	wallet, err := repos.Wallet.GetBySellerID(ctx, sellerID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("250")))

	txns, total, err := repos.Wallet.ListTransactions(ctx, wallet.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, order.ID.String(), txns[0].Reference)

	got, err := repos.Order.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, got.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, got.Payment.Status)
}

func TestSettleOrder_CouponLimitNeverExceeded(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore(nil))
	limit := 1
	coupon := &domain.Coupon{Code: "ONCE", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(5), UsageLimit: &limit, IsActive: true}
	require.NoError(t, repos.Coupon.Create(ctx, coupon))

	code := "ONCE"
	for i := 0; i < 2; i++ {
		order := seedPendingOrder(t, repos, uuid.New(), "10")
		ok, err := repos.Settlement.SettleOrder(ctx, &domain.Settlement{OrderID: order.ID, PaymentID: "p", CouponCode: &code, PaidAt: time.Now()})
		require.NoError(t, err)
		require.True(t, ok)
	}

	got, err := repos.Coupon.GetByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
}

func TestPayout_ReservationAndCompletion(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore(nil))
	sellerID := uuid.New()
	order := seedPendingOrder(t, repos, sellerID, "100")
	_, err := repos.Settlement.SettleOrder(ctx, &domain.Settlement{
		OrderID: order.ID, PaymentID: "p", PaidAt: time.Now(),
		Credits: []domain.WalletCredit{{SellerID: sellerID, Amount: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)

	first := &domain.Payout{SellerID: sellerID, Amount: decimal.NewFromInt(70)}
	require.NoError(t, repos.Payout.CreateReserved(ctx, first))

	err = repos.Payout.CreateReserved(ctx, &domain.Payout{SellerID: sellerID, Amount: decimal.NewFromInt(40)})
	var insufficient *errors.ErrInsufficientFunds
	require.True(t, stderrors.As(err, &insufficient))
	assert.Equal(t, "30.00", insufficient.Available)

	ok, err := repos.Payout.Complete(ctx, &domain.PayoutCompletion{PayoutID: first.ID, GatewayPayoutID: "pout_1", ProcessedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, ok, "completion requires processing")

	ok, err = repos.Payout.MarkProcessing(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repos.Payout.MarkProcessing(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.Payout.Complete(ctx, &domain.PayoutCompletion{PayoutID: first.ID, GatewayPayoutID: "pout_1", ProcessedAt: time.Now()})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repos.Payout.Complete(ctx, &domain.PayoutCompletion{PayoutID: first.ID, GatewayPayoutID: "pout_1", ProcessedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, ok)

	wallet, err := repos.Wallet.GetBySellerID(ctx, sellerID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(30)))
	assert.True(t, wallet.TotalWithdrawn.Equal(decimal.NewFromInt(70)))
	assert.True(t, wallet.Balance.Equal(wallet.TotalEarnings.Sub(wallet.TotalWithdrawn)))
}

func TestEnquiryResolve_CreatesProductOnce(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore(nil))
	enquiry := &domain.ProductEnquiry{SellerID: uuid.New(), Name: "Lamp", Status: domain.EnquiryStatusPending}
	require.NoError(t, repos.Enquiry.Create(ctx, enquiry))

	resolve := func(sku string) (bool, error) {
		return repos.Enquiry.Resolve(ctx, repository.EnquiryResolution{
			EnquiryID:  enquiry.ID,
			Status:     domain.EnquiryStatusApproved,
			NewProduct: &domain.Product{Name: "Lamp", SKU: sku, Status: domain.ProductStatusActive},
			ResolvedAt: time.Now(),
		})
	}
	ok, err := resolve("ENQ-1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = resolve("ENQ-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, total, err := repos.Product.List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	got, err := repos.Enquiry.GetByID(ctx, enquiry.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedProductID)
}

func TestAffiliateLink_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore(nil))
	sellerID, productID := uuid.New(), uuid.New()

	require.NoError(t, repos.AffiliateLink.Create(ctx, &domain.AffiliateLink{SellerID: sellerID, ProductID: productID, Code: "AFF-A"}))

	err := repos.AffiliateLink.Create(ctx, &domain.AffiliateLink{SellerID: sellerID, ProductID: productID, Code: "AFF-B"})
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeDuplicateLink, conflict.Code)

	err = repos.AffiliateLink.Create(ctx, &domain.AffiliateLink{SellerID: uuid.New(), ProductID: productID, Code: "AFF-A"})
	assert.ErrorIs(t, err, repository.ErrDuplicateAffiliateCode)
}
