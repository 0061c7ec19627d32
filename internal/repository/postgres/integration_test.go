//go:build integration
// +build integration

package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("marketplace"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(ctx, db, zap.NewNop()))
	// Second run is a no-op
	require.NoError(t, RunMigrations(ctx, db, zap.NewNop()))
	return db
}

type fixture struct {
	repos    *repository.Repositories
	seller   *domain.User
	customer *domain.User
	product  *domain.Product
	shop     *domain.SellerShop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := NewRepositories(setupTestDB(t), zap.NewNop())

	seller := &domain.User{Name: "Seller", Email: "seller@example.com", PasswordHash: "x", Role: domain.RoleSeller, Status: domain.UserStatusApproved}
	require.NoError(t, repos.User.Create(ctx, seller))
	customer := &domain.User{Name: "Customer", Email: "customer@example.com", PasswordHash: "x", Role: domain.RoleCustomer, Status: domain.UserStatusActive}
	require.NoError(t, repos.User.Create(ctx, customer))

	category := &domain.Category{Name: "Lamps", Slug: "lamps", IsActive: true}
	require.NoError(t, repos.Category.Create(ctx, category))

	product := &domain.Product{
		Name:                "Desk lamp",
		Price:               decimal.RequireFromString("50.00"),
		Stock:               10,
		SKU:                 "LAMP-1",
		CategoryID:          category.ID,
		AffiliatePercentage: decimal.NewFromInt(10),
		Status:              domain.ProductStatusActive,
		SellerID:            &seller.ID,
	}
	require.NoError(t, repos.Product.Create(ctx, product))

	require.NoError(t, repos.Wallet.Create(ctx, &domain.Wallet{SellerID: seller.ID, Currency: "INR"}))
	shop := &domain.SellerShop{SellerID: seller.ID, ShopName: "Seller", IsActive: true}
	require.NoError(t, repos.Shop.Create(ctx, shop))

	return &fixture{repos: repos, seller: seller, customer: customer, product: product, shop: shop}
}

func (f *fixture) pendingOrder(t *testing.T, number string) *domain.Order {
	t.Helper()
	order := &domain.Order{
		OrderNumber: number,
		CustomerID:  f.customer.ID,
		SellerID:    &f.seller.ID,
		ShopID:      &f.shop.ID,
		Items: []domain.OrderItem{{
			ProductID: f.product.ID, Name: f.product.Name, Price: f.product.Price, Quantity: 2,
			AffiliatePercentage: decimal.Zero,
		}},
		Subtotal: decimal.RequireFromString("100.00"),
		Total:    decimal.RequireFromString("100.00"),
		Currency: "INR",
		Payment:  domain.PaymentDetails{GatewayOrderID: "order_" + number, Status: domain.PaymentStatusPending},
		Status:   domain.OrderStatusPending,
	}
	require.NoError(t, f.repos.Order.Create(context.Background(), order))
	return order
}

func TestIntegration_DuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t)
	err := f.repos.User.Create(context.Background(), &domain.User{
		Name: "Other", Email: "SELLER@example.com", PasswordHash: "x", Role: domain.RoleCustomer, Status: domain.UserStatusActive,
	})
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeDuplicateEmail, conflict.Code)
}

func TestIntegration_ConcurrentSettlementCreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.pendingOrder(t, "ORD-1")

	settlement := &domain.Settlement{
		OrderID:         order.ID,
		PaymentID:       "pay_1",
		Signature:       "sig",
		PaidAt:          time.Now().UTC(),
		Currency:        "INR",
		ShopID:          order.ShopID,
		Revenue:         order.Total,
		Credits:         []domain.WalletCredit{{SellerID: f.seller.ID, Amount: order.Total, Description: "Order ORD-1"}},
		StockDecrements: []domain.StockDecrement{{ProductID: f.product.ID, Quantity: 2}},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.repos.Settlement.SettleOrder(ctx, settlement)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)

	wallet, err := f.repos.Wallet.GetBySellerID(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(100)), wallet.Balance.String())

	shop, err := f.repos.Shop.GetBySellerID(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shop.Analytics.TotalOrders)

	product, err := f.repos.Product.GetByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, product.Stock)
}

func TestIntegration_PayoutLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.pendingOrder(t, "ORD-2")
	_, err := f.repos.Settlement.SettleOrder(ctx, &domain.Settlement{
		OrderID: order.ID, PaymentID: "pay_2", Signature: "sig", PaidAt: time.Now().UTC(), Currency: "INR",
		Credits: []domain.WalletCredit{{SellerID: f.seller.ID, Amount: order.Total}},
	})
	require.NoError(t, err)

	payout := &domain.Payout{SellerID: f.seller.ID, Amount: decimal.NewFromInt(60), Currency: "INR", RequestedBy: f.seller.ID}
	require.NoError(t, f.repos.Payout.CreateReserved(ctx, payout))

	err = f.repos.Payout.CreateReserved(ctx, &domain.Payout{SellerID: f.seller.ID, Amount: decimal.NewFromInt(50), Currency: "INR", RequestedBy: f.seller.ID})
	var insufficient *errors.ErrInsufficientFunds
	require.True(t, stderrors.As(err, &insufficient))

	ok, err := f.repos.Payout.MarkProcessing(ctx, payout.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.repos.Payout.Complete(ctx, &domain.PayoutCompletion{PayoutID: payout.ID, GatewayPayoutID: "pout_1", ProcessedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.repos.Payout.Complete(ctx, &domain.PayoutCompletion{PayoutID: payout.ID, GatewayPayoutID: "pout_1", ProcessedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, ok)

	wallet, err := f.repos.Wallet.GetBySellerID(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(40)), wallet.Balance.String())
	assert.True(t, wallet.TotalWithdrawn.Equal(decimal.NewFromInt(60)))

	txns, total, err := f.repos.Wallet.ListTransactions(ctx, wallet.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, txns, 2)
}

func TestIntegration_AffiliateCodeCollision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repos.AffiliateLink.Create(ctx, &domain.AffiliateLink{
		SellerID: f.seller.ID, ProductID: f.product.ID, Code: "AFF-1", CommissionRate: decimal.NewFromInt(10), IsActive: true,
	}))

	err := f.repos.AffiliateLink.Create(ctx, &domain.AffiliateLink{
		SellerID: f.seller.ID, ProductID: f.product.ID, Code: "AFF-2", CommissionRate: decimal.NewFromInt(10), IsActive: true,
	})
	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))
	assert.Equal(t, errors.CodeDuplicateLink, conflict.Code)

	var notFound *errors.ErrNotFound
	assert.True(t, stderrors.As(f.repos.AffiliateLink.IncrementClicks(ctx, uuid.New()), &notFound))
}
