package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketplace/internal/domain"
)

// ErrDuplicateAffiliateCode is returned when a generated affiliate code collides; callers regenerate and retry
var ErrDuplicateAffiliateCode = errors.New("affiliate code already exists")

// UserRepository defines user data access methods
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateStatus moves a user from expected to next; false when the current status is not expected
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.UserStatus, reason *string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int, error)
	CountByRoleAndStatus(ctx context.Context) ([]RoleStatusCount, error)
}

// CategoryRepository defines category data access methods
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
}

// ProductRepository defines product data access methods
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	CountByStatus(ctx context.Context) (map[domain.ProductStatus]int, error)
}

// EnquiryRepository defines product enquiry data access methods
type EnquiryRepository interface {
	Create(ctx context.Context, enquiry *domain.ProductEnquiry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductEnquiry, error)
	ExistsForSellerProduct(ctx context.Context, sellerID, productID uuid.UUID) (bool, error)
	// Resolve applies the decision only while the enquiry is pending; a new product, when given, is inserted in the same unit
	Resolve(ctx context.Context, res EnquiryResolution) (bool, error)
	List(ctx context.Context, filter EnquiryFilter) ([]*domain.ProductEnquiry, int, error)
}

// AffiliateLinkRepository defines affiliate link data access methods
type AffiliateLinkRepository interface {
	Create(ctx context.Context, link *domain.AffiliateLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AffiliateLink, error)
	GetByCode(ctx context.Context, code string) (*domain.AffiliateLink, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.AffiliateLink, error)
	IncrementClicks(ctx context.Context, id uuid.UUID) error
	RecordConversion(ctx context.Context, id uuid.UUID, earnings decimal.Decimal) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Totals(ctx context.Context, sellerID *uuid.UUID) (*AffiliateTotals, error)
}

// OrderRepository defines order data access methods
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	// UpdateStatus moves the order from expected to next, optionally setting the payment status; false when stale
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus, payment *domain.PaymentStatus) (bool, error)
	// MarkPaymentFailed moves a pending payment to failed and cancels the order; false when not pending
	MarkPaymentFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
}

// SettlementRepository applies verified-payment effects
type SettlementRepository interface {
	// SettleOrder applies every effect of s atomically, only while the order's payment is pending.
	// Returns false (and changes nothing) when the payment was already settled or failed.
	SettleOrder(ctx context.Context, s *domain.Settlement) (bool, error)
}

// WalletRepository defines wallet data access methods
type WalletRepository interface {
	// Create inserts a wallet; an existing wallet for the seller is left untouched and returned in w
	Create(ctx context.Context, w *domain.Wallet) error
	GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*domain.Wallet, error)
	UpdateBankAccount(ctx context.Context, sellerID uuid.UUID, account domain.BankAccount) error
	// ListTransactions returns newest first; limit <= 0 returns all
	ListTransactions(ctx context.Context, walletID uuid.UUID, page Page) ([]*domain.WalletTransaction, int, error)
}

// PayoutRepository defines payout data access methods
type PayoutRepository interface {
	// CreateReserved inserts a pending payout if the wallet balance minus open payouts covers it
	CreateReserved(ctx context.Context, p *domain.Payout) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	List(ctx context.Context, filter PayoutFilter) ([]*domain.Payout, int, error)
	// MarkProcessing claims a pending payout; false when it is not pending
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	// Complete finishes a processing payout and debits the wallet in one unit; false when not processing
	Complete(ctx context.Context, c *domain.PayoutCompletion) (bool, error)
	// MarkFailed records a failed attempt on a processing payout; false when not processing
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	OpenSummary(ctx context.Context) (int, decimal.Decimal, error)
}

// ShopRepository defines seller shop data access methods
type ShopRepository interface {
	Create(ctx context.Context, shop *domain.SellerShop) error
	GetBySellerID(ctx context.Context, sellerID uuid.UUID) (*domain.SellerShop, error)
	IncrementVisits(ctx context.Context, shopID uuid.UUID) error
}

// CouponRepository defines coupon data access methods
type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context, page Page) ([]*domain.Coupon, int, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// NotificationRepository defines notification data access methods
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page Page) ([]*domain.Notification, int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	User          UserRepository
	Category      CategoryRepository
	Product       ProductRepository
	Enquiry       EnquiryRepository
	AffiliateLink AffiliateLinkRepository
	Order         OrderRepository
	Settlement    SettlementRepository
	Wallet        WalletRepository
	Payout        PayoutRepository
	Shop          ShopRepository
	Coupon        CouponRepository
	Notification  NotificationRepository
}
