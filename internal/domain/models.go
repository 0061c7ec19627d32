package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account holder
type User struct {
	ID              uuid.UUID
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	Status          UserStatus
	RejectionReason *string
	Phone           string
	BusinessName    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Category groups products
type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// Product is a sellable catalog item. SellerID is nil for admin-added products.
type Product struct {
	ID                  uuid.UUID
	Name                string
	Description         string
	Price               decimal.Decimal
	Stock               int
	SKU                 string
	CategoryID          uuid.UUID
	Images              []string
	AffiliatePercentage decimal.Decimal
	Status              ProductStatus
	SellerID            *uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProductEnquiry is a seller's proposal for a new catalog product.
// ProductID is the optional existing product the proposal targets.
type ProductEnquiry struct {
	ID                uuid.UUID
	SellerID          uuid.UUID
	ProductID         *uuid.UUID
	Name              string
	Description       string
	CategoryID        uuid.UUID
	SuggestedPrice    decimal.Decimal
	Message           string
	Status            EnquiryStatus
	AdminFeedback     *string
	ApprovedProductID *uuid.UUID
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AffiliateLink is a seller's referral instrument for one product.
// CommissionRate is a copy of the product's percentage taken at creation.
type AffiliateLink struct {
	ID             uuid.UUID
	SellerID       uuid.UUID
	ProductID      uuid.UUID
	Code           string
	CommissionRate decimal.Decimal
	Clicks         int64
	Conversions    int64
	Earnings       decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem is a line item snapshot taken when the order is created
type OrderItem struct {
	ProductID           uuid.UUID
	Name                string
	Price               decimal.Decimal
	Quantity            int
	AffiliatePercentage decimal.Decimal
}

// LineTotal returns price x quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PaymentDetails correlates an order with the gateway
type PaymentDetails struct {
	GatewayOrderID string
	PaymentID      *string
	Signature      *string
	Status         PaymentStatus
	FailureReason  *string
	PaidAt         *time.Time
}

// Order is a placed purchase
type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	CustomerID      uuid.UUID
	SellerID        *uuid.UUID
	ShopID          *uuid.UUID
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	CouponCode      *string
	AffiliateLinkID *uuid.UUID
	Payment         PaymentDetails
	Status          OrderStatus
	ShippingAddress map[string]interface{} // JSONB
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BankAccount is where payouts are sent
type BankAccount struct {
	AccountNumber string
	IFSC          string
	HolderName    string
}

// Wallet is the seller's money ledger and the single source of truth for balance
type Wallet struct {
	ID             uuid.UUID
	SellerID       uuid.UUID
	Balance        decimal.Decimal
	TotalEarnings  decimal.Decimal
	TotalWithdrawn decimal.Decimal
	Currency       string
	BankAccount    *BankAccount
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WalletTransaction is an append-only ledger entry.
// Reference is the order id for credits and the payout id for debits.
type WalletTransaction struct {
	ID          uuid.UUID
	WalletID    uuid.UUID
	Type        TransactionType
	Amount      decimal.Decimal
	Status      TransactionStatus
	Reference   string
	Description string
	CreatedAt   time.Time
}

// Payout is an admin-triggered transfer of wallet funds to a bank account
type Payout struct {
	ID              uuid.UUID
	SellerID        uuid.UUID
	WalletID        uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Status          PayoutStatus
	GatewayPayoutID *string
	FailureReason   *string
	RequestedBy     uuid.UUID
	ProcessedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ShopAnalytics counters only grow, and only through verified orders
type ShopAnalytics struct {
	TotalVisits  int64
	TotalOrders  int64
	TotalRevenue decimal.Decimal
}

// SellerShop is a seller's storefront
type SellerShop struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	ShopName    string
	Description string
	IsActive    bool
	Analytics   ShopAnalytics
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Coupon is a discount code
type Coupon struct {
	ID             uuid.UUID
	Code           string
	Description    string
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxDiscount    *decimal.Decimal
	UsageLimit     *int
	UsedCount      int
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	IsActive       bool
	ProductIDs     []uuid.UUID
	CategoryIDs    []uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Notification is a user-facing event message
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      NotificationType
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
