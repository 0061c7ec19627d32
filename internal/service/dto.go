package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
)

// PageResult is the pagination envelope returned by every list operation
type PageResult[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPageResult[T any](items []T, total int, page repository.Page) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items: items,
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
		Pages: page.Pages(total),
	}
}

// RegisterRequest is the self-service sign-up payload. Role is seller or customer.
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	Role            string `json:"role" binding:"required"`
	Phone           string `json:"phone"`
	BusinessName    string `json:"business_name"`
	ShopName        string `json:"shop_name"`
	ShopDescription string `json:"shop_description"`
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Session is a successful login
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RejectSellerRequest carries the reason shown to the seller
type RejectSellerRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SellerQuery filters the admin seller list
type SellerQuery struct {
	Status *domain.UserStatus
	Search string
	Page   repository.Page
}

// CreateCategoryRequest creates a catalog category. Slug is derived from the name when empty.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CreateProductRequest is an admin-added catalog product
type CreateProductRequest struct {
	Name                string          `json:"name" binding:"required"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price"`
	Stock               int             `json:"stock" binding:"min=0"`
	SKU                 string          `json:"sku"`
	CategoryID          uuid.UUID       `json:"category_id" binding:"required"`
	Images              []string        `json:"images"`
	AffiliatePercentage decimal.Decimal `json:"affiliate_percentage"`
}

// UpdateProductRequest changes only the fields present
type UpdateProductRequest struct {
	Name                *string               `json:"name"`
	Description         *string               `json:"description"`
	Price               *decimal.Decimal      `json:"price"`
	Stock               *int                  `json:"stock"`
	CategoryID          *uuid.UUID            `json:"category_id"`
	Images              []string              `json:"images"`
	AffiliatePercentage *decimal.Decimal      `json:"affiliate_percentage"`
	Status              *domain.ProductStatus `json:"status"`
}

// SubmitEnquiryRequest is a seller's product proposal
type SubmitEnquiryRequest struct {
	ProductID      *uuid.UUID      `json:"product_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	CategoryID     uuid.UUID       `json:"category_id"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	Message        string          `json:"message"`
}

// ResolveEnquiryRequest is the admin decision. The overrides only apply to approvals that create a product.
type ResolveEnquiryRequest struct {
	Decision            domain.EnquiryStatus `json:"decision" binding:"required"`
	Feedback            string               `json:"feedback"`
	Price               *decimal.Decimal     `json:"price"`
	Stock               *int                 `json:"stock"`
	AffiliatePercentage *decimal.Decimal     `json:"affiliate_percentage"`
}

// CreateAffiliateLinkRequest targets one catalog product
type CreateAffiliateLinkRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// OrderItemRequest is one checkout line
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest is the checkout payload
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" binding:"required,min=1,dive"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	CouponCode      string                 `json:"coupon_code"`
	AffiliateCode   string                 `json:"affiliate_code"`
}

// VerifyPaymentRequest is what the gateway checkout hands back to the client
type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}

// PaymentFailedRequest reports a gateway-side failure or a dismissed checkout
type PaymentFailedRequest struct {
	Reason string `json:"reason"`
}

// UpdateOrderStatusRequest is a fulfilment transition
type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// CreateCouponRequest creates a discount code
type CreateCouponRequest struct {
	Code           string              `json:"code" binding:"required"`
	Description    string              `json:"description"`
	DiscountType   domain.DiscountType `json:"discount_type" binding:"required"`
	DiscountValue  decimal.Decimal     `json:"discount_value"`
	MinOrderAmount decimal.Decimal     `json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal    `json:"max_discount"`
	UsageLimit     *int                `json:"usage_limit"`
	ValidFrom      *time.Time          `json:"valid_from"`
	ValidUntil     *time.Time          `json:"valid_until"`
	ProductIDs     []uuid.UUID         `json:"product_ids"`
	CategoryIDs    []uuid.UUID         `json:"category_ids"`
}

// ValidateCouponRequest previews a coupon against a cart
type ValidateCouponRequest struct {
	Code  string             `json:"code" binding:"required"`
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CouponQuote is the discount a coupon would give a cart
type CouponQuote struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
}

// BankAccountRequest sets the payout destination
type BankAccountRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	IFSC          string `json:"ifsc" binding:"required"`
	HolderName    string `json:"holder_name" binding:"required"`
}

// PayoutRequest asks for a transfer of wallet funds. SellerID is only read on admin requests.
type PayoutRequest struct {
	SellerID uuid.UUID       `json:"seller_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// LedgerReport compares a wallet's cached figures with its transaction log
type LedgerReport struct {
	SellerID       uuid.UUID       `json:"seller_id"`
	Balance        decimal.Decimal `json:"balance"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Credits        decimal.Decimal `json:"credits"`
	Debits         decimal.Decimal `json:"debits"`
	Consistent     bool            `json:"consistent"`
}
