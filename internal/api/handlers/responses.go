package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/service"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

func optionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timestamp(*t)
	return &s
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// ListResponse is the pagination envelope on the wire
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func listResponse[S, T any](page *service.PageResult[S], convert func(S) T) ListResponse[T] {
	items := make([]T, len(page.Items))
	for i, item := range page.Items {
		items[i] = convert(item)
	}
	return ListResponse[T]{Items: items, Page: page.Page, Limit: page.Limit, Total: page.Total, Pages: page.Pages}
}

type UserResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	Status          string      `json:"status"`
	RejectionReason *string     `json:"rejection_reason,omitempty"`
	Phone           string      `json:"phone,omitempty"`
	BusinessName    string      `json:"business_name,omitempty"`
	CreatedAt       string      `json:"created_at"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:              u.ID.String(),
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Status:          string(u.Status),
		RejectionReason: u.RejectionReason,
		Phone:           u.Phone,
		BusinessName:    u.BusinessName,
		CreatedAt:       timestamp(u.CreatedAt),
	}
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

type ProductResponse struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	Price               string               `json:"price"`
	Stock               int                  `json:"stock"`
	SKU                 string               `json:"sku"`
	CategoryID          string               `json:"category_id"`
	Images              []string             `json:"images"`
	AffiliatePercentage string               `json:"affiliate_percentage"`
	Status              domain.ProductStatus `json:"status"`
	SellerID            *string              `json:"seller_id,omitempty"`
	CreatedAt           string               `json:"created_at"`
	UpdatedAt           string               `json:"updated_at"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:                  p.ID.String(),
		Name:                p.Name,
		Description:         p.Description,
		Price:               money(p.Price),
		Stock:               p.Stock,
		SKU:                 p.SKU,
		CategoryID:          p.CategoryID.String(),
		Images:              images,
		AffiliatePercentage: p.AffiliatePercentage.String(),
		Status:              p.Status,
		SellerID:            optionalID(p.SellerID),
		CreatedAt:           timestamp(p.CreatedAt),
		UpdatedAt:           timestamp(p.UpdatedAt),
	}
}

type EnquiryResponse struct {
	ID                string               `json:"id"`
	SellerID          string               `json:"seller_id"`
	ProductID         *string              `json:"product_id,omitempty"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	CategoryID        string               `json:"category_id"`
	SuggestedPrice    string               `json:"suggested_price"`
	Message           string               `json:"message"`
	Status            domain.EnquiryStatus `json:"status"`
	AdminFeedback     *string              `json:"admin_feedback,omitempty"`
	ApprovedProductID *string              `json:"approved_product_id,omitempty"`
	ResolvedAt        *string              `json:"resolved_at,omitempty"`
	CreatedAt         string               `json:"created_at"`
}

func toEnquiryResponse(e *domain.ProductEnquiry) EnquiryResponse {
	return EnquiryResponse{
		ID:                e.ID.String(),
		SellerID:          e.SellerID.String(),
		ProductID:         optionalID(e.ProductID),
		Name:              e.Name,
		Description:       e.Description,
		CategoryID:        e.CategoryID.String(),
		SuggestedPrice:    money(e.SuggestedPrice),
		Message:           e.Message,
		Status:            e.Status,
		AdminFeedback:     e.AdminFeedback,
		ApprovedProductID: optionalID(e.ApprovedProductID),
		ResolvedAt:        optionalTimestamp(e.ResolvedAt),
		CreatedAt:         timestamp(e.CreatedAt),
	}
}

type AffiliateLinkResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Code           string `json:"code"`
	URL            string `json:"url"`
	CommissionRate string `json:"commission_rate"`
	Clicks         int64  `json:"clicks"`
	Conversions    int64  `json:"conversions"`
	Earnings       string `json:"earnings"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
}

func toAffiliateLinkResponse(l *domain.AffiliateLink) AffiliateLinkResponse {
	return AffiliateLinkResponse{
		ID:             l.ID.String(),
		ProductID:      l.ProductID.String(),
		Code:           l.Code,
		URL:            "/r/" + l.Code,
		CommissionRate: l.CommissionRate.String(),
		Clicks:         l.Clicks,
		Conversions:    l.Conversions,
		Earnings:       money(l.Earnings),
		IsActive:       l.IsActive,
		CreatedAt:      timestamp(l.CreatedAt),
	}
}

type OrderItemResponse struct {
	ProductID           string `json:"product_id"`
	Name                string `json:"name"`
	Price               string `json:"price"`
	Quantity            int    `json:"quantity"`
	AffiliatePercentage string `json:"affiliate_percentage"`
}

type PaymentResponse struct {
	GatewayOrderID string               `json:"gateway_order_id"`
	PaymentID      *string              `json:"payment_id,omitempty"`
	Status         domain.PaymentStatus `json:"status"`
	FailureReason  *string              `json:"failure_reason,omitempty"`
	PaidAt         *string              `json:"paid_at,omitempty"`
}

type OrderResponse struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	CustomerID      string                 `json:"customer_id"`
	SellerID        *string                `json:"seller_id,omitempty"`
	Items           []OrderItemResponse    `json:"items"`
	Subtotal        string                 `json:"subtotal"`
	Tax             string                 `json:"tax"`
	Shipping        string                 `json:"shipping"`
	Discount        string                 `json:"discount"`
	Total           string                 `json:"total"`
	Currency        string                 `json:"currency"`
	CouponCode      *string                `json:"coupon_code,omitempty"`
	AffiliateLinkID *string                `json:"affiliate_link_id,omitempty"`
	Payment         PaymentResponse        `json:"payment"`
	Status          domain.OrderStatus     `json:"status"`
	ShippingAddress map[string]interface{} `json:"shipping_address,omitempty"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:           item.ProductID.String(),
			Name:                item.Name,
			Price:               money(item.Price),
			Quantity:            item.Quantity,
			AffiliatePercentage: item.AffiliatePercentage.String(),
		}
	}
	return OrderResponse{
		ID:              o.ID.String(),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID.String(),
		SellerID:        optionalID(o.SellerID),
		Items:           items,
		Subtotal:        money(o.Subtotal),
		Tax:             money(o.Tax),
		Shipping:        money(o.Shipping),
		Discount:        money(o.Discount),
		Total:           money(o.Total),
		Currency:        o.Currency,
		CouponCode:      o.CouponCode,
		AffiliateLinkID: optionalID(o.AffiliateLinkID),
		Payment: PaymentResponse{
			GatewayOrderID: o.Payment.GatewayOrderID,
			PaymentID:      o.Payment.PaymentID,
			Status:         o.Payment.Status,
			FailureReason:  o.Payment.FailureReason,
			PaidAt:         optionalTimestamp(o.Payment.PaidAt),
		},
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       timestamp(o.CreatedAt),
		UpdatedAt:       timestamp(o.UpdatedAt),
	}
}

// CheckoutResponse carries what the client needs to open the gateway checkout
type CheckoutResponse struct {
	Order          OrderResponse `json:"order"`
	GatewayOrderID string        `json:"gateway_order_id"`
	AmountMinor    int64         `json:"amount"`
	Currency       string        `json:"currency"`
	KeyID          string        `json:"key_id"`
}

type BankAccountResponse struct {
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
	HolderName    string `json:"holder_name"`
}

type WalletResponse struct {
	ID             string               `json:"id"`
	SellerID       string               `json:"seller_id"`
	Balance        string               `json:"balance"`
	TotalEarnings  string               `json:"total_earnings"`
	TotalWithdrawn string               `json:"total_withdrawn"`
	Currency       string               `json:"currency"`
	BankAccount    *BankAccountResponse `json:"bank_account,omitempty"`
}

// maskAccount keeps the last four digits
func maskAccount(number string) string {
	if len(number) <= 4 {
		return number
	}
	masked := make([]byte, len(number))
	for i := range masked {
		if i < len(number)-4 {
			masked[i] = 'X'
		} else {
			masked[i] = number[i]
		}
	}
	return string(masked)
}

func toWalletResponse(w *domain.Wallet) WalletResponse {
	resp := WalletResponse{
		ID:             w.ID.String(),
		SellerID:       w.SellerID.String(),
		Balance:        money(w.Balance),
		TotalEarnings:  money(w.TotalEarnings),
		TotalWithdrawn: money(w.TotalWithdrawn),
		Currency:       w.Currency,
	}
	if w.BankAccount != nil {
		resp.BankAccount = &BankAccountResponse{
			AccountNumber: maskAccount(w.BankAccount.AccountNumber),
			IFSC:          w.BankAccount.IFSC,
			HolderName:    w.BankAccount.HolderName,
		}
	}
	return resp
}

type TransactionResponse struct {
	ID          string                   `json:"id"`
	Type        domain.TransactionType   `json:"type"`
	Amount      string                   `json:"amount"`
	Status      domain.TransactionStatus `json:"status"`
	Reference   string                   `json:"reference"`
	Description string                   `json:"description"`
	CreatedAt   string                   `json:"created_at"`
}

func toTransactionResponse(t *domain.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		Type:        t.Type,
		Amount:      money(t.Amount),
		Status:      t.Status,
		Reference:   t.Reference,
		Description: t.Description,
		CreatedAt:   timestamp(t.CreatedAt),
	}
}

type PayoutResponse struct {
	ID              string              `json:"id"`
	SellerID        string              `json:"seller_id"`
	Amount          string              `json:"amount"`
	Currency        string              `json:"currency"`
	Status          domain.PayoutStatus `json:"status"`
	GatewayPayoutID *string             `json:"gateway_payout_id,omitempty"`
	FailureReason   *string             `json:"failure_reason,omitempty"`
	RequestedBy     string              `json:"requested_by"`
	ProcessedAt     *string             `json:"processed_at,omitempty"`
	CreatedAt       string              `json:"created_at"`
}

func toPayoutResponse(p *domain.Payout) PayoutResponse {
	return PayoutResponse{
		ID:              p.ID.String(),
		SellerID:        p.SellerID.String(),
		Amount:          money(p.Amount),
		Currency:        p.Currency,
		Status:          p.Status,
		GatewayPayoutID: p.GatewayPayoutID,
		FailureReason:   p.FailureReason,
		RequestedBy:     p.RequestedBy.String(),
		ProcessedAt:     optionalTimestamp(p.ProcessedAt),
		CreatedAt:       timestamp(p.CreatedAt),
	}
}

type CouponResponse struct {
	ID             string              `json:"id"`
	Code           string              `json:"code"`
	Description    string              `json:"description,omitempty"`
	DiscountType   domain.DiscountType `json:"discount_type"`
	DiscountValue  string              `json:"discount_value"`
	MinOrderAmount string              `json:"min_order_amount"`
	MaxDiscount    *string             `json:"max_discount,omitempty"`
	UsageLimit     *int                `json:"usage_limit,omitempty"`
	UsedCount      int                 `json:"used_count"`
	ValidFrom      *string             `json:"valid_from,omitempty"`
	ValidUntil     *string             `json:"valid_until,omitempty"`
	IsActive       bool                `json:"is_active"`
	ProductIDs     []uuid.UUID         `json:"product_ids,omitempty"`
	CategoryIDs    []uuid.UUID         `json:"category_ids,omitempty"`
}

func toCouponResponse(c *domain.Coupon) CouponResponse {
	resp := CouponResponse{
		ID:             c.ID.String(),
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue.String(),
		MinOrderAmount: money(c.MinOrderAmount),
		UsageLimit:     c.UsageLimit,
		UsedCount:      c.UsedCount,
		ValidFrom:      optionalTimestamp(c.ValidFrom),
		ValidUntil:     optionalTimestamp(c.ValidUntil),
		IsActive:       c.IsActive,
		ProductIDs:     c.ProductIDs,
		CategoryIDs:    c.CategoryIDs,
	}
	if c.MaxDiscount != nil {
		capped := money(*c.MaxDiscount)
		resp.MaxDiscount = &capped
	}
	return resp
}

type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt string                  `json:"created_at"`
}

func toNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: timestamp(n.CreatedAt),
	}
}

type ShopResponse struct {
	ID           string `json:"id"`
	ShopName     string `json:"shop_name"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"is_active"`
	TotalVisits  int64  `json:"total_visits"`
	TotalOrders  int64  `json:"total_orders"`
	TotalRevenue string `json:"total_revenue"`
}

func toShopResponse(s *domain.SellerShop) ShopResponse {
	return ShopResponse{
		ID:           s.ID.String(),
		ShopName:     s.ShopName,
		Description:  s.Description,
		IsActive:     s.IsActive,
		TotalVisits:  s.Analytics.TotalVisits,
		TotalOrders:  s.Analytics.TotalOrders,
		TotalRevenue: money(s.Analytics.TotalRevenue),
	}
}
