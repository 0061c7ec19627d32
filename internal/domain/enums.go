package domain

// Role is the single role carried by an account
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "seller"
	RoleCustomer Role = "customer"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleCustomer:
		return true
	default:
		return false
	}
}

// UserStatus is the account state; sellers move pending -> approved | rejected
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
	UserStatusActive   UserStatus = "active"
)

// CanTransitionTo checks seller onboarding transitions. Approved and rejected are terminal.
func (s UserStatus) CanTransitionTo(newStatus UserStatus) bool {
	switch s {
	case UserStatusPending:
		return newStatus == UserStatusApproved || newStatus == UserStatusRejected
	default:
		return false
	}
}

// ProductStatus represents catalog visibility
type ProductStatus string

const (
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusApproved ProductStatus = "approved"
	ProductStatusRejected ProductStatus = "rejected"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// IsValid checks if the product status is valid
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusPending, ProductStatusApproved, ProductStatusRejected, ProductStatusActive, ProductStatusInactive:
		return true
	default:
		return false
	}
}

// EnquiryStatus represents the review state of a product enquiry
type EnquiryStatus string

const (
	EnquiryStatusPending  EnquiryStatus = "pending"
	EnquiryStatusApproved EnquiryStatus = "approved"
	EnquiryStatusRejected EnquiryStatus = "rejected"
)

// IsResolved reports whether the enquiry reached a terminal state
func (s EnquiryStatus) IsResolved() bool {
	return s == EnquiryStatusApproved || s == EnquiryStatusRejected
}

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	// PENDING - created, waiting for payment
	OrderStatusPending OrderStatus = "pending"
	// CONFIRMED - payment verified
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CanTransitionTo checks if a fulfilment transition is valid.
// pending -> confirmed only happens through payment verification, never through this check.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusCancelled
	case OrderStatusConfirmed:
		return newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusCancelled ||
			newStatus == OrderStatusRefunded
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled ||
			newStatus == OrderStatusRefunded
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered ||
			newStatus == OrderStatusCancelled ||
			newStatus == OrderStatusRefunded
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return false // Terminal states
	default:
		return false
	}
}

// PaymentStatus is the payment sub-state of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// TransactionType is the direction of a wallet transaction
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// TransactionStatus is the state of a wallet transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// PayoutStatus distinguishes never attempted (pending), in flight (processing)
// and attempted (completed | failed)
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// IsOpen reports whether the payout still reserves wallet funds
func (s PayoutStatus) IsOpen() bool {
	return s == PayoutStatusPending || s == PayoutStatusProcessing
}

// DiscountType is how a coupon computes its discount
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// NotificationType categorizes user-facing messages
type NotificationType string

const (
	NotificationSellerApplication NotificationType = "seller_application"
	NotificationSellerApproved    NotificationType = "seller_approved"
	NotificationSellerRejected    NotificationType = "seller_rejected"
	NotificationEnquiryResolved   NotificationType = "enquiry_resolved"
	NotificationOrderPlaced       NotificationType = "order_placed"
	NotificationPaymentReceived   NotificationType = "payment_received"
	NotificationOrderStatus       NotificationType = "order_status"
	NotificationCommissionEarned  NotificationType = "commission_earned"
	NotificationPayoutCompleted   NotificationType = "payout_completed"
	NotificationPayoutFailed      NotificationType = "payout_failed"
)
