package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketplace/internal/domain"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is a 1-based page request
type Page struct {
	Page  int
	Limit int
}

// Normalize applies defaults and bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pages returns the page count for total rows
func (p Page) Pages(total int) int {
	if p.Limit < 1 || total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Window slices an in-memory result set the way OFFSET/LIMIT would
func Window[T any](items []T, p Page) []T {
	if p.Limit <= 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// UserFilter selects users. Search is a case-insensitive substring of name, email or business name.
type UserFilter struct {
	Role   *domain.Role
	Status *domain.UserStatus
	Search string
	Page   Page
}

// ProductFilter selects products. Nil fields do not constrain.
type ProductFilter struct {
	Status     *domain.ProductStatus
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	Search     string // case-insensitive substring of name or description
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Page       Page
}

// EnquiryFilter selects enquiries
type EnquiryFilter struct {
	Status   *domain.EnquiryStatus
	SellerID *uuid.UUID
	Page     Page
}

// OrderFilter selects orders
type OrderFilter struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	CustomerID    *uuid.UUID
	SellerID      *uuid.UUID
	Page          Page
}

// PayoutFilter selects payouts
type PayoutFilter struct {
	Status   *domain.PayoutStatus
	SellerID *uuid.UUID
	Page     Page
}

// EnquiryResolution is the terminal decision on a pending enquiry
type EnquiryResolution struct {
	EnquiryID         uuid.UUID
	Status            domain.EnquiryStatus
	Feedback          *string
	ApprovedProductID *uuid.UUID
	NewProduct        *domain.Product
	ResolvedAt        time.Time
}

// RoleStatusCount is one row of the user rollup
type RoleStatusCount struct {
	Role   domain.Role
	Status domain.UserStatus
	Count  int
}

// AffiliateTotals sums link counters
type AffiliateTotals struct {
	Links       int
	Clicks      int64
	Conversions int64
	Earnings    decimal.Decimal
}
