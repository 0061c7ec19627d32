package errors

import (
	"fmt"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden is returned when the caller is authenticated but lacks the required role
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "forbidden"
}

// ErrConflict is returned when there's a conflict (duplicate record, already resolved, ...)
type ErrConflict struct {
	Code    string
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// Conflict codes
const (
	CodeDuplicateEmail   = "duplicate_email"
	CodeDuplicateSKU     = "duplicate_sku"
	CodeDuplicateSlug    = "duplicate_slug"
	CodeDuplicateCoupon  = "duplicate_coupon"
	CodeDuplicateEnquiry = "duplicate_enquiry"
	CodeDuplicateLink    = "duplicate_link"
	CodeDuplicateOrder   = "duplicate_order_number"
	CodeAlreadyResolved  = "already_resolved"
	CodeAlreadyPaid      = "already_paid"
)

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrInvalidStateTransition is returned when an invalid state transition is attempted
type ErrInvalidStateTransition struct {
	Entity string
	From   string
	To     string
}

func (e *ErrInvalidStateTransition) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("invalid %s state transition from %s to %s", e.Entity, e.From, e.To)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrInvalidCredentials is returned on unknown email or password mismatch
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrPendingApproval is returned when a seller logs in before being approved
type ErrPendingApproval struct {
	Status string
	Reason string
}

func (e *ErrPendingApproval) Error() string {
	if e.Status == "rejected" {
		if e.Reason != "" {
			return "seller application was rejected: " + e.Reason
		}
		return "seller application was rejected"
	}
	return "seller account is pending approval"
}

// ErrProductUnavailable is returned when a product is not active
type ErrProductUnavailable struct {
	ProductID string
	Status    string
}

func (e *ErrProductUnavailable) Error() string {
	return fmt.Sprintf("product %s is not available (status: %s)", e.ProductID, e.Status)
}

// ErrInvalidSignature is returned when a payment signature does not verify
type ErrInvalidSignature struct{}

func (e *ErrInvalidSignature) Error() string {
	return "invalid payment signature"
}

// ErrInsufficientFunds is returned when a payout exceeds the available balance
type ErrInsufficientFunds struct {
	Available string
	Requested string
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s", e.Available, e.Requested)
}

// ErrPaymentGateway wraps an upstream gateway failure. Callers may retry.
type ErrPaymentGateway struct {
	Op  string
	Err error
}

func (e *ErrPaymentGateway) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *ErrPaymentGateway) Unwrap() error {
	return e.Err
}
