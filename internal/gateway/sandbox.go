package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/pkg/errors"
)

// Sandbox is an in-process gateway used in development when no credentials are configured.
// Orders and payouts get random ids; failures can be injected per operation.
type Sandbox struct {
	secret string

	mu          sync.Mutex
	orders      []Order
	payouts     []PayoutRequest
	nextIDs     []string
	failOrders  error
	failPayouts error
}

// NewSandbox creates a sandbox gateway signing with secret
func NewSandbox(secret string) *Sandbox {
	return &Sandbox{secret: secret}
}

// FailOrders makes subsequent CreateOrder calls fail with err (nil clears)
func (s *Sandbox) FailOrders(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOrders = err
}

// QueueOrderID makes the next CreateOrder call return id instead of a random one
func (s *Sandbox) QueueOrderID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextIDs = append(s.nextIDs, id)
}

// FailPayouts makes subsequent CreatePayout calls fail with err (nil clears)
func (s *Sandbox) FailPayouts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPayouts = err
}

// Orders returns the orders created so far
func (s *Sandbox) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Order(nil), s.orders...)
}

// Payouts returns the payouts requested so far
func (s *Sandbox) Payouts() []PayoutRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PayoutRequest(nil), s.payouts...)
}

func (s *Sandbox) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOrders != nil {
		return nil, &errors.ErrPaymentGateway{Op: "create_order", Err: s.failOrders}
	}
	if err := ctx.Err(); err != nil {
		return nil, &errors.ErrPaymentGateway{Op: "create_order", Err: err}
	}
	if amountMinor <= 0 {
		return nil, &errors.ErrPaymentGateway{Op: "create_order", Err: fmt.Errorf("amount must be positive")}
	}
	id := "order_" + compactID()
	if len(s.nextIDs) > 0 {
		id, s.nextIDs = s.nextIDs[0], s.nextIDs[1:]
	}
	o := Order{
		ID:       id,
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	s.orders = append(s.orders, o)
	return &o, nil
}

func (s *Sandbox) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifyPaymentSignature(s.secret, gatewayOrderID, paymentID, signature)
}

func (s *Sandbox) CreatePayout(ctx context.Context, req PayoutRequest) (*Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPayouts != nil {
		return nil, &errors.ErrPaymentGateway{Op: "create_payout", Err: s.failPayouts}
	}
	if err := ctx.Err(); err != nil {
		return nil, &errors.ErrPaymentGateway{Op: "create_payout", Err: err}
	}
	s.payouts = append(s.payouts, req)
	return &Payout{ID: "pout_" + compactID(), Status: "processed"}, nil
}

func compactID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:7])
}
