package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type orderRepository struct {
	s *Store
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.ShippingAddress != nil {
		c.ShippingAddress = make(map[string]interface{}, len(o.ShippingAddress))
		for k, v := range o.ShippingAddress {
			c.ShippingAddress[k] = v
		}
	}
	return &c
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.orders {
		if o.OrderNumber == order.OrderNumber {
			return &errors.ErrConflict{Code: errors.CodeDuplicateOrder, Message: "order number already exists"}
		}
	}
	r.s.track(&order.ID)
	now := r.s.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return cloneOrder(o), nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.Order
	for _, o := range r.s.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && o.Payment.Status != *filter.PaymentStatus {
			continue
		}
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.SellerID != nil && (o.SellerID == nil || *o.SellerID != *filter.SellerID) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	newestFirst(r.s, out, func(o *domain.Order) uuid.UUID { return o.ID })
	return repository.Window(out, filter.Page), len(out), nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus, payment *domain.PaymentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if o.Status != expected {
		return false, nil
	}
	o.Status = next
	if payment != nil {
		o.Payment.Status = *payment
	}
	o.UpdatedAt = r.s.now()
	return true, nil
}

func (r *orderRepository) MarkPaymentFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if o.Payment.Status != domain.PaymentStatusPending {
		return false, nil
	}
	o.Payment.Status = domain.PaymentStatusFailed
	o.Payment.FailureReason = &reason
	o.Status = domain.OrderStatusCancelled
	o.UpdatedAt = r.s.now()
	return true, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[domain.OrderStatus]int)
	for _, o := range r.s.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (r *orderRepository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	total := decimal.Zero
	for _, o := range r.s.orders {
		if o.Payment.Status == domain.PaymentStatusCompleted {
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

type settlementRepository struct {
	s *Store
}

func (r *settlementRepository) SettleOrder(ctx context.Context, st *domain.Settlement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[st.OrderID]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "order", ID: st.OrderID.String()}
	}
	if o.Payment.Status != domain.PaymentStatusPending {
		return false, nil
	}

	// Every precondition is checked before the first write so a failure leaves nothing applied.
	if st.AffiliateLinkID != nil {
		if _, ok := r.s.links[*st.AffiliateLinkID]; !ok {
			return false, &errors.ErrNotFound{Resource: "affiliate_link", ID: st.AffiliateLinkID.String()}
		}
	}
	reference := st.OrderID.String()
	for _, credit := range st.Credits {
		if w, ok := r.s.wallets[credit.SellerID]; ok && r.s.hasTransaction(w.ID, domain.TransactionCredit, reference) {
			return false, fmt.Errorf("wallet %s already credited for order %s", w.ID, reference)
		}
	}

	now := r.s.now()
	paymentID := st.PaymentID
	signature := st.Signature
	paidAt := st.PaidAt
	o.Payment.Status = domain.PaymentStatusCompleted
	o.Payment.PaymentID = &paymentID
	o.Payment.Signature = &signature
	o.Payment.PaidAt = &paidAt
	o.Status = domain.OrderStatusConfirmed
	o.UpdatedAt = now

	if st.ShopID != nil {
		for _, shop := range r.s.shops {
			if shop.ID == *st.ShopID {
				shop.Analytics.TotalOrders++
				shop.Analytics.TotalRevenue = shop.Analytics.TotalRevenue.Add(st.Revenue)
				shop.UpdatedAt = now
				break
			}
		}
	}

	if st.AffiliateLinkID != nil {
		_ = r.s.recordConversion(*st.AffiliateLinkID, st.AffiliateEarnings)
	}

	if st.CouponCode != nil {
		r.s.consumeCoupon(*st.CouponCode, st.OrderID)
	}

	for _, credit := range st.Credits {
		w := r.s.walletFor(credit.SellerID, st.Currency)
		w.Balance = w.Balance.Add(credit.Amount)
		w.TotalEarnings = w.TotalEarnings.Add(credit.Amount)
		w.UpdatedAt = now
		r.s.appendTransaction(&domain.WalletTransaction{
			WalletID:    w.ID,
			Type:        domain.TransactionCredit,
			Amount:      credit.Amount,
			Status:      domain.TransactionStatusCompleted,
			Reference:   reference,
			Description: credit.Description,
		})
	}

	for _, dec := range st.StockDecrements {
		p, ok := r.s.products[dec.ProductID]
		if !ok {
			continue
		}
		p.Stock -= dec.Quantity
		if p.Stock < 0 {
			p.Stock = 0
		}
		p.UpdatedAt = now
	}
	return true, nil
}

// consumeCoupon increments usage while under the limit; callers hold mu
func (s *Store) consumeCoupon(code string, orderID uuid.UUID) {
	for _, c := range s.coupons {
		if c.Code != code {
			continue
		}
		if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
			s.logger.Warn("Coupon usage limit reached at settlement",
				zap.String("coupon_code", code),
				zap.String("order_id", orderID.String()),
			)
			return
		}
		c.UsedCount++
		c.UpdatedAt = s.now()
		return
	}
	s.logger.Warn("Coupon not found at settlement", zap.String("coupon_code", code))
}
