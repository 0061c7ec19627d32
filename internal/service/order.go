package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/gateway"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type orderService struct {
	cfg           *config.Config
	repos         *repository.Repositories
	gateway       gateway.Gateway
	coupons       *couponService
	notifications *notificationService
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	cfg *config.Config,
	repos *repository.Repositories,
	gw gateway.Gateway,
	coupons *couponService,
	notifications *notificationService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *orderService {
	return &orderService{
		cfg:           cfg,
		repos:         repos,
		gateway:       gw,
		coupons:       coupons,
		notifications: notifications,
		metrics:       m,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder snapshots catalog prices, applies the coupon and affiliate code, opens a gateway
// order and only then persists the local order. Nothing is stored when the gateway fails.
func (s *orderService) CreateOrder(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, &errors.ErrValidation{Message: "order must contain at least one item", Fields: map[string]string{"items": "required"}}
	}

	// merge repeated lines so stock is checked against the full quantity
	quantities := make(map[uuid.UUID]int, len(req.Items))
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &errors.ErrValidation{Message: "quantity must be at least 1", Fields: map[string]string{"quantity": "min"}}
		}
		if _, seen := quantities[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	var (
		items    []domain.OrderItem
		lines    []cartLine
		sellerID *uuid.UUID
		subtotal = decimal.Zero
	)
	for i, productID := range productIDs {
		product, err := s.repos.Product.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if product.Status != domain.ProductStatusActive {
			return nil, &errors.ErrProductUnavailable{ProductID: productID.String(), Status: string(product.Status)}
		}
		qty := quantities[productID]
		if qty > product.Stock {
			return nil, &errors.ErrValidation{
				Message: fmt.Sprintf("only %d left in stock for %s", product.Stock, product.Name),
				Fields:  map[string]string{"quantity": "exceeds_stock"},
			}
		}
		if i == 0 {
			sellerID = product.SellerID
		} else if !sameSeller(sellerID, product.SellerID) {
			return nil, &errors.ErrValidation{Message: "all items must belong to the same seller", Fields: map[string]string{"items": "mixed_sellers"}}
		}
		item := domain.OrderItem{
			ProductID:           product.ID,
			Name:                product.Name,
			Price:               product.Price,
			Quantity:            qty,
			AffiliatePercentage: decimal.Zero,
		}
		items = append(items, item)
		lines = append(lines, cartLine{ProductID: product.ID, CategoryID: product.CategoryID, Total: item.LineTotal()})
		subtotal = subtotal.Add(item.LineTotal())
	}

	affiliateLinkID := s.applyAffiliate(ctx, req.AffiliateCode, items)

	discount := decimal.Zero
	var couponCode *string
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		coupon, d, err := s.coupons.Quote(ctx, code, subtotal, lines)
		if err != nil {
			return nil, err
		}
		discount = d
		couponCode = &coupon.Code
	}

	tax := domain.RoundMoney(domain.Percent(subtotal, s.cfg.Site.TaxRatePercent))
	shipping := decimal.Zero
	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if !total.IsPositive() {
		return nil, &errors.ErrValidation{Message: "order total must be greater than zero"}
	}
	amountMinor, err := domain.ToMinorUnits(total)
	if err != nil {
		return nil, &errors.ErrValidation{Message: err.Error()}
	}

	number, err := orderNumber(s.now())
	if err != nil {
		return nil, err
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, amountMinor, s.cfg.Site.Currency, number)
	if err != nil {
		s.logger.Error("Failed to create gateway order",
			zap.String("order_number", number),
			zap.Error(err),
		)
		var gwErr *errors.ErrPaymentGateway
		if stderrors.As(err, &gwErr) {
			return nil, err
		}
		return nil, &errors.ErrPaymentGateway{Op: "create_order", Err: err}
	}

	o := &domain.Order{
		OrderNumber:     number,
		CustomerID:      customerID,
		SellerID:        sellerID,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        shipping,
		Discount:        discount,
		Total:           total,
		Currency:        s.cfg.Site.Currency,
		CouponCode:      couponCode,
		AffiliateLinkID: affiliateLinkID,
		Payment: domain.PaymentDetails{
			GatewayOrderID: gwOrder.ID,
			Status:         domain.PaymentStatusPending,
		},
		Status:          domain.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
	}
	if sellerID != nil {
		if shop, err := s.repos.Shop.GetBySellerID(ctx, *sellerID); err == nil {
			o.ShopID = &shop.ID
		}
	}

	if err := s.repos.Order.Create(ctx, o); err != nil {
		s.logger.Error("Failed to persist order after gateway order was created",
			zap.String("order_number", number),
			zap.String("gateway_order_id", gwOrder.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.OrderCreated()
	s.logger.Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", number),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.String("total", total.StringFixed(domain.MoneyPlaces)),
	)
	return o, nil
}

func sameSeller(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// applyAffiliate stamps the link's commission snapshot on the matching line.
// Unknown, inactive or unrelated codes are ignored.
func (s *orderService) applyAffiliate(ctx context.Context, code string, items []domain.OrderItem) *uuid.UUID {
	code = strings.TrimSpace(code)
	if code == "" || !s.cfg.Site.EnableAffiliates {
		return nil
	}
	link, err := s.repos.AffiliateLink.GetByCode(ctx, code)
	if err != nil || !link.IsActive {
		s.logger.Warn("Ignoring affiliate code", zap.String("code", code), zap.Error(err))
		return nil
	}
	matched := false
	for i := range items {
		if items[i].ProductID == link.ProductID {
			items[i].AffiliatePercentage = link.CommissionRate
			matched = true
		}
	}
	if !matched {
		return nil
	}
	id := link.ID
	return &id
}

// getOwnOrder hides orders of other customers behind NotFound
func (s *orderService) getOwnOrder(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error) {
	o, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}
	return o, nil
}

// VerifyPayment checks the gateway signature and settles the order exactly once.
// A replay with the same payment id returns the settled order unchanged.
func (s *orderService) VerifyPayment(ctx context.Context, customerID, orderID uuid.UUID, req VerifyPaymentRequest) (*domain.Order, error) {
	o, err := s.getOwnOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if req.GatewayOrderID != o.Payment.GatewayOrderID {
		return nil, &errors.ErrValidation{Message: "gateway order id does not match this order", Fields: map[string]string{"gateway_order_id": "mismatch"}}
	}

	if !s.gateway.VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		s.metrics.PaymentVerified(metrics.ResultInvalid)
		s.logger.Warn("Payment signature mismatch",
			zap.String("order_id", orderID.String()),
			zap.String("payment_id", req.PaymentID),
		)
		return nil, &errors.ErrInvalidSignature{}
	}

	done, err := s.settledOutcome(o, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if done {
		return o, nil
	}

	settlement, err := s.buildSettlement(ctx, o, req)
	if err != nil {
		return nil, err
	}
	applied, err := s.repos.Settlement.SettleOrder(ctx, settlement)
	if err != nil {
		s.metrics.Settlement(metrics.ResultFailed)
		s.logger.Error("Failed to settle order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, err
	}

	current, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// a concurrent verify won the compare-and-swap
		s.metrics.Settlement(metrics.ResultConflict)
		if _, err := s.settledOutcome(current, req.PaymentID); err != nil {
			return nil, err
		}
		return current, nil
	}

	s.metrics.PaymentVerified(metrics.ResultOK)
	s.metrics.Settlement(metrics.ResultOK)
	if settlement.AffiliateLinkID != nil {
		s.metrics.AffiliateEvent(metrics.EventConversion)
	}
	s.logger.Info("Payment verified and order settled",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", req.PaymentID),
		zap.Int("wallet_credits", len(settlement.Credits)),
	)
	s.notifySettled(ctx, current, settlement)
	return current, nil
}

// settledOutcome reports whether the order's payment is past pending, and the error for anything but a same-payment replay
func (s *orderService) settledOutcome(o *domain.Order, paymentID string) (bool, error) {
	switch o.Payment.Status {
	case domain.PaymentStatusPending:
		return false, nil
	case domain.PaymentStatusCompleted, domain.PaymentStatusRefunded:
		if o.Payment.PaymentID != nil && *o.Payment.PaymentID == paymentID {
			s.metrics.PaymentVerified(metrics.ResultReplay)
			return true, nil
		}
		return true, &errors.ErrConflict{Code: errors.CodeAlreadyPaid, Message: "order has already been paid"}
	default:
		return true, &errors.ErrInvalidStateTransition{Entity: "payment", From: string(o.Payment.Status), To: string(domain.PaymentStatusCompleted)}
	}
}

// buildSettlement splits the total between the order's seller and the affiliate link owner
func (s *orderService) buildSettlement(ctx context.Context, o *domain.Order, req VerifyPaymentRequest) (*domain.Settlement, error) {
	st := &domain.Settlement{
		OrderID:           o.ID,
		PaymentID:         req.PaymentID,
		Signature:         req.Signature,
		PaidAt:            s.now(),
		Currency:          o.Currency,
		ShopID:            o.ShopID,
		Revenue:           o.Total,
		AffiliateEarnings: decimal.Zero,
		CouponCode:        o.CouponCode,
	}
	for _, item := range o.Items {
		st.StockDecrements = append(st.StockDecrements, domain.StockDecrement{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	var link *domain.AffiliateLink
	if o.AffiliateLinkID != nil {
		l, err := s.repos.AffiliateLink.GetByID(ctx, *o.AffiliateLinkID)
		if err != nil {
			return nil, err
		}
		link = l
		st.AffiliateLinkID = o.AffiliateLinkID
		st.AffiliateEarnings = decimal.Min(domain.AffiliateCommission(o.Items), o.Total)
	}

	commission := st.AffiliateEarnings
	switch {
	case o.SellerID != nil && link != nil && link.SellerID != *o.SellerID && commission.IsPositive():
		if share := o.Total.Sub(commission); share.IsPositive() {
			st.Credits = append(st.Credits, domain.WalletCredit{
				SellerID:    *o.SellerID,
				Amount:      share,
				Description: "Sale " + o.OrderNumber,
			})
		}
		st.Credits = append(st.Credits, domain.WalletCredit{
			SellerID:    link.SellerID,
			Amount:      commission,
			Description: "Affiliate commission " + o.OrderNumber,
		})
	case o.SellerID != nil:
		st.Credits = append(st.Credits, domain.WalletCredit{
			SellerID:    *o.SellerID,
			Amount:      o.Total,
			Description: "Sale " + o.OrderNumber,
		})
	case link != nil && commission.IsPositive():
		st.Credits = append(st.Credits, domain.WalletCredit{
			SellerID:    link.SellerID,
			Amount:      commission,
			Description: "Affiliate commission " + o.OrderNumber,
		})
	}
	return st, nil
}

func (s *orderService) notifySettled(ctx context.Context, o *domain.Order, st *domain.Settlement) {
	amount := o.Total.StringFixed(domain.MoneyPlaces) + " " + o.Currency
	s.notifications.Notify(ctx, o.CustomerID, domain.NotificationPaymentReceived,
		"Payment received", "We received "+amount+" for order "+o.OrderNumber+".")
	if o.SellerID != nil {
		s.notifications.Notify(ctx, *o.SellerID, domain.NotificationOrderPlaced,
			"New order", "Order "+o.OrderNumber+" was paid and is ready for fulfilment.")
	}
	for _, credit := range st.Credits {
		if o.SellerID != nil && credit.SellerID == *o.SellerID {
			continue
		}
		s.notifications.Notify(ctx, credit.SellerID, domain.NotificationCommissionEarned,
			"Commission earned", "You earned "+credit.Amount.StringFixed(domain.MoneyPlaces)+" "+o.Currency+" on order "+o.OrderNumber+".")
	}
}

// MarkPaymentFailed records a gateway-reported failure on a pending payment and cancels the order
func (s *orderService) MarkPaymentFailed(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*domain.Order, error) {
	o, err := s.getOwnOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment was not completed"
	}
	ok, err := s.repos.Order.MarkPaymentFailed(ctx, orderID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &errors.ErrInvalidStateTransition{Entity: "payment", From: string(o.Payment.Status), To: string(domain.PaymentStatusFailed)}
	}
	s.metrics.PaymentVerified(metrics.ResultFailed)
	s.logger.Info("Payment marked failed", zap.String("order_id", orderID.String()), zap.String("reason", reason))
	return s.repos.Order.GetByID(ctx, orderID)
}

// sellerTransitions are the fulfilment steps a seller may take on their own orders
var sellerTransitions = map[domain.OrderStatus]bool{
	domain.OrderStatusProcessing: true,
	domain.OrderStatusShipped:    true,
}

// UpdateStatus moves an order along its fulfilment state machine. Admins may make any legal
// transition; sellers only move their own orders to processing or shipped.
func (s *orderService) UpdateStatus(ctx context.Context, actor auth.Principal, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	if !next.IsValid() {
		return nil, &errors.ErrValidation{Message: "invalid order status", Fields: map[string]string{"status": "invalid"}}
	}
	o, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleSeller:
		if o.SellerID == nil || *o.SellerID != actor.UserID {
			return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
		}
		if !sellerTransitions[next] {
			return nil, &errors.ErrForbidden{Message: "sellers may only move orders to processing or shipped"}
		}
	default:
		return nil, &errors.ErrForbidden{}
	}

	if o.Status == next {
		return o, nil
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, &errors.ErrInvalidStateTransition{Entity: "order", From: string(o.Status), To: string(next)}
	}

	var payment *domain.PaymentStatus
	switch {
	case next == domain.OrderStatusRefunded:
		if o.Payment.Status != domain.PaymentStatusCompleted {
			return nil, &errors.ErrInvalidStateTransition{Entity: "payment", From: string(o.Payment.Status), To: string(domain.PaymentStatusRefunded)}
		}
		refunded := domain.PaymentStatusRefunded
		payment = &refunded
	case next == domain.OrderStatusCancelled && o.Payment.Status == domain.PaymentStatusPending:
		// an unpaid cancelled order must not be settled later
		failed := domain.PaymentStatusFailed
		payment = &failed
	}

	ok, err := s.repos.Order.UpdateStatus(ctx, orderID, o.Status, next, payment)
	if err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, err
	}
	if !ok {
		current, err := s.repos.Order.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &errors.ErrInvalidStateTransition{Entity: "order", From: string(current.Status), To: string(next)}
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(o.Status)),
		zap.String("to", string(next)),
		zap.String("actor_id", actor.UserID.String()),
	)
	s.notifications.Notify(ctx, o.CustomerID, domain.NotificationOrderStatus,
		"Order "+string(next), "Order "+o.OrderNumber+" is now "+string(next)+".")
	return s.repos.Order.GetByID(ctx, orderID)
}

// GetOrder returns an order visible to the caller: its customer, its seller or any admin
func (s *orderService) GetOrder(ctx context.Context, actor auth.Principal, orderID uuid.UUID) (*domain.Order, error) {
	o, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	visible := false
	switch actor.Role {
	case domain.RoleAdmin:
		visible = true
	case domain.RoleSeller:
		visible = o.SellerID != nil && *o.SellerID == actor.UserID
	case domain.RoleCustomer:
		visible = o.CustomerID == actor.UserID
	}
	if !visible {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}
	return o, nil
}

// ListOrders runs a typed order query
func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) (*PageResult[*domain.Order], error) {
	filter.Page = filter.Page.Normalize()
	orders, total, err := s.repos.Order.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return newPageResult(orders, total, filter.Page), nil
}
