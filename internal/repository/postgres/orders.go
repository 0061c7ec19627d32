package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// orderItemJSON is the JSONB shape of an order line
type orderItemJSON struct {
	ProductID           uuid.UUID       `json:"productId"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Quantity            int             `json:"quantity"`
	AffiliatePercentage decimal.Decimal `json:"affiliatePercentage"`
}

func marshalItems(items []domain.OrderItem) ([]byte, error) {
	rows := make([]orderItemJSON, len(items))
	for i, item := range items {
		rows[i] = orderItemJSON(item)
	}
	return json.Marshal(rows)
}

func unmarshalItems(data []byte) ([]domain.OrderItem, error) {
	var rows []orderItemJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, len(rows))
	for i, row := range rows {
		items[i] = domain.OrderItem(row)
	}
	return items, nil
}

const orderColumns = `id, order_number, customer_id, seller_id, shop_id, items, subtotal, tax, shipping, discount, total,
	currency, coupon_code, affiliate_link_id, gateway_order_id, payment_id, payment_signature, payment_status,
	payment_failure_reason, paid_at, status, shipping_address, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var sellerID, shopID, affiliateLinkID uuid.NullUUID
	var itemsJSON, shippingAddressJSON []byte
	var couponCode, paymentID, signature, failureReason sql.NullString
	var paidAt sql.NullTime
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&sellerID,
		&shopID,
		&itemsJSON,
		&o.Subtotal,
		&o.Tax,
		&o.Shipping,
		&o.Discount,
		&o.Total,
		&o.Currency,
		&couponCode,
		&affiliateLinkID,
		&o.Payment.GatewayOrderID,
		&paymentID,
		&signature,
		&o.Payment.Status,
		&failureReason,
		&paidAt,
		&o.Status,
		&shippingAddressJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.SellerID = uuidPtr(sellerID)
	o.ShopID = uuidPtr(shopID)
	o.AffiliateLinkID = uuidPtr(affiliateLinkID)
	o.CouponCode = stringPtr(couponCode)
	o.Payment.PaymentID = stringPtr(paymentID)
	o.Payment.Signature = stringPtr(signature)
	o.Payment.FailureReason = stringPtr(failureReason)
	o.Payment.PaidAt = timePtr(paidAt)

	if o.Items, err = unmarshalItems(itemsJSON); err != nil {
		return nil, err
	}
	if len(shippingAddressJSON) > 0 {
		if err := json.Unmarshal(shippingAddressJSON, &o.ShippingAddress); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	now := time.Now().UTC()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	itemsJSON, err := marshalItems(order.Items)
	if err != nil {
		return err
	}
	if order.ShippingAddress == nil {
		order.ShippingAddress = map[string]interface{}{}
	}
	shippingAddressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		nullUUID(order.SellerID),
		nullUUID(order.ShopID),
		itemsJSON,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Discount,
		order.Total,
		order.Currency,
		nullString(order.CouponCode),
		nullUUID(order.AffiliateLinkID),
		order.Payment.GatewayOrderID,
		nullString(order.Payment.PaymentID),
		nullString(order.Payment.Signature),
		order.Payment.Status,
		nullString(order.Payment.FailureReason),
		nullTime(order.Payment.PaidAt),
		order.Status,
		shippingAddressJSON,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if _, ok := uniqueConstraint(err); ok {
		return &errors.ErrConflict{Code: errors.CodeDuplicateOrder, Message: "order number already exists"}
	}
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	var w where
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		w.add("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.CustomerID != nil {
		w.add("customer_id = ?", *filter.CustomerID)
	}
	if filter.SellerID != nil {
		w.add("seller_id = ?", *filter.SellerID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+w.String(), w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() + ` ORDER BY created_at DESC`
	if filter.Page.Limit > 0 {
		query += ` LIMIT ` + w.next(filter.Page.Limit) + ` OFFSET ` + w.next(filter.Page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus, payment *domain.PaymentStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3, payment_status = COALESCE($4, payment_status), updated_at = $5
		WHERE id = $1 AND status = $2
	`

	var paymentStatus sql.NullString
	if payment != nil {
		paymentStatus = sql.NullString{String: string(*payment), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, id, expected, next, paymentStatus, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err), zap.String("order_id", id.String()))
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *orderRepository) MarkPaymentFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = $2, payment_failure_reason = $3, status = $4, updated_at = $5
		WHERE id = $1 AND payment_status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		domain.PaymentStatusFailed,
		reason,
		domain.OrderStatusCancelled,
		time.Now().UTC(),
		domain.PaymentStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark payment failed", zap.Error(err), zap.String("order_id", id.String()))
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		r.logger.Error("Failed to count orders by status", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var status domain.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *orderRepository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE payment_status = $1`,
		domain.PaymentStatusCompleted,
	).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to sum paid revenue", zap.Error(err))
		return decimal.Zero, err
	}
	return total, nil
}
