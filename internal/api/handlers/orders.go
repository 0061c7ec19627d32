package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/service"
)

// HandleCreateOrder handles POST /v1/orders
func HandleCreateOrder(cfg *config.Config, svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if req.AffiliateCode == "" {
			req.AffiliateCode = c.Query("ref")
		}
		order, err := svc.Orders.CreateOrder(c.Request.Context(), p.UserID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		amount, err := domain.ToMinorUnits(order.Total)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, CheckoutResponse{
			Order:          toOrderResponse(order),
			GatewayOrderID: order.Payment.GatewayOrderID,
			AmountMinor:    amount,
			Currency:       order.Currency,
			KeyID:          cfg.Gateway.KeyID,
		})
	}
}

// HandleVerifyPayment handles POST /v1/orders/:id/verify
func HandleVerifyPayment(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		order, err := svc.Orders.VerifyPayment(c.Request.Context(), p.UserID, id, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandlePaymentFailed handles POST /v1/orders/:id/payment-failed
func HandlePaymentFailed(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.PaymentFailedRequest
		// the body is optional
		_ = c.ShouldBindJSON(&req)
		order, err := svc.Orders.MarkPaymentFailed(c.Request.Context(), p.UserID, id, req.Reason)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// orderFilter reads ?status= and ?payment_status=
func orderFilter(c *gin.Context) repository.OrderFilter {
	filter := repository.OrderFilter{Page: pageQuery(c)}
	if s := c.Query("status"); s != "" {
		status := domain.OrderStatus(s)
		filter.Status = &status
	}
	if s := c.Query("payment_status"); s != "" {
		status := domain.PaymentStatus(s)
		filter.PaymentStatus = &status
	}
	return filter
}

// HandleListOrders handles GET /v1/orders, GET /v1/seller/orders and GET /v1/admin/orders.
// Customers see their purchases, sellers their sales, admins everything.
func HandleListOrders(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		filter := orderFilter(c)
		switch p.Role {
		case domain.RoleCustomer:
			filter.CustomerID = &p.UserID
		case domain.RoleSeller:
			filter.SellerID = &p.UserID
		case domain.RoleAdmin:
			if filter.SellerID, ok = uuidQuery(c, "seller_id"); !ok {
				return
			}
			if filter.CustomerID, ok = uuidQuery(c, "customer_id"); !ok {
				return
			}
		}
		page, err := svc.Orders.ListOrders(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toOrderResponse))
	}
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		order, err := svc.Orders.GetOrder(c.Request.Context(), *p, id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleUpdateOrderStatus handles PUT /v1/seller/orders/:id/status and PUT /v1/admin/orders/:id/status
func HandleUpdateOrderStatus(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		order, err := svc.Orders.UpdateStatus(c.Request.Context(), *p, id, req.Status)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}
