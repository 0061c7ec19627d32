package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/service"
)

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// HandleValidateCoupon handles POST /v1/coupons/validate
func HandleValidateCoupon(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ValidateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		quote, err := svc.Coupons.Validate(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"code":     quote.Code,
			"subtotal": money(quote.Subtotal),
			"discount": money(quote.Discount),
		})
	}
}

// HandleListCoupons handles GET /v1/admin/coupons
func HandleListCoupons(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.Coupons.List(c.Request.Context(), pageQuery(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toCouponResponse))
	}
}

// HandleCreateCoupon handles POST /v1/admin/coupons
func HandleCreateCoupon(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		coupon, err := svc.Coupons.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toCouponResponse(coupon))
	}
}

// HandleSetCouponActive handles PUT /v1/admin/coupons/:id/active
func HandleSetCouponActive(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req setActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		coupon, err := svc.Coupons.SetActive(c.Request.Context(), id, *req.Active)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCouponResponse(coupon))
	}
}
