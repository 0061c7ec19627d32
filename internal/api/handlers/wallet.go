package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/service"
)

// HandleGetWallet handles GET /v1/seller/wallet
func HandleGetWallet(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		wallet, err := svc.Wallets.GetWallet(c.Request.Context(), p.UserID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toWalletResponse(wallet))
	}
}

// HandleListTransactions handles GET /v1/seller/wallet/transactions
func HandleListTransactions(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		page, err := svc.Wallets.ListTransactions(c.Request.Context(), p.UserID, pageQuery(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toTransactionResponse))
	}
}

// HandleUpdateBankAccount handles PUT /v1/seller/wallet/bank-account
func HandleUpdateBankAccount(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.BankAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		wallet, err := svc.Wallets.UpdateBankAccount(c.Request.Context(), p.UserID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toWalletResponse(wallet))
	}
}

// HandleRequestPayout handles POST /v1/seller/payouts and POST /v1/admin/payouts.
// Sellers request for themselves and must meet the minimum; admins name the seller.
func HandleRequestPayout(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.PayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		sellerID, enforceMinimum := p.UserID, true
		if p.Role == domain.RoleAdmin {
			if req.SellerID == uuid.Nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "seller_id is required", Code: "validation_failed"})
				return
			}
			sellerID, enforceMinimum = req.SellerID, false
		}
		payout, err := svc.Wallets.RequestPayout(c.Request.Context(), p.UserID, sellerID, req.Amount, enforceMinimum)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toPayoutResponse(payout))
	}
}

// HandleListPayouts handles GET /v1/seller/payouts and GET /v1/admin/payouts
func HandleListPayouts(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		filter := repository.PayoutFilter{Page: pageQuery(c)}
		if s := c.Query("status"); s != "" {
			status := domain.PayoutStatus(s)
			filter.Status = &status
		}
		if p.Role == domain.RoleAdmin {
			if filter.SellerID, ok = uuidQuery(c, "seller_id"); !ok {
				return
			}
		} else {
			filter.SellerID = &p.UserID
		}
		page, err := svc.Wallets.ListPayouts(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toPayoutResponse))
	}
}

// HandleProcessPayout handles POST /v1/admin/payouts/:id/process
func HandleProcessPayout(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		payout, err := svc.Wallets.ProcessPayout(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toPayoutResponse(payout))
	}
}
