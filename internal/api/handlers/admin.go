package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/service"
)

// AffiliateTotalsResponse sums affiliate link counters
type AffiliateTotalsResponse struct {
	Links       int    `json:"links"`
	Clicks      int64  `json:"clicks"`
	Conversions int64  `json:"conversions"`
	Earnings    string `json:"earnings"`
}

func toAffiliateTotalsResponse(t *repository.AffiliateTotals) AffiliateTotalsResponse {
	if t == nil {
		return AffiliateTotalsResponse{Earnings: "0.00"}
	}
	return AffiliateTotalsResponse{
		Links:       t.Links,
		Clicks:      t.Clicks,
		Conversions: t.Conversions,
		Earnings:    money(t.Earnings),
	}
}

// DashboardResponse is the admin rollup
type DashboardResponse struct {
	Users            map[string]map[string]int `json:"users"`
	ProductsByStatus map[string]int            `json:"products_by_status"`
	PendingEnquiries int                       `json:"pending_enquiries"`
	OrdersByStatus   map[string]int            `json:"orders_by_status"`
	PaidRevenue      string                    `json:"paid_revenue"`
	OpenPayouts      int                       `json:"open_payouts"`
	OpenPayoutAmount string                    `json:"open_payout_amount"`
	Affiliates       AffiliateTotalsResponse   `json:"affiliates"`
}

// SellerDashboardResponse is one seller's rollup
type SellerDashboardResponse struct {
	Shop         *ShopResponse           `json:"shop,omitempty"`
	Wallet       *WalletResponse         `json:"wallet,omitempty"`
	ProductCount int                     `json:"product_count"`
	Affiliates   AffiliateTotalsResponse `json:"affiliates"`
	RecentOrders []OrderResponse         `json:"recent_orders"`
}

// SettingsResponse exposes the read-only site settings
type SettingsResponse struct {
	SiteName        string          `json:"site_name"`
	Currency        string          `json:"currency"`
	PayoutSchedule  string          `json:"payout_schedule"`
	PayoutMinAmount string          `json:"payout_min_amount"`
	TaxRatePercent  string          `json:"tax_rate_percent"`
	Features        map[string]bool `json:"features"`
}

// HandleListSellers handles GET /v1/admin/sellers?status=&search=
func HandleListSellers(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := service.SellerQuery{
			Search: strings.TrimSpace(c.Query("search")),
			Page:   pageQuery(c),
		}
		if s := c.Query("status"); s != "" {
			status := domain.UserStatus(s)
			q.Status = &status
		}
		page, err := svc.Sellers.List(c.Request.Context(), q)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toUserResponse))
	}
}

// HandleApproveSeller handles POST /v1/admin/sellers/:id/approve
func HandleApproveSeller(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		user, err := svc.Sellers.Approve(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// HandleRejectSeller handles POST /v1/admin/sellers/:id/reject
func HandleRejectSeller(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.RejectSellerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		user, err := svc.Sellers.Reject(c.Request.Context(), id, req.Reason)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// HandleAdminDashboard handles GET /v1/admin/dashboard
func HandleAdminDashboard(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.Analytics.Dashboard(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := DashboardResponse{
			Users:            make(map[string]map[string]int),
			ProductsByStatus: make(map[string]int, len(d.ProductsByStatus)),
			PendingEnquiries: d.PendingEnquiries,
			OrdersByStatus:   make(map[string]int, len(d.OrdersByStatus)),
			PaidRevenue:      money(d.PaidRevenue),
			OpenPayouts:      d.OpenPayouts,
			OpenPayoutAmount: money(d.OpenPayoutAmount),
			Affiliates:       toAffiliateTotalsResponse(d.Affiliates),
		}
		for _, rc := range d.Users {
			byStatus, ok := resp.Users[string(rc.Role)]
			if !ok {
				byStatus = make(map[string]int)
				resp.Users[string(rc.Role)] = byStatus
			}
			byStatus[string(rc.Status)] = rc.Count
		}
		for status, n := range d.ProductsByStatus {
			resp.ProductsByStatus[string(status)] = n
		}
		for status, n := range d.OrdersByStatus {
			resp.OrdersByStatus[string(status)] = n
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleSellerDashboard handles GET /v1/seller/dashboard
func HandleSellerDashboard(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		d, err := svc.Analytics.SellerDashboard(c.Request.Context(), p.UserID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := SellerDashboardResponse{
			ProductCount: d.ProductCount,
			Affiliates:   toAffiliateTotalsResponse(d.Affiliates),
			RecentOrders: make([]OrderResponse, len(d.RecentOrders)),
		}
		if d.Shop != nil {
			shop := toShopResponse(d.Shop)
			resp.Shop = &shop
		}
		if d.Wallet != nil {
			wallet := toWalletResponse(d.Wallet)
			resp.Wallet = &wallet
		}
		for i, o := range d.RecentOrders {
			resp.RecentOrders[i] = toOrderResponse(o)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleGetSettings handles GET /v1/settings and GET /v1/admin/settings
func HandleGetSettings(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, SettingsResponse{
			SiteName:        cfg.Site.Name,
			Currency:        cfg.Site.Currency,
			PayoutSchedule:  cfg.Site.PayoutSchedule,
			PayoutMinAmount: money(cfg.Site.PayoutMinAmount),
			TaxRatePercent:  cfg.Site.TaxRatePercent.String(),
			Features: map[string]bool{
				"affiliates": cfg.Site.EnableAffiliates,
				"coupons":    cfg.Site.EnableCoupons,
				"enquiries":  cfg.Site.EnableEnquiries,
			},
		})
	}
}
