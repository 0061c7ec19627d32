package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/api/handlers"
	"github.com/jafarshop/marketplace/internal/api/middleware"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc *service.Services, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(cfg, logger))
	router.Use(loggingMiddleware(m, logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Affiliate click: counts and redirects to the product page
	router.GET("/r/:code", handlers.HandleAffiliateRedirect(svc, logger))

	authenticate := middleware.AuthMiddleware(svc.Identity, cfg.Session.CookieName, logger)

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/settings", handlers.HandleGetSettings(cfg))
		v1.GET("/products", handlers.HandleListPublicProducts(svc, logger))
		v1.GET("/products/:id", handlers.HandleGetPublicProduct(svc, logger))
		v1.GET("/categories", handlers.HandleListCategories(svc, true, logger))
		v1.POST("/coupons/validate", handlers.HandleValidateCoupon(svc, logger))

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", handlers.HandleRegister(svc, logger))
			authRoutes.POST("/login", handlers.HandleLogin(cfg, svc, logger))
			authRoutes.POST("/logout", handlers.HandleLogout(cfg))
			authRoutes.GET("/me", authenticate, handlers.HandleMe(svc, logger))
		}

		// Any authenticated user
		notificationRoutes := v1.Group("/notifications")
		notificationRoutes.Use(authenticate)
		{
			notificationRoutes.GET("", handlers.HandleListNotifications(svc, logger))
			notificationRoutes.POST("/read-all", handlers.HandleMarkAllNotificationsRead(svc, logger))
			notificationRoutes.POST("/:id/read", handlers.HandleMarkNotificationRead(svc, logger))
		}

		customerRoutes := v1.Group("/orders")
		customerRoutes.Use(authenticate, middleware.RequireRole(domain.RoleCustomer))
		{
			customerRoutes.POST("", handlers.HandleCreateOrder(cfg, svc, logger))
			customerRoutes.GET("", handlers.HandleListOrders(svc, logger))
			customerRoutes.GET("/:id", handlers.HandleGetOrder(svc, logger))
			customerRoutes.POST("/:id/verify", handlers.HandleVerifyPayment(svc, logger))
			customerRoutes.POST("/:id/payment-failed", handlers.HandlePaymentFailed(svc, logger))
		}

		sellerRoutes := v1.Group("/seller")
		sellerRoutes.Use(authenticate, middleware.RequireRole(domain.RoleSeller))
		{
			sellerRoutes.GET("/dashboard", handlers.HandleSellerDashboard(svc, logger))
			sellerRoutes.GET("/products", handlers.HandleSellerListProducts(svc, logger))

			sellerRoutes.GET("/enquiries", handlers.HandleListMyEnquiries(svc, logger))
			sellerRoutes.POST("/enquiries", handlers.HandleSubmitEnquiry(svc, logger))

			sellerRoutes.GET("/affiliate-links", handlers.HandleListAffiliateLinks(svc, logger))
			sellerRoutes.POST("/affiliate-links", handlers.HandleCreateAffiliateLink(svc, logger))
			sellerRoutes.DELETE("/affiliate-links/:id", handlers.HandleDeactivateAffiliateLink(svc, logger))

			sellerRoutes.GET("/orders", handlers.HandleListOrders(svc, logger))
			sellerRoutes.PUT("/orders/:id/status", handlers.HandleUpdateOrderStatus(svc, logger))

			sellerRoutes.GET("/wallet", handlers.HandleGetWallet(svc, logger))
			sellerRoutes.GET("/wallet/transactions", handlers.HandleListTransactions(svc, logger))
			sellerRoutes.PUT("/wallet/bank-account", handlers.HandleUpdateBankAccount(svc, logger))
			sellerRoutes.GET("/payouts", handlers.HandleListPayouts(svc, logger))
			sellerRoutes.POST("/payouts", handlers.HandleRequestPayout(svc, logger))
		}

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(authenticate, middleware.RequireRole(domain.RoleAdmin))
		{
			adminRoutes.GET("/dashboard", handlers.HandleAdminDashboard(svc, logger))
			adminRoutes.GET("/settings", handlers.HandleGetSettings(cfg))

			adminRoutes.GET("/sellers", handlers.HandleListSellers(svc, logger))
			adminRoutes.POST("/sellers/:id/approve", handlers.HandleApproveSeller(svc, logger))
			adminRoutes.POST("/sellers/:id/reject", handlers.HandleRejectSeller(svc, logger))

			adminRoutes.GET("/categories", handlers.HandleListCategories(svc, false, logger))
			adminRoutes.POST("/categories", handlers.HandleCreateCategory(svc, logger))
			adminRoutes.GET("/products", handlers.HandleAdminListProducts(svc, logger))
			adminRoutes.POST("/products", handlers.HandleCreateProduct(svc, logger))
			adminRoutes.PUT("/products/:id", handlers.HandleUpdateProduct(svc, logger))

			adminRoutes.GET("/enquiries", handlers.HandleListEnquiries(svc, logger))
			adminRoutes.POST("/enquiries/:id/resolve", handlers.HandleResolveEnquiry(svc, logger))

			adminRoutes.GET("/orders", handlers.HandleListOrders(svc, logger))
			adminRoutes.PUT("/orders/:id/status", handlers.HandleUpdateOrderStatus(svc, logger))

			adminRoutes.GET("/coupons", handlers.HandleListCoupons(svc, logger))
			adminRoutes.POST("/coupons", handlers.HandleCreateCoupon(svc, logger))
			adminRoutes.PUT("/coupons/:id/active", handlers.HandleSetCouponActive(svc, logger))

			adminRoutes.GET("/payouts", handlers.HandleListPayouts(svc, logger))
			adminRoutes.POST("/payouts", handlers.HandleRequestPayout(svc, logger))
			adminRoutes.POST("/payouts/:id/process", handlers.HandleProcessPayout(svc, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics. Panic details are only echoed outside production.
func customRecovery(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		body := gin.H{"error": "internal server error", "code": "internal"}
		if !cfg.IsProduction() {
			body["details"] = fmt.Sprintf("%v", recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

// loggingMiddleware logs HTTP requests and records their latency
func loggingMiddleware(m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(method, route, status, elapsed)
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
	}
}
