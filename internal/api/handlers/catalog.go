package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/service"
)

// productFilter builds the typed filter from query parameters
func productFilter(c *gin.Context) (repository.ProductFilter, bool) {
	filter := repository.ProductFilter{
		Search: c.Query("search"),
		Page:   pageQuery(c),
	}
	if s := c.Query("status"); s != "" {
		status := domain.ProductStatus(s)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid status", Code: "validation_failed"})
			return filter, false
		}
		filter.Status = &status
	}
	var ok bool
	if filter.CategoryID, ok = uuidQuery(c, "category_id"); !ok {
		return filter, false
	}
	if filter.MinPrice, ok = decimalQuery(c, "min_price"); !ok {
		return filter, false
	}
	if filter.MaxPrice, ok = decimalQuery(c, "max_price"); !ok {
		return filter, false
	}
	return filter, true
}

// HandleListPublicProducts handles GET /v1/products (active products only)
func HandleListPublicProducts(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := productFilter(c)
		if !ok {
			return
		}
		page, err := svc.Catalog.ListPublicProducts(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toProductResponse))
	}
}

// HandleGetPublicProduct handles GET /v1/products/:id
func HandleGetPublicProduct(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		product, err := svc.Catalog.GetProduct(c.Request.Context(), id, true)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toProductResponse(product))
	}
}

// HandleListCategories handles GET /v1/categories and GET /v1/admin/categories
func HandleListCategories(svc *service.Services, activeOnly bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.Catalog.ListCategories(c.Request.Context(), activeOnly)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		items := make([]CategoryResponse, len(categories))
		for i, cat := range categories {
			items[i] = toCategoryResponse(cat)
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// HandleCreateCategory handles POST /v1/admin/categories
func HandleCreateCategory(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		category, err := svc.Catalog.CreateCategory(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toCategoryResponse(category))
	}
}

// HandleAdminListProducts handles GET /v1/admin/products (any status)
func HandleAdminListProducts(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := productFilter(c)
		if !ok {
			return
		}
		if filter.SellerID, ok = uuidQuery(c, "seller_id"); !ok {
			return
		}
		page, err := svc.Catalog.ListProducts(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toProductResponse))
	}
}

// HandleCreateProduct handles POST /v1/admin/products
func HandleCreateProduct(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		product, err := svc.Catalog.CreateProduct(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toProductResponse(product))
	}
}

// HandleUpdateProduct handles PUT /v1/admin/products/:id
func HandleUpdateProduct(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		product, err := svc.Catalog.UpdateProduct(c.Request.Context(), id, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toProductResponse(product))
	}
}

// HandleSellerListProducts handles GET /v1/seller/products (the seller's own products)
func HandleSellerListProducts(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		filter, ok := productFilter(c)
		if !ok {
			return
		}
		filter.SellerID = &p.UserID
		page, err := svc.Catalog.ListProducts(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toProductResponse))
	}
}
