package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/service"
)

// HandleSubmitEnquiry handles POST /v1/seller/enquiries
func HandleSubmitEnquiry(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.SubmitEnquiryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		enquiry, err := svc.Enquiries.Submit(c.Request.Context(), p.UserID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toEnquiryResponse(enquiry))
	}
}

// HandleListMyEnquiries handles GET /v1/seller/enquiries
func HandleListMyEnquiries(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		page, err := svc.Enquiries.ListMine(c.Request.Context(), p.UserID, pageQuery(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toEnquiryResponse))
	}
}

// HandleListEnquiries handles GET /v1/admin/enquiries?status=&seller_id=
func HandleListEnquiries(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.EnquiryFilter{Page: pageQuery(c)}
		if s := c.Query("status"); s != "" {
			status := domain.EnquiryStatus(s)
			filter.Status = &status
		}
		var ok bool
		if filter.SellerID, ok = uuidQuery(c, "seller_id"); !ok {
			return
		}
		page, err := svc.Enquiries.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toEnquiryResponse))
	}
}

// HandleResolveEnquiry handles POST /v1/admin/enquiries/:id/resolve
func HandleResolveEnquiry(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.ResolveEnquiryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		enquiry, err := svc.Enquiries.Resolve(c.Request.Context(), id, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toEnquiryResponse(enquiry))
	}
}
