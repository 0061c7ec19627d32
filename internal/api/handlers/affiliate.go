package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/service"
)

// HandleCreateAffiliateLink handles POST /v1/seller/affiliate-links
func HandleCreateAffiliateLink(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.CreateAffiliateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		link, err := svc.Affiliates.Create(c.Request.Context(), p.UserID, req.ProductID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toAffiliateLinkResponse(link))
	}
}

// HandleListAffiliateLinks handles GET /v1/seller/affiliate-links
func HandleListAffiliateLinks(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		links, err := svc.Affiliates.ListMine(c.Request.Context(), p.UserID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		items := make([]AffiliateLinkResponse, len(links))
		for i, l := range links {
			items[i] = toAffiliateLinkResponse(l)
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// HandleDeactivateAffiliateLink handles DELETE /v1/seller/affiliate-links/:id
func HandleDeactivateAffiliateLink(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		link, err := svc.Affiliates.Deactivate(c.Request.Context(), p.UserID, id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toAffiliateLinkResponse(link))
	}
}

// HandleAffiliateRedirect handles GET /r/:code. It counts the click and sends the visitor
// to the product page with the code attached for checkout.
func HandleAffiliateRedirect(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		link, err := svc.Affiliates.RecordClick(c.Request.Context(), code)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.Redirect(http.StatusFound, "/products/"+link.ProductID.String()+"?ref="+url.QueryEscape(link.Code))
	}
}
