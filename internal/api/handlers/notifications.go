package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/service"
)

// HandleListNotifications handles GET /v1/notifications?unread=true
func HandleListNotifications(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		unreadOnly := c.Query("unread") == "true"
		page, err := svc.Notifications.List(c.Request.Context(), p.UserID, unreadOnly, pageQuery(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse(page, toNotificationResponse))
	}
}

// HandleMarkNotificationRead handles POST /v1/notifications/:id/read
func HandleMarkNotificationRead(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := svc.Notifications.MarkRead(c.Request.Context(), p.UserID, id); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleMarkAllNotificationsRead handles POST /v1/notifications/read-all
func HandleMarkAllNotificationsRead(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		n, err := svc.Notifications.MarkAllRead(c.Request.Context(), p.UserID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}
