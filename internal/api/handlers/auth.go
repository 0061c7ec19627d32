package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/service"
)

// HandleRegister handles POST /v1/auth/register
func HandleRegister(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		user, err := svc.Identity.Register(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toUserResponse(user))
	}
}

// HandleLogin handles POST /v1/auth/login. The token is returned in the body and set as an HTTP-only cookie.
func HandleLogin(cfg *config.Config, svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		session, err := svc.Identity.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		http.SetCookie(c.Writer, auth.SessionCookie(cfg.Session.CookieName, session.Token, session.ExpiresAt, cfg.IsProduction()))
		c.JSON(http.StatusOK, SessionResponse{
			Token:     session.Token,
			ExpiresAt: timestamp(session.ExpiresAt),
			User:      toUserResponse(session.User),
		})
	}
}

// HandleLogout handles POST /v1/auth/logout
func HandleLogout(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		http.SetCookie(c.Writer, auth.ClearedSessionCookie(cfg.Session.CookieName, cfg.IsProduction()))
		c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
	}
}

// HandleMe handles GET /v1/auth/me
func HandleMe(svc *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		user, err := svc.Identity.Me(c.Request.Context(), p.UserID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}
