package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/marketplace/internal/api/middleware"
	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/repository"
)

// pathID parses a uuid path parameter, answering 400 when it is malformed
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name, Code: "validation_failed"})
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads ?page= and ?limit=; bad values fall back to defaults
func pageQuery(c *gin.Context) repository.Page {
	var p repository.Page
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		p.Limit = v
	}
	return p.Normalize()
}

func uuidQuery(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + key, Code: "validation_failed"})
		return nil, false
	}
	return &id, true
}

func decimalQuery(c *gin.Context, key string) (*decimal.Decimal, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + key, Code: "validation_failed"})
		return nil, false
	}
	return &d, true
}

// principal returns the authenticated caller; routes using it are always behind AuthMiddleware
func principal(c *gin.Context) (*auth.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: "unauthorized"})
		return nil, false
	}
	return p, true
}
