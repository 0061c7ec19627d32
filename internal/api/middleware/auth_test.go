package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/domain"
)

type issuerAuthenticator struct {
	issuer *auth.TokenIssuer
}

func (a issuerAuthenticator) Authenticate(token string) (*auth.Principal, error) {
	return a.issuer.Parse(token)
}

func newGuardedRouter(issuer *auth.TokenIssuer, roles ...domain.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded",
		AuthMiddleware(issuerAuthenticator{issuer}, "token", zap.NewNop()),
		RequireRole(roles...),
		func(c *gin.Context) {
			p, _ := GetPrincipalFromContext(c)
			c.String(http.StatusOK, string(p.Role))
		},
	)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	router := newGuardedRouter(issuer, domain.RoleSeller, domain.RoleAdmin)

	sellerToken, _, err := issuer.Issue(auth.Principal{UserID: uuid.New(), Role: domain.RoleSeller})
	require.NoError(t, err)
	customerToken, _, err := issuer.Issue(auth.Principal{UserID: uuid.New(), Role: domain.RoleCustomer})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no credentials", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+sellerToken) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: sellerToken}) }, http.StatusOK},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", sellerToken) }, http.StatusUnauthorized},
		{"tampered", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+sellerToken+"x") }, http.StatusUnauthorized},
		{"wrong role", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+customerToken) }, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
