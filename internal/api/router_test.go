package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/gateway"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/repository/memory"
	"github.com/jafarshop/marketplace/internal/service"
)

const gatewaySecret = "gateway-secret"

type testServer struct {
	router  *gin.Engine
	repos   *repository.Repositories
	gateway *gateway.Sandbox
	svc     *service.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Environment:   "test",
		StorageDriver: config.StorageMemory,
		Session:       config.SessionConfig{JWTSecret: "jwt-secret", TTL: time.Hour, CookieName: "token"},
		Gateway:       config.GatewayConfig{KeyID: "rzp_test_key", KeySecret: gatewaySecret},
		Site: config.SiteConfig{
			Name:             "Test Market",
			Currency:         "INR",
			PayoutSchedule:   "weekly",
			PayoutMinAmount:  decimal.NewFromInt(100),
			TaxRatePercent:   decimal.Zero,
			EnableAffiliates: true,
			EnableCoupons:    true,
			EnableEnquiries:  true,
		},
	}
	repos := memory.NewRepositories(memory.NewStore(nil))
	gw := gateway.NewSandbox(gatewaySecret)
	m := metrics.New()
	tokens := auth.NewTokenIssuer(cfg.Session.JWTSecret, cfg.Session.TTL)
	svc := service.NewServices(cfg, repos, gw, tokens, m, zap.NewNop())
	return &testServer{
		router:  NewRouter(cfg, svc, m, zap.NewNop()),
		repos:   repos,
		gateway: gw,
		svc:     svc,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func (s *testServer) register(t *testing.T, role domain.Role, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"name":          "User " + email,
		"email":         email,
		"password":      "password123",
		"role":          string(role),
		"business_name": "Biz " + email,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.svc.Identity.CreateAdmin(context.Background(), "Admin", "admin@example.com", "password123")
	require.NoError(t, err)
	return s.login(t, "admin@example.com")
}

func (s *testServer) approvedSeller(t *testing.T, adminToken, email string) (uuid.UUID, string) {
	t.Helper()
	id := s.register(t, domain.RoleSeller, email)
	rec := s.do(t, http.MethodPost, "/v1/admin/sellers/"+id+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return uuid.MustParse(id), s.login(t, email)
}

func (s *testServer) product(t *testing.T, sellerID *uuid.UUID, price string) *domain.Product {
	t.Helper()
	ctx := context.Background()
	category, err := s.svc.Catalog.CreateCategory(ctx, service.CreateCategoryRequest{Name: "Cat " + uuid.NewString()[:8]})
	require.NoError(t, err)
	p := &domain.Product{
		Name:                "Desk lamp",
		Price:               decimal.RequireFromString(price),
		Stock:               5,
		SKU:                 "SKU-" + uuid.NewString()[:8],
		CategoryID:          category.ID,
		AffiliatePercentage: decimal.NewFromInt(10),
		Status:              domain.ProductStatusActive,
		SellerID:            sellerID,
	}
	require.NoError(t, s.repos.Product.Create(ctx, p))
	return p
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_http_request_duration_seconds")
}

func TestSettingsArePublic(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/settings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Test Market", body["site_name"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, "100.00", body["payout_min_amount"])

	rec = s.do(t, http.MethodGet, "/v1/admin/settings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSellerLoginWaitsForApproval(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	id := s.register(t, domain.RoleSeller, "seller@example.com")

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "seller@example.com", "password": "password123"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "pending_approval", decode(t, rec)["code"])

	rec = s.do(t, http.MethodPost, "/v1/admin/sellers/"+id+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "seller@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "seller", body["user"].(map[string]interface{})["role"])

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	s.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "seller@example.com", decode(t, me)["email"])
}

func TestCheckoutRejectsWrongSignature(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	sellerID, sellerToken := s.approvedSeller(t, admin, "seller@example.com")
	s.register(t, domain.RoleCustomer, "buyer@example.com")
	buyer := s.login(t, "buyer@example.com")
	product := s.product(t, &sellerID, "1000")
	s.gateway.QueueOrderID("order_abc")

	rec := s.do(t, http.MethodPost, "/v1/orders", buyer, gin.H{
		"items": []gin.H{{"product_id": product.ID.String(), "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	checkout := decode(t, rec)
	assert.Equal(t, "order_abc", checkout["gateway_order_id"])
	assert.EqualValues(t, 100000, checkout["amount"])
	assert.Equal(t, "rzp_test_key", checkout["key_id"])
	orderID := checkout["order"].(map[string]interface{})["id"].(string)

	rec = s.do(t, http.MethodPost, "/v1/orders/"+orderID+"/verify", buyer, gin.H{
		"gateway_order_id": "order_abc",
		"payment_id":       "pay_1",
		"signature":        "deadbeef",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_signature", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/v1/orders/"+orderID, buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode(t, rec)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "pending", order["payment"].(map[string]interface{})["status"])

	rec = s.do(t, http.MethodGet, "/v1/seller/wallet", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.00", decode(t, rec)["balance"])

	rec = s.do(t, http.MethodPost, "/v1/orders/"+orderID+"/verify", buyer, gin.H{
		"gateway_order_id": "order_abc",
		"payment_id":       "pay_1",
		"signature":        gateway.SignPayment(gatewaySecret, "order_abc", "pay_1"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", decode(t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/v1/seller/wallet", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000.00", decode(t, rec)["balance"])
}

func TestDuplicateEnquiryIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	_, sellerToken := s.approvedSeller(t, admin, "seller@example.com")
	product := s.product(t, nil, "500")

	enquiry := gin.H{
		"product_id":      product.ID.String(),
		"name":            "Desk lamp",
		"description":     "Brass, 40cm",
		"category_id":     product.CategoryID.String(),
		"suggested_price": "450",
		"message":         "Can stock 50 a month",
	}
	rec := s.do(t, http.MethodPost, "/v1/seller/enquiries", sellerToken, enquiry)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/seller/enquiries", sellerToken, enquiry)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "duplicate_enquiry", body["code"])
	assert.Contains(t, body["error"], "already exists")
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)
	s.register(t, domain.RoleCustomer, "buyer@example.com")
	buyer := s.login(t, "buyer@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous orders", http.MethodGet, "/v1/orders", "", http.StatusUnauthorized},
		{"customer orders", http.MethodGet, "/v1/orders", buyer, http.StatusOK},
		{"customer on seller wallet", http.MethodGet, "/v1/seller/wallet", buyer, http.StatusForbidden},
		{"customer on admin dashboard", http.MethodGet, "/v1/admin/dashboard", buyer, http.StatusForbidden},
		{"notifications for anyone signed in", http.MethodGet, "/v1/notifications", buyer, http.StatusOK},
		{"public catalog", http.MethodGet, "/v1/products", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateOrderBindFailure(t *testing.T) {
	s := newTestServer(t)
	s.register(t, domain.RoleCustomer, "buyer@example.com")
	buyer := s.login(t, "buyer@example.com")

	rec := s.do(t, http.MethodPost, "/v1/orders", buyer, gin.H{"items": []gin.H{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/v1/orders/not-a-uuid", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAffiliateRedirect(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	_, sellerToken := s.approvedSeller(t, admin, "seller@example.com")
	product := s.product(t, nil, "500")

	rec := s.do(t, http.MethodPost, "/v1/seller/affiliate-links", sellerToken, gin.H{"product_id": product.ID.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	code := decode(t, rec)["code"].(string)

	rec = s.do(t, http.MethodGet, "/r/"+code, "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/products/"+product.ID.String()+"?ref="+code, rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/v1/seller/affiliate-links", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].(map[string]interface{})["clicks"])

	rec = s.do(t, http.MethodGet, "/r/AFF-UNKNOWN", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
