package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/pkg/errors"
)

func TestVerifyPaymentSignature(t *testing.T) {
	sig := SignPayment("secret", "order_abc", "pay_123")

	assert.True(t, VerifyPaymentSignature("secret", "order_abc", "pay_123", sig))
	assert.False(t, VerifyPaymentSignature("secret", "order_abc", "pay_124", sig))
	assert.False(t, VerifyPaymentSignature("other", "order_abc", "pay_123", sig))
	assert.False(t, VerifyPaymentSignature("secret", "order_abc", "pay_123", ""))
	assert.False(t, VerifyPaymentSignature("", "order_abc", "pay_123", sig))
}

func TestClientCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body createOrderBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(100000), body.Amount)
		assert.Equal(t, "INR", body.Currency)

		_ = json.NewEncoder(w).Encode(Order{ID: "order_abc", Amount: body.Amount, Currency: body.Currency, Receipt: body.Receipt})
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL, KeyID: "key", KeySecret: "secret", Timeout: time.Second}, nil)
	order, err := c.CreateOrder(context.Background(), 100000, "INR", "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
}

func TestClientSurfacesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"down"}`))
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL, KeyID: "key", KeySecret: "secret", Timeout: time.Second}, nil)
	_, err := c.CreateOrder(context.Background(), 100, "INR", "ORD-1")
	var gwErr *errors.ErrPaymentGateway
	require.True(t, stderrors.As(err, &gwErr))
	assert.Equal(t, "create_order", gwErr.Op)
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(Payout{ID: "pout_1"})
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL, KeyID: "key", KeySecret: "secret", Timeout: 50 * time.Millisecond}, nil)
	_, err := c.CreatePayout(context.Background(), PayoutRequest{AccountNumber: "123456789", IFSC: "HDFC0001234", AmountMinor: 500, Currency: "INR", Reference: "p1"})
	var gwErr *errors.ErrPaymentGateway
	require.True(t, stderrors.As(err, &gwErr))
	assert.Equal(t, "create_payout", gwErr.Op)
}

func TestClientRequiresCredentials(t *testing.T) {
	c := NewClient(config.GatewayConfig{BaseURL: "http://localhost"}, nil)
	_, err := c.CreateOrder(context.Background(), 100, "INR", "ORD-1")
	require.Error(t, err)
}

func TestSandboxFailureInjection(t *testing.T) {
	s := NewSandbox("secret")
	_, err := s.CreateOrder(context.Background(), 100, "INR", "r")
	require.NoError(t, err)

	s.FailOrders(stderrors.New("network down"))
	_, err = s.CreateOrder(context.Background(), 100, "INR", "r")
	var gwErr *errors.ErrPaymentGateway
	require.True(t, stderrors.As(err, &gwErr))
	assert.Len(t, s.Orders(), 1)
}
