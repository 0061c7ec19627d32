package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/pkg/errors"
)

// Gateway is the payment collaborator the settlement core depends on
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	CreatePayout(ctx context.Context, req PayoutRequest) (*Payout, error)
}

// Order is the gateway-side order record
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PayoutRequest is a bank transfer request in minor units
type PayoutRequest struct {
	AccountNumber string
	IFSC          string
	HolderName    string
	AmountMinor   int64
	Currency      string
	Reference     string
}

// Payout is the gateway-side payout record
type Payout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client calls a Razorpay-compatible REST API with basic auth
type Client struct {
	baseURL       string
	keyID         string
	keySecret     string
	accountNumber string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient creates a gateway HTTP client. Every request is bounded by cfg.Timeout.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		accountNumber: cfg.AccountNumber,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

type createOrderBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder creates the gateway order the customer pays against
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	if amountMinor <= 0 {
		return nil, &errors.ErrPaymentGateway{Op: "create_order", Err: fmt.Errorf("amount must be positive")}
	}
	var out Order
	body := createOrderBody{Amount: amountMinor, Currency: currency, Receipt: receipt}
	if err := c.post(ctx, "/orders", body, &out); err != nil {
		c.logger.Warn("Gateway create order failed", zap.String("receipt", receipt), zap.Error(err))
		return nil, &errors.ErrPaymentGateway{Op: "create_order", Err: err}
	}
	if out.ID == "" {
		return nil, &errors.ErrPaymentGateway{Op: "create_order", Err: fmt.Errorf("response missing order id")}
	}
	return &out, nil
}

// VerifySignature recomputes HMAC-SHA256(orderID|paymentID) and compares in constant time
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifyPaymentSignature(c.keySecret, gatewayOrderID, paymentID, signature)
}

type payoutBankAccount struct {
	Name          string `json:"name"`
	IFSC          string `json:"ifsc"`
	AccountNumber string `json:"account_number"`
}

type payoutFundAccount struct {
	AccountType string            `json:"account_type"`
	BankAccount payoutBankAccount `json:"bank_account"`
}

type createPayoutBody struct {
	AccountNumber string            `json:"account_number"`
	FundAccount   payoutFundAccount `json:"fund_account"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Mode          string            `json:"mode"`
	Purpose       string            `json:"purpose"`
	ReferenceID   string            `json:"reference_id"`
}

// CreatePayout transfers funds to a seller's bank account
func (c *Client) CreatePayout(ctx context.Context, req PayoutRequest) (*Payout, error) {
	if req.AmountMinor <= 0 {
		return nil, &errors.ErrPaymentGateway{Op: "create_payout", Err: fmt.Errorf("amount must be positive")}
	}
	body := createPayoutBody{
		AccountNumber: c.accountNumber,
		FundAccount: payoutFundAccount{
			AccountType: "bank_account",
			BankAccount: payoutBankAccount{
				Name:          req.HolderName,
				IFSC:          req.IFSC,
				AccountNumber: req.AccountNumber,
			},
		},
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
		Mode:        "IMPS",
		Purpose:     "payout",
		ReferenceID: req.Reference,
	}
	var out Payout
	if err := c.post(ctx, "/payouts", body, &out); err != nil {
		c.logger.Warn("Gateway create payout failed", zap.String("reference", req.Reference), zap.Error(err))
		return nil, &errors.ErrPaymentGateway{Op: "create_payout", Err: err}
	}
	if out.ID == "" {
		return nil, &errors.ErrPaymentGateway{Op: "create_payout", Err: fmt.Errorf("response missing payout id")}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if c.baseURL == "" || c.keyID == "" || c.keySecret == "" {
		return fmt.Errorf("gateway client not configured: base URL, key id and key secret required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, truncate(string(respBody), 256))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// VerifyPaymentSignature checks a hex HMAC-SHA256 over gatewayOrderID + "|" + paymentID
func VerifyPaymentSignature(secret, gatewayOrderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := SignPayment(secret, gatewayOrderID, paymentID)
	// constant-time compare
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

// SignPayment computes the signature the gateway hands to the client after checkout
func SignPayment(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
