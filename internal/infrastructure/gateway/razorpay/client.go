// Package razorpay is the outbound payment gateway adapter: it opens payment
// orders over the REST API and authenticates payment confirmations.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pureline/storefront-api/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.razorpay.com"
	defaultTimeout = 10 * time.Second
)

// ErrMissingSecret is returned when the client is built without a key secret.
var ErrMissingSecret = errors.New("razorpay: key secret is not configured")

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: status %d: %s %s", e.StatusCode, e.Code, e.Description)
}

// Config captures the gateway credentials and endpoint.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// Client implements ports.PaymentGateway.
type Client struct {
	keyID   string
	secret  []byte
	baseURL string
	http    *http.Client
}

var _ ports.PaymentGateway = (*Client)(nil)

// NewClient builds a client. A nil httpClient gets a traced client with a
// 10s timeout.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.KeySecret == "" {
		return nil, ErrMissingSecret
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{keyID: cfg.KeyID, secret: []byte(cfg.KeySecret), baseURL: baseURL, http: httpClient}, nil
}

func (c *Client) KeyID() string { return c.keyID }

type createOrderBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type errorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens a payment order (POST /v1/orders).
func (c *Client) CreateOrder(ctx context.Context, in ports.GatewayOrderRequest) (*ports.GatewayOrder, error) {
	payload, err := json.Marshal(createOrderBody{Amount: in.AmountMinor, Currency: in.Currency, Receipt: in.Receipt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, string(c.secret))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("razorpay: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Code = eb.Error.Code
			apiErr.Description = eb.Error.Description
		}
		return nil, apiErr
	}

	var order ports.GatewayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("razorpay: decode order: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("razorpay: order response without id")
	}
	return &order, nil
}

// VerifySignature reports whether signature is exactly the lowercase hex
// HMAC-SHA256 of "orderID|paymentID" under the key secret. The comparison is
// constant time.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	expected := hex.EncodeToString(mac(c.secret, orderID, paymentID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Signature returns the hex signature the gateway attaches to a successful
// payment of orderID.
func Signature(secret, orderID, paymentID string) string {
	return hex.EncodeToString(mac([]byte(secret), orderID, paymentID))
}

func mac(secret []byte, orderID, paymentID string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(orderID + "|" + paymentID))
	return h.Sum(nil)
}
