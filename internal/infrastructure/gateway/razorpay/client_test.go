package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pureline/storefront-api/internal/core/ports"
)

const knownSignature = "69d2d55b3175eb1d5c503399ed52b90c1f0326286864d5042cdf2c46598162e7"

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{KeyID: "rzp_test_key", KeySecret: "s3cret", BaseURL: baseURL}, nil)
	require.NoError(t, err)
	return c
}

func TestSignature_KnownVector(t *testing.T) {
	assert.Equal(t, knownSignature, Signature("s3cret", "order_abc", "pay_xyz"))
}

func TestVerifySignature(t *testing.T) {
	c := newTestClient(t, "")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{"valid", "order_abc", "pay_xyz", knownSignature, true},
		{"uppercase hex", "order_abc", "pay_xyz", strings.ToUpper(knownSignature), false},
		{"swapped ids", "pay_xyz", "order_abc", knownSignature, false},
		{"other payment", "order_abc", "pay_other", knownSignature, false},
		{"truncated", "order_abc", "pay_xyz", knownSignature[:62], false},
		{"not hex", "order_abc", "pay_xyz", "zz" + knownSignature[2:], false},
		{"empty", "order_abc", "pay_xyz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.VerifySignature(tt.orderID, tt.paymentID, tt.signature))
		})
	}
}

func TestVerifySignature_EverySingleCharacterChangeRejected(t *testing.T) {
	c := newTestClient(t, "")

	for i := range knownSignature {
		replacement := byte('0')
		if knownSignature[i] == '0' {
			replacement = '1'
		}
		tampered := knownSignature[:i] + string(replacement) + knownSignature[i+1:]
		if c.VerifySignature("order_abc", "pay_xyz", tampered) {
			t.Fatalf("tampered signature accepted at position %d", i)
		}
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	c, err := NewClient(Config{KeySecret: "other"}, nil)
	require.NoError(t, err)

	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", knownSignature))
}

func TestNewClient_MissingSecret(t *testing.T) {
	_, err := NewClient(Config{KeyID: "rzp_test_key"}, nil)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "s3cret", pass)

		var body createOrderBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(35050), body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "receipt_order_1", body.Receipt)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","entity":"order","amount":35050,"currency":"INR","receipt":"receipt_order_1","status":"created"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	order, err := c.CreateOrder(context.Background(), ports.GatewayOrderRequest{AmountMinor: 35050, Currency: "INR", Receipt: "receipt_order_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(35050), order.Amount)
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, "rzp_test_key", c.KeyID())
}

func TestCreateOrder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least INR 1.00"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.CreateOrder(context.Background(), ports.GatewayOrderRequest{AmountMinor: 50, Currency: "INR", Receipt: "r"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
}
