package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pureline/storefront-api/internal/core/domain"
)

// GatewayOrderRequest asks the payment gateway to open a payment order.
type GatewayOrderRequest struct {
	AmountMinor int64 // amount in the smallest currency unit
	Currency    string
	Receipt     string
}

// GatewayOrder is the gateway's view of an opened payment order.
type GatewayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

// PaymentGateway is the outbound payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	// VerifySignature reports whether signature authenticates the
	// (orderID, paymentID) pair under the gateway's shared secret.
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// PaymentReplayGuard remembers payment ids that already produced an order.
type PaymentReplayGuard interface {
	IsProcessed(ctx context.Context, paymentID string) (bool, error)
	MarkProcessed(ctx context.Context, paymentID string) error
}

// OrderEventPublisher announces confirmed orders to downstream consumers.
type OrderEventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, order *domain.Order) error
}

// ClaimedItem is one client-declared line of a payment claim. Only the
// product id and quantity are trusted; price comes from the catalog.
type ClaimedItem struct {
	ProductID string
	Quantity  int
}

// PaymentClaim is the untrusted payment confirmation sent by the client.
type PaymentClaim struct {
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	Items            []ClaimedItem
	ShippingAddress  string
}

// BuyNowInput asks for a gateway order covering a single product.
type BuyNowInput struct {
	ProductID string
	Quantity  int
}

// BuyNowResult is returned to the client so it can open the payment widget.
type BuyNowResult struct {
	Order  *GatewayOrder
	KeyID  string
	Amount decimal.Decimal
}
