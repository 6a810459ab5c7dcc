package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedTTL bounds how long a payment id marker is kept. The unique
// payment id column remains the durable guard after it expires.
const ProcessedTTL = 24 * time.Hour

// PaymentGuard remembers payment ids that already produced an order.
// Key format: payment:processed:<payment_id>
type PaymentGuard struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewPaymentGuard creates a PaymentGuard wrapping the given Redis client.
func NewPaymentGuard(client redis.Cmdable) *PaymentGuard {
	return &PaymentGuard{client: client, ttl: ProcessedTTL}
}

// IsProcessed reports whether paymentID has already been materialised.
func (g *PaymentGuard) IsProcessed(ctx context.Context, paymentID string) (bool, error) {
	n, err := g.client.Exists(ctx, key(paymentID)).Result()
	if err != nil {
		return false, fmt.Errorf("replay check: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records paymentID (expires after ProcessedTTL).
func (g *PaymentGuard) MarkProcessed(ctx context.Context, paymentID string) error {
	return g.client.Set(ctx, key(paymentID), time.Now().UTC().Format(time.RFC3339), g.ttl).Err()
}

func key(paymentID string) string {
	return "payment:processed:" + paymentID
}
