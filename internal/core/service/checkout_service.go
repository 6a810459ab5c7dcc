package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pureline/storefront-api/internal/api/metrics"
	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

var (
	minorUnitsPerMajor = decimal.NewFromInt(100)
	maxAmountMinor     = decimal.NewFromInt(math.MaxInt64)
)

// CheckoutDeps groups the collaborators of CheckoutService. Replay, Audit and
// Events are optional side channels; nil disables them.
type CheckoutDeps struct {
	Products ports.ProductRepository
	Orders   ports.OrderRepository
	Gateway  ports.PaymentGateway
	Replay   ports.PaymentReplayGuard
	Audit    ports.PaymentAuditRepository
	Events   ports.OrderEventPublisher
	Currency string
}

// CheckoutService opens gateway payment orders and turns verified payment
// confirmations into persisted orders.
type CheckoutService struct {
	products ports.ProductRepository
	orders   ports.OrderRepository
	gateway  ports.PaymentGateway
	replay   ports.PaymentReplayGuard
	audit    ports.PaymentAuditRepository
	events   ports.OrderEventPublisher
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

func NewCheckoutService(deps CheckoutDeps, log zerolog.Logger) *CheckoutService {
	currency := deps.Currency
	if currency == "" {
		currency = "INR"
	}
	return &CheckoutService{
		products: deps.Products,
		orders:   deps.Orders,
		gateway:  deps.Gateway,
		replay:   deps.Replay,
		audit:    deps.Audit,
		events:   deps.Events,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

// BuyNow opens a gateway order for quantity units of a single product, priced
// from the catalog.
func (s *CheckoutService) BuyNow(ctx context.Context, in ports.BuyNowInput) (*ports.BuyNowResult, error) {
	if in.ProductID == "" || in.Quantity <= 0 {
		return nil, domain.Invalid("Product ID and a valid quantity are required")
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	amount := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
	minor := amount.Mul(minorUnitsPerMajor).Round(0)
	if minor.GreaterThan(maxAmountMinor) {
		return nil, domain.Invalid("Quantity is too large")
	}

	order, err := s.gateway.CreateOrder(ctx, ports.GatewayOrderRequest{
		AmountMinor: minor.IntPart(),
		Currency:    s.currency,
		Receipt:     fmt.Sprintf("receipt_order_%d", s.now().UnixMilli()),
	})
	if err != nil {
		metrics.GatewayOrdersTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	metrics.GatewayOrdersTotal.WithLabelValues("created").Inc()
	s.log.Info().
		Str("gateway_order_id", order.ID).
		Str("product_id", product.ID).
		Int("quantity", in.Quantity).
		Msg("gateway order created")

	return &ports.BuyNowResult{Order: order, KeyID: s.gateway.KeyID(), Amount: amount}, nil
}

// VerifyAndCreateOrder authenticates a payment confirmation and materialises
// the order it pays for. Nothing is persisted unless every step succeeds.
func (s *CheckoutService) VerifyAndCreateOrder(ctx context.Context, userID string, claim ports.PaymentClaim) (*domain.Order, error) {
	start := s.now()
	order, err := s.verifyAndCreate(ctx, userID, claim)
	metrics.CheckoutDuration.WithLabelValues(checkoutResult(err)).Observe(s.now().Sub(start).Seconds())
	metrics.CheckoutsTotal.WithLabelValues(checkoutResult(err)).Inc()
	return order, err
}

func (s *CheckoutService) verifyAndCreate(ctx context.Context, userID string, claim ports.PaymentClaim) (*domain.Order, error) {
	// 1. Shape of the claim.
	if err := validateClaim(claim); err != nil {
		return nil, err
	}

	event := &domain.PaymentEvent{
		GatewayOrderID:   claim.GatewayOrderID,
		GatewayPaymentID: claim.GatewayPaymentID,
		UserID:           userID,
	}

	// 2. Signature is the only proof the payment happened.
	if !s.gateway.VerifySignature(claim.GatewayOrderID, claim.GatewayPaymentID, claim.GatewaySignature) {
		s.log.Warn().
			Str("gateway_order_id", claim.GatewayOrderID).
			Str("user_id", userID).
			Msg("payment signature mismatch")
		s.record(ctx, event, domain.PaymentRejected, "signature mismatch")
		return nil, domain.ErrInvalidSignature
	}

	if s.alreadyProcessed(ctx, claim.GatewayPaymentID) {
		s.record(ctx, event, domain.PaymentDuplicate, "payment id already materialised")
		return nil, domain.ErrPaymentAlreadyProcessed
	}

	// 3-4. Price every line from the stored catalog.
	items, total, err := s.priceItems(ctx, claim.Items)
	if err != nil {
		s.record(ctx, event, domain.PaymentFailed, err.Error())
		return nil, err
	}

	// 5. One transaction for header and lines.
	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		TotalAmount:     total,
		ShippingAddress: claim.ShippingAddress,
		Status:          domain.OrderStatusPaid,
		PaymentID:       claim.GatewayPaymentID,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	if err := s.orders.CreateWithItems(ctx, order); err != nil {
		if errors.Is(err, domain.ErrPaymentAlreadyProcessed) {
			s.record(ctx, event, domain.PaymentDuplicate, "payment id already recorded")
			return nil, err
		}
		s.log.Error().Err(err).Str("payment_id", claim.GatewayPaymentID).Msg("failed to persist order")
		s.record(ctx, event, domain.PaymentFailed, "persistence failure")
		return nil, fmt.Errorf("create order: %w", err)
	}

	// 6. Side channels never change the outcome.
	if s.replay != nil {
		if err := s.replay.MarkProcessed(ctx, claim.GatewayPaymentID); err != nil {
			s.log.Warn().Err(err).Str("payment_id", claim.GatewayPaymentID).Msg("failed to mark payment processed")
		}
	}
	event.OrderID = order.ID
	event.Amount = order.TotalAmount
	s.record(ctx, event, domain.PaymentVerified, "")
	if s.events != nil {
		if err := s.events.PublishOrderConfirmed(ctx, order); err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order confirmed event")
		}
	}

	total64, _ := order.TotalAmount.Float64()
	metrics.OrderTotalAmount.Observe(total64)
	s.log.Info().
		Str("order_id", order.ID).
		Str("user_id", userID).
		Str("payment_id", order.PaymentID).
		Str("total", order.TotalAmount.String()).
		Int("items", len(order.Items)).
		Msg("order created")

	return order, nil
}

func validateClaim(c ports.PaymentClaim) error {
	if c.GatewayOrderID == "" || c.GatewayPaymentID == "" || c.GatewaySignature == "" ||
		len(c.Items) == 0 || strings.TrimSpace(c.ShippingAddress) == "" {
		return domain.Invalid("Missing required fields. Payment details, items, and shipping address are required.")
	}
	for _, it := range c.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return domain.Invalid("Each item requires a productId and a positive quantity")
		}
	}
	return nil
}

// priceItems resolves every claimed line against the catalog in claim order.
// Duplicate product ids produce duplicate lines.
func (s *CheckoutService) priceItems(ctx context.Context, claimed []ports.ClaimedItem) ([]domain.OrderItem, decimal.Decimal, error) {
	ids := make([]string, 0, len(claimed))
	seen := make(map[string]struct{}, len(claimed))
	for _, it := range claimed {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, 0, len(claimed))
	total := decimal.Zero
	for _, it := range claimed {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", domain.ErrProductNotFound, it.ProductID)
		}
		product := p
		line := domain.OrderItem{
			ID:        uuid.NewString(),
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     p.Price,
			Product:   &product,
		}
		total = total.Add(line.LineTotal())
		items = append(items, line)
	}
	return items, total, nil
}

// alreadyProcessed consults the replay guard. Guard failures are logged and
// treated as a miss; the unique payment id constraint still holds.
func (s *CheckoutService) alreadyProcessed(ctx context.Context, paymentID string) bool {
	if s.replay == nil {
		return false
	}
	processed, err := s.replay.IsProcessed(ctx, paymentID)
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", paymentID).Msg("replay check failed, processing anyway")
		return false
	}
	if processed {
		metrics.PaymentReplayChecksTotal.WithLabelValues("hit").Inc()
		return true
	}
	metrics.PaymentReplayChecksTotal.WithLabelValues("miss").Inc()
	return false
}

// record writes the audit entry; failures are non-fatal.
func (s *CheckoutService) record(ctx context.Context, event *domain.PaymentEvent, outcome domain.PaymentOutcome, reason string) {
	if s.audit == nil {
		return
	}
	event.Outcome = outcome
	event.Reason = reason
	event.OccurredAt = s.now().UTC()
	if err := s.audit.Record(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("payment_id", event.GatewayPaymentID).Msg("failed to record payment event")
	}
}

func checkoutResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_claim"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrPaymentAlreadyProcessed):
		return "duplicate"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	default:
		return "error"
	}
}
