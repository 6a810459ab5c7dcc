package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

type OrderService struct {
	orders   ports.OrderRepository
	invoices ports.InvoiceRenderer
	log      zerolog.Logger
}

func NewOrderService(orders ports.OrderRepository, invoices ports.InvoiceRenderer, log zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, invoices: invoices, log: log}
}

func (s *OrderService) List(ctx context.Context, caller *domain.Identity) ([]domain.Order, error) {
	if caller == nil {
		return nil, domain.ErrForbidden
	}
	if caller.IsAdmin() {
		return s.orders.List(ctx, "")
	}
	return s.orders.List(ctx, caller.ID)
}

func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx, "")
}

// Invoice renders the PDF invoice of orderID. Orders owned by someone else
// are reported as not found unless the caller is an administrator.
func (s *OrderService) Invoice(ctx context.Context, caller *domain.Identity, orderID string) ([]byte, error) {
	if caller == nil {
		return nil, domain.ErrForbidden
	}
	if orderID == "" {
		return nil, domain.Invalid("Order ID is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrOrderNotFound
	}

	var buf bytes.Buffer
	if err := s.invoices.Render(order, &buf); err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to render invoice")
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
