package invoice

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pureline/storefront-api/internal/core/domain"
)

func TestPDFRenderer_Render(t *testing.T) {
	order := &domain.Order{
		ID:              "5b1f7c1e-2a7e-4b51-9d59-0c4a8a3c2b10",
		UserID:          "user-1",
		User:            &domain.UserSummary{Name: "Asha", Email: "asha@example.com"},
		TotalAmount:     decimal.RequireFromString("350.00"),
		ShippingAddress: "12 MG Road\nBengaluru 560001",
		Status:          domain.OrderStatusPaid,
		PaymentID:       "pay_xyz",
		CreatedAt:       time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("100.00"), Product: &domain.Product{Name: "Café mug"}},
			{ProductID: "p2", Quantity: 3, Price: decimal.RequireFromString("50.00")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPDFRenderer("Pureline", "INR").Render(order, &buf))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "missing PDF header")
	assert.True(t, bytes.Contains(out, []byte("%%EOF")), "missing PDF trailer")
}

func TestPDFRenderer_EmptyOrder(t *testing.T) {
	var buf bytes.Buffer
	err := NewPDFRenderer("Pureline", "INR").Render(&domain.Order{ID: "o", TotalAmount: decimal.Zero}, &buf)

	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}
