package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusPaid is the confirmed state an order is created in once its
	// payment signature has been verified.
	OrderStatusPaid OrderStatus = "PAID"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidSignature        = errors.New("invalid payment signature")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
)

// Order is the aggregate root materialised from a verified payment.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid"`
	UserID          string          `json:"userId" gorm:"index;type:uuid;not null"`
	User            *UserSummary    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"type:numeric(12,2);not null"`
	ShippingAddress string          `json:"shippingAddress" gorm:"not null"`
	Status          OrderStatus     `json:"status" gorm:"not null"`
	PaymentID       string          `json:"paymentId" gorm:"uniqueIndex;not null"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is an immutable line: Price is the unit price captured when the
// order was created, independent of later catalog changes.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:uuid"`
	OrderID   string          `json:"orderId" gorm:"index;type:uuid;not null"`
	ProductID string          `json:"productId" gorm:"type:uuid;not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// LineTotal returns unit price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
