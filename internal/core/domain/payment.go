package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentOutcome classifies a payment verification attempt for the audit trail.
type PaymentOutcome string

const (
	PaymentVerified  PaymentOutcome = "verified"
	PaymentRejected  PaymentOutcome = "rejected"
	PaymentFailed    PaymentOutcome = "failed"
	PaymentDuplicate PaymentOutcome = "duplicate"
)

// PaymentEvent is one entry of the payment audit trail.
type PaymentEvent struct {
	GatewayOrderID   string
	GatewayPaymentID string
	UserID           string
	Outcome          PaymentOutcome
	Reason           string
	OrderID          string
	Amount           decimal.Decimal
	OccurredAt       time.Time
}
