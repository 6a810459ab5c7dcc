// Package metrics defines and registers all custom Prometheus metrics for the
// storefront API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// UsersRegisteredTotal counts successful signups.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of user accounts created.",
	},
)

// AuthFailuresTotal counts requests rejected by the auth gates.
// Label:
//   - reason: "missing_token", "bad_format", "malformed", "signature_invalid",
//     "expired", "invalid" or "forbidden"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"reason"},
)

// ── Checkout metrics ──────────────────────────────────────────────────────────

// GatewayOrdersTotal counts attempts to open a payment order at the gateway.
// Label:
//   - result: "created" or "error"
var GatewayOrdersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_orders_total",
		Help:      "Total number of gateway payment orders requested, by result.",
	},
	[]string{"result"},
)

// CheckoutsTotal counts payment verification attempts.
// Label:
//   - result: "created", "invalid_claim", "invalid_signature", "duplicate",
//     "product_not_found" or "error"
var CheckoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Total number of payment verifications, labelled by result.",
	},
	[]string{"result"},
)

// CheckoutDuration measures how long a verification takes end to end.
// Label:
//   - result: same values as CheckoutsTotal
var CheckoutDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of payment verification and order creation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// PaymentReplayChecksTotal counts replay guard decisions.
// Label:
//   - result: "hit" (payment id already used) or "miss"
var PaymentReplayChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_replay_checks_total",
		Help:      "Total number of payment replay checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrderTotalAmount observes the server-computed total of every created order,
// in major currency units.
var OrderTotalAmount = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_total_amount",
		Help:      "Distribution of order totals in major currency units.",
		Buckets:   prometheus.ExponentialBuckets(10, 4, 8), // 10 .. 163840
	},
)
