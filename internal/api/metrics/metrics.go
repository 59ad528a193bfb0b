// Package metrics defines and registers the custom Prometheus metrics for the
// credit gateway. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry on package init via promauto;
// HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "credit_gateway"

// ── Metering ──────────────────────────────────────────────────────────────────

// MeteredCallsTotal counts metered call outcomes.
// Label:
//   - result: "charged", "insufficient_credit", "rate_limited" or "error"
var MeteredCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "metered_calls_total",
		Help:      "Total number of metered API calls, by outcome.",
	},
	[]string{"result"},
)

// CreditsDebitedTotal sums credits consumed by metered calls.
var CreditsDebitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credits_debited_total",
		Help:      "Total credits debited by metered calls.",
	},
)

// ── Accounts ──────────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts signup and login attempts.
// Labels:
//   - operation: "signup" or "login"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of signup and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// APIKeysIssuedTotal counts issued (and rotated) API keys.
var APIKeysIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_keys_issued_total",
		Help:      "Total number of API keys issued or rotated.",
	},
)

// ── Admin ledger ──────────────────────────────────────────────────────────────

// AdminAdjustmentsTotal counts admin credit adjustments.
// Label:
//   - direction: "credit" (delta >= 0) or "debit"
var AdminAdjustmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_adjustments_total",
		Help:      "Total number of admin credit adjustments, by direction.",
	},
	[]string{"direction"},
)

// ── Errors ────────────────────────────────────────────────────────────────────

// RequestErrorsTotal counts error responses rendered by the error handler.
// Label:
//   - status: HTTP status code (e.g. "402")
var RequestErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_errors_total",
		Help:      "Total number of error responses, by HTTP status.",
	},
	[]string{"status"},
)
