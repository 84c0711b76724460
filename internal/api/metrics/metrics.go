// Package metrics defines the domain Prometheus metrics for the billing API.
// HTTP request metrics come from the echoprometheus middleware; everything
// here counts business outcomes.
//
// All metrics register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ebms"

// ── Bill metrics ──────────────────────────────────────────────────────────────

// BillsGeneratedTotal counts bills created by administrators.
var BillsGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_generated_total",
		Help:      "Total number of bills generated.",
	},
)

// BilledUnits observes the consumption recorded on each generated bill.
var BilledUnits = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "billed_units",
		Help:      "Units consumed per generated bill.",
		Buckets:   []float64{50, 100, 150, 200, 300, 500, 1000, 2000},
	},
)

// PaymentsTotal counts settlements.
// Label:
//   - source: "customer" for Pay, "override" for payments synthesized by an admin override
var PaymentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_total",
		Help:      "Total number of bill payments recorded.",
	},
	[]string{"source"},
)

// StatusOverridesTotal counts administrative status changes.
// Label:
//   - status: the status forced onto the bill ("PAID" or "UNPAID")
var StatusOverridesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bill_status_overrides_total",
		Help:      "Total number of administrative bill status overrides.",
	},
	[]string{"status"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - role: the role the caller claimed
//   - result: "success", "invalid_credentials", "locked" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts by claimed role and result.",
	},
	[]string{"role", "result"},
)

// RegistrationsTotal counts customer accounts created, by channel
// ("self" or "admin").
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of customer accounts created.",
	},
	[]string{"channel"},
)
