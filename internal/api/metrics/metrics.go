// Package metrics defines and registers all custom Prometheus metrics for
// the discussion backend. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "discussion"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts successfully created accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts created.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure" (failure covers unknown email and bad password)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// PasswordResetsTotal counts password-reset flow progress.
// Label:
//   - stage: "requested" (forgot-password accepted) or "completed" (password changed)
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password-reset requests and completions.",
	},
	[]string{"stage"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailTotal counts asynchronous mail deliveries.
// Label:
//   - result: "sent" or "error"
var MailTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_total",
		Help:      "Total number of outbound mail deliveries, labelled by result.",
	},
	[]string{"result"},
)

// ── Loader metrics ────────────────────────────────────────────────────────────

// LoaderBatchSize measures how many distinct keys each bulk fetch carried.
// Sizes near the page size confirm the per-request loaders are coalescing
// lookups instead of fetching row by row.
// Label:
//   - loader: "users" or "updoots"
var LoaderBatchSize = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "loader_batch_size",
		Help:      "Distinct keys per loader bulk fetch.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
	},
	[]string{"loader"},
)
