// Package metrics defines and registers all custom Prometheus metrics for
// the lending bot. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics use the default registry via promauto; exposing them is the
// webhook server's job.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lendingbot"

// UpdatesReceivedTotal counts updates accepted from the transport.
// Label:
//   - kind: "message" or "callback"
var UpdatesReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_received_total",
		Help:      "Total number of webhook updates accepted for processing.",
	},
	[]string{"kind"},
)

// UpdatesRejectedTotal counts updates dropped at the webhook boundary.
// Label:
//   - reason: "bad_secret", "bad_payload", "no_content"
var UpdatesRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_rejected_total",
		Help:      "Total number of webhook updates rejected before dispatch.",
	},
	[]string{"reason"},
)

// DedupTotal counts redelivery checks.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new update, processed)
var DedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_dedup_total",
		Help:      "Total number of update deduplication checks, by result.",
	},
	[]string{"result"},
)

// QueueDepth tracks updates waiting in each dispatcher worker channel.
var QueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "update_queue_depth",
		Help:      "Current number of updates pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ProcessingDuration measures one update's end-to-end handling time.
// Label:
//   - outcome: "ok" or "error"
var ProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "update_processing_duration_seconds",
		Help:      "Duration of update processing from dequeue to reply.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
