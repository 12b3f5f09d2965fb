package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reasons recorded on the failed counter.
const (
	reasonNoTarget = "no_target"
	reasonInactive = "inactive_chain"
	reasonRejected = "rejected"
)

// Metrics holds the router's Prometheus collectors.
type Metrics struct {
	Enqueued  prometheus.Counter
	Delivered prometheus.Counter
	Failed    *prometheus.CounterVec
	Latency   prometheus.Histogram
}

// NewMetrics creates the router collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enqueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: "minichain",
			Name:      "messages_enqueued_total",
			Help:      "Cross-chain messages accepted for delivery.",
		}),
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: "minichain",
			Name:      "messages_delivered_total",
			Help:      "Cross-chain messages applied to their target.",
		}),
		Failed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minichain",
			Name:      "messages_failed_total",
			Help:      "Cross-chain messages that reached the failed status.",
		}, []string{"reason"}),
		Latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "minichain",
			Name:      "delivery_latency_seconds",
			Help:      "Time from enqueue to terminal status.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}
