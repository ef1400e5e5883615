package webhooks

import (
	"time"

	"github.com/bissquit/hookrelay/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "webhooks"

var (
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: subsystem,
			Name:      "deliveries_total",
			Help:      "Total webhook deliveries by verb and result",
		},
		[]string{"verb", "result"},
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: subsystem,
			Name:      "delivery_duration_seconds",
			Help:      "Time to deliver a webhook, including failed attempts",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"verb"},
	)

	dispatchCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: subsystem,
			Name:      "dispatch_cycles_total",
			Help:      "Total dispatch cycles by verb",
		},
		[]string{"verb"},
	)

	queueInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: subsystem,
			Name:      "queue_in_flight",
			Help:      "Dispatch cycles currently running",
		},
	)

	queueRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: subsystem,
			Name:      "queue_rejected_total",
			Help:      "Mutation events rejected because the dispatch queue was full",
		},
	)
)

func recordDelivery(verb string, result string, duration time.Duration) {
	deliveriesTotal.WithLabelValues(verb, result).Inc()
	deliveryDuration.WithLabelValues(verb).Observe(duration.Seconds())
}

func recordDispatchCycle(verb string) {
	dispatchCycles.WithLabelValues(verb).Inc()
}
