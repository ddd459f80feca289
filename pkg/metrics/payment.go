package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PaymentAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "attempts_total",
			Help:      "Payment attempts by recorded outcome (success, failed, rejected, error)",
		},
		[]string{"result"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Payment gateway call latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"outcome"},
	)

	EventSinkFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "sink_failures_total",
			Help:      "Payment events that could not be delivered to a sink",
		},
		[]string{"sink"},
	)
)

func init() {
	Registry.MustRegister(PaymentAttemptsTotal, GatewayRequestDuration, EventSinkFailuresTotal)
}
