package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Business metrics
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_assignments_total",
			Help: "Trip assignment attempts by outcome",
		},
		[]string{"result"},
	)

	AssignmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_assignment_duration_seconds",
			Help:    "Duration of the assignment transaction including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	TxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_tx_retries_total",
			Help: "Transactions re-run after a serialization failure or deadlock",
		},
	)

	DirectoryDriversGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_directory_drivers",
			Help: "Drivers in the last directory snapshot",
		},
		[]string{"bucket"},
	)

	SweepCorrectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_sweep_drivers_total",
			Help: "Drivers handled by reconciler sweeps by outcome",
		},
		[]string{"sweep", "outcome"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_sweep_duration_seconds",
			Help:    "Reconciler sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"exchange", "routing_key", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordAssignment records the outcome label and duration of one assignment call.
func RecordAssignment(result string, duration time.Duration) {
	AssignmentsTotal.WithLabelValues(result).Inc()
	AssignmentDuration.Observe(duration.Seconds())
}

// RecordSweep records per-driver outcomes of a finished sweep.
func RecordSweep(sweep string, corrected, skipped, failed int, duration time.Duration) {
	SweepCorrectionsTotal.WithLabelValues(sweep, "corrected").Add(float64(corrected))
	SweepCorrectionsTotal.WithLabelValues(sweep, "skipped").Add(float64(skipped))
	SweepCorrectionsTotal.WithLabelValues(sweep, "failed").Add(float64(failed))
	SweepDuration.WithLabelValues(sweep).Observe(duration.Seconds())
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(exchange, key string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesPublished.WithLabelValues(exchange, key, status).Inc()
}
