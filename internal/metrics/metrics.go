package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "printcalc"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	quotes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Price calculations by outcome.",
		},
		[]string{"source", "outcome"},
	)

	degradations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_degradations_total",
			Help:      "Non-fatal data problems met while pricing.",
		},
		[]string{"kind"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders stored by product code.",
		},
		[]string{"product"},
	)

	updateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_processing_seconds",
			Help:      "Time spent processing a Telegram update.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	panics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Recovered panics in update handlers.",
		},
	)

	stateFailovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_failovers_total",
			Help:      "Switches from Redis to the in-memory state store.",
		},
	)

	backups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Database backups by result.",
		},
		[]string{"result"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operator_notifications_total",
			Help:      "Operator notifications by delivery result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			quotes,
			degradations,
			ordersCreated,
			updateDuration,
			panics,
			stateFailovers,
			backups,
			notifications,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string, code int) {
	httpRequests.WithLabelValues(endpoint, statusLabel(code)).Inc()
}

// IncQuote counts a calculation. source is "bot" or "api".
func IncQuote(source, outcome string) {
	quotes.WithLabelValues(source, outcome).Inc()
}

func IncDegradation(kind string) {
	degradations.WithLabelValues(kind).Inc()
}

func IncOrderCreated(product string) {
	ordersCreated.WithLabelValues(product).Inc()
}

func ObserveUpdate(d time.Duration) {
	updateDuration.Observe(d.Seconds())
}

func IncPanic() {
	panics.Inc()
}

func IncStateFailover() {
	stateFailovers.Inc()
}

func IncBackup(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	backups.WithLabelValues(result).Inc()
}

// IncNotification counts a delivery attempt: "sent", "retry" or "dead".
func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
