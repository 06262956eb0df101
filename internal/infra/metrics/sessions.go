package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are declared next to their Inc helpers across this package and
// queued by init; MustRegister flushes the queue to the default registry.
var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister installs every queued collector exactly once.
func MustRegister() {
	registerOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}

func init() {
	register(
		sessionsCreatedTotal,
		sessionsPolledTotal,
		sessionsExpiredLocallyTotal,
		sessionTransitionsTotal,
		gatewayErrorsTotal,
	)
}

var (
	sessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_sessions_created_total",
			Help: "Total number of checkout sessions issued.",
		},
	)

	sessionsPolledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_sessions_polled_total",
			Help: "Total number of remote status polls performed.",
		},
	)

	sessionsExpiredLocallyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_sessions_expired_locally_total",
			Help: "Sessions removed because the local deadline passed before a terminal status.",
		},
	)

	sessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_session_transitions_total",
			Help: "Session status transitions by new status.",
		},
		[]string{"status"},
	)

	gatewayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_errors_total",
			Help: "Gateway call failures by operation.",
		},
		[]string{"op"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncSessionCreated()        { sessionsCreatedTotal.Inc() }
func IncSessionPolled()         { sessionsPolledTotal.Inc() }
func IncSessionExpiredLocally() { sessionsExpiredLocallyTotal.Inc() }

func IncSessionTransition(status string) {
	sessionTransitionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncGatewayError(op string) {
	gatewayErrorsTotal.WithLabelValues(norm(op)).Inc()
}
