package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsGrantedTotal,
		subscriptionsExpiredTotal,
		subscriptionsNotifiedTotal,
	)
}

var (
	subscriptionsGrantedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_granted_total",
			Help: "Subscriptions created or renewed after a finished payment.",
		},
	)

	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions revoked and removed by the expiry sweep.",
		},
	)

	subscriptionsNotifiedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_notified_total",
			Help: "Expiring-soon notifications dispatched.",
		},
	)
)

func IncSubscriptionGranted() { subscriptionsGrantedTotal.Inc() }

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}

func IncSubscriptionNotified() { subscriptionsNotifiedTotal.Inc() }
