package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(webhooksPostedTotal, cacheRequestsTotal)
}

var (
	webhooksPostedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_posted_total",
			Help: "Outbound webhook posts by event and delivery success.",
		},
		[]string{"event", "success"},
	)

	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by entity and outcome.",
		},
		[]string{"entity", "outcome"}, // outcome: 'hit' | 'miss'
	)
)

func IncWebhookPosted(event string, success bool) {
	webhooksPostedTotal.WithLabelValues(norm(event), strconv.FormatBool(success)).Inc()
}

func IncCacheRequest(entity, outcome string) {
	cacheRequestsTotal.WithLabelValues(norm(entity), norm(outcome)).Inc()
}
