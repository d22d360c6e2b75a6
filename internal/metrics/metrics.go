package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CartMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart and favorites mutations by operation",
		},
		[]string{"store", "operation"},
	)

	PersistenceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_persistence_failures_total",
			Help: "Failed loads and saves of mirrored store state",
		},
		[]string{"store", "operation"},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Requests sent to the backend REST API",
		},
		[]string{"method", "status_code"},
	)

	TokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_token_refresh_total",
			Help: "Access token refresh attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CartMutationsTotal,
		PersistenceFailuresTotal,
		BackendRequestsTotal,
		TokenRefreshTotal,
	)
}
