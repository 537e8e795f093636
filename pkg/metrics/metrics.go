package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts commit attempts by outcome and tracks commit
// latency. Outcome labels: "success", "empty_cart", "insufficient_stock",
// "address_not_found", "persistence_error".
type CheckoutMetrics struct {
	Commits  *prometheus.CounterVec
	Duration prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ceylonmart",
		Subsystem: "checkout",
		Name:      "commits_total",
		Help:      "Total number of checkout commit attempts.",
	}, []string{"result"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ceylonmart",
		Subsystem: "checkout",
		Name:      "commit_duration_seconds",
		Help:      "Checkout commit latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	reg.MustRegister(commits, duration)
	return &CheckoutMetrics{Commits: commits, Duration: duration}
}

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
