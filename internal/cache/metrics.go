package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations tracks adapter calls by operation
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proximate_cache_operations_total",
			Help: "Total number of cache adapter operations",
		},
		[]string{"operation"}, // "count", "list", "page_keys", "page_items", "read", "expire"
	)

	// OperationErrors tracks failed adapter calls by operation
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proximate_cache_errors_total",
			Help: "Total number of failed cache adapter operations",
		},
		[]string{"operation"},
	)

	// Hits tracks responses served from the cache
	Hits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proximate_cache_hits_total",
			Help: "Total number of responses served from the cache",
		},
	)

	// Misses tracks cacheable requests that had to be forwarded
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proximate_cache_misses_total",
			Help: "Total number of cacheable requests not found in the cache",
		},
	)

	// Writes tracks entries written by the proxy
	Writes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proximate_cache_writes_total",
			Help: "Total number of responses written to the cache",
		},
	)
)

// observe counts one call of op and, if err is set, one failure
func observe(op string, err error) {
	Operations.WithLabelValues(op).Inc()
	if err != nil {
		OperationErrors.WithLabelValues(op).Inc()
	}
}
