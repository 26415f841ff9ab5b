// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AssessmentsTotal counts scoring calls by method and resulting category.
	AssessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airassess_assessments_total",
		Help: "Completed assessments by scoring method and category.",
	}, []string{"method", "category"})

	// FallbackTotal counts enhanced-path failures degraded to the crisp path.
	FallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airassess_enhanced_fallback_total",
		Help: "Enhanced assessments that fell back to crisp scoring.",
	})

	// InvalidInputTotal counts requests rejected for malformed readings.
	InvalidInputTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airassess_invalid_input_total",
		Help: "Assessment requests rejected for invalid input.",
	})

	cacheHitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airassess_cache_hit_total",
		Help: "Cache hits by cache name.",
	}, []string{"cache"})

	cacheMissTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airassess_cache_miss_total",
		Help: "Cache misses by cache name.",
	}, []string{"cache"})

	// RequestDuration observes handler latency by endpoint.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "airassess_request_duration_seconds",
		Help:    "HTTP request duration by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// CacheObserver adapts the Prometheus counters to the cache.Observer
// interface, one instance per named cache.
type CacheObserver struct {
	name string
}

func NewCacheObserver(name string) *CacheObserver { return &CacheObserver{name: name} }

func (o *CacheObserver) CacheHit()  { cacheHitTotal.WithLabelValues(o.name).Inc() }
func (o *CacheObserver) CacheMiss() { cacheMissTotal.WithLabelValues(o.name).Inc() }

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler { return promhttp.Handler() }
