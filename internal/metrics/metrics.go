// Package metrics exposes Prometheus counters for filter compilation.
//
// A nil *Collector is valid and records nothing, so callers never need to
// guard their calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qarray"

// Collector records cache and compile activity per table.
type Collector struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	compiles *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with reg.
// Registration panics on duplicate metric names, as with MustRegister.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Filter statements served from the cache.",
		}, []string{"table"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Filter lookups that ran the compiler.",
		}, []string{"table"}),
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Predicates compiled successfully.",
		}, []string{"table"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_failures_total",
			Help:      "Predicates rejected by the compiler, by error code.",
		}, []string{"table", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Time spent parsing, lowering and rendering one predicate.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 8),
		}, []string{"table"}),
	}
	reg.MustRegister(c.hits, c.misses, c.compiles, c.failures, c.duration)
	return c
}

// Hit records a cache hit.
func (c *Collector) Hit(table string) {
	if c == nil {
		return
	}
	c.hits.WithLabelValues(table).Inc()
}

// Miss records a cache miss.
func (c *Collector) Miss(table string) {
	if c == nil {
		return
	}
	c.misses.WithLabelValues(table).Inc()
}

// Compiled records a successful compile and its duration.
func (c *Collector) Compiled(table string, d time.Duration) {
	if c == nil {
		return
	}
	c.compiles.WithLabelValues(table).Inc()
	c.duration.WithLabelValues(table).Observe(d.Seconds())
}

// Failed records a rejected predicate. code is the compile error code, or
// a coarse category for parse and normalize failures.
func (c *Collector) Failed(table, code string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(table, code).Inc()
}
