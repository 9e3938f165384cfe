package qarray

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/qarray/internal/cache"
	"github.com/roach88/qarray/internal/compiler"
	"github.com/roach88/qarray/internal/metrics"
	"github.com/roach88/qarray/internal/source"
	"github.com/roach88/qarray/internal/store"
)

// Cache stores compiled statements by key. Implementations must be safe
// for concurrent use.
type Cache = cache.Store

// CacheKey is the key Filter stores a table's statement under.
func CacheKey(table, source string) string {
	return cache.Key(table, source)
}

// NewMemoryCache returns an unbounded in-memory cache.
func NewMemoryCache() Cache {
	return cache.NewMemory()
}

// NewBoundedCache returns an adaptive replacement cache holding at most
// size statements.
func NewBoundedCache(size int) (Cache, error) {
	c, err := cache.NewARC(size)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SQLiteCache is a persistent Cache backed by a sqlite database.
type SQLiteCache = store.Store

// OpenSQLiteCache opens or creates the cache database at path. Use
// ":memory:" for a private in-memory database.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	return store.Open(path)
}

// Normalizer rewrites predicate text before it is parsed.
type Normalizer = source.Normalizer

// TypeScript returns a Normalizer that strips type annotations with
// esbuild, so typed predicates compile like plain ones.
func TypeScript() Normalizer {
	return source.ESBuild{}
}

// Metrics records cache and compile activity as prometheus collectors.
type Metrics = metrics.Collector

// NewMetrics registers the qarray collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return metrics.NewCollector(reg)
}

// Error types returned by Filter, Where and Expr.
type (
	CompileError   = compiler.CompileError
	SyntaxError    = source.SyntaxError
	NormalizeError = source.NormalizeError
)
