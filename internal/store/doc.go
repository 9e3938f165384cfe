// Package store provides SQLite-backed persistence for compiled filters.
//
// The store holds:
//   - Compiled filters: rendered statements keyed by cache key, so a
//     restarted process serves known predicates without recompiling
//   - Check runs: one record per `qarray check`, with per-filter results
//
// *Store implements cache.Store and can back a cache.Loader directly.
//
// # Keys
//
// Cache keys (table NUL source) are stored as SHA-256 with domain
// separation, SHA256("qarray/filter/v1" + 0x00 + key), so arbitrarily long
// predicate text indexes in fixed width. Table name and source are kept
// in plain columns for inspection.
//
// # Ordering
//
// Rows carry a seq INTEGER assigned at insert; listings order by seq,
// never by wall-clock time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
