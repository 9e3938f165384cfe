// Package cache memoizes rendered filter statements.
//
// Entries are keyed by Key(table, source): the owning table's name and
// the predicate text exactly as the caller supplied it. A hit returns the
// stored statement unchanged; only successful compiles are stored.
//
// Three Store implementations exist:
//
//   - Memory: unbounded map, never evicts (the default)
//   - ARC: bounded adaptive replacement cache for long-running hosts
//   - store.Store (internal/store): sqlite-backed, survives restarts
//
// All stores are safe for concurrent use.
package cache

import (
	"fmt"
	"sync"

	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// Store holds rendered statements by key.
type Store interface {
	// Get returns the statement stored under key.
	Get(key string) (statement string, ok bool, err error)

	// Put stores statement under key, replacing any previous value.
	Put(key, statement string) error

	// Len returns the number of stored entries.
	Len() int
}

// Key builds the cache key for a predicate compiled against a table.
// The NUL separator cannot occur in a table name.
func Key(table, source string) string {
	return table + "\x00" + source
}

// Memory is an unbounded in-memory Store. Entries never expire.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stmt, ok := m.entries[key]
	return stmt, ok, nil
}

func (m *Memory) Put(key, statement string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = statement
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// ARC is a bounded Store using adaptive replacement. Evicted entries are
// recompiled on the next miss.
type ARC struct {
	cache *arc.ARCCache[string, string]
}

// NewARC creates an ARC store holding at most size entries.
func NewARC(size int) (*ARC, error) {
	c, err := arc.NewARC[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create arc cache: %w", err)
	}
	return &ARC{cache: c}, nil
}

func (a *ARC) Get(key string) (string, bool, error) {
	stmt, ok := a.cache.Get(key)
	return stmt, ok, nil
}

func (a *ARC) Put(key, statement string) error {
	a.cache.Add(key, statement)
	return nil
}

func (a *ARC) Len() int {
	return a.cache.Len()
}
