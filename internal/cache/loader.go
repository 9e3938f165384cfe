package cache

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// CompileFunc produces the statement for a cache miss.
type CompileFunc func() (string, error)

// Loader fronts a Store so that concurrent misses for one key run the
// compile function once. Failed compiles are returned to every waiting
// caller and never stored.
type Loader struct {
	store Store
	group singleflight.Group
}

// NewLoader creates a Loader over store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Store returns the underlying store.
func (l *Loader) Store() Store {
	return l.store
}

// Load returns the statement for key. hit reports whether it came from the
// store without compiling.
func (l *Loader) Load(key string, compile CompileFunc) (statement string, hit bool, err error) {
	stmt, ok, err := l.store.Get(key)
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	if ok {
		return stmt, true, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		// Another flight may have stored it between our Get and Do.
		if stmt, ok, err := l.store.Get(key); err == nil && ok {
			return stmt, nil
		}
		stmt, err := compile()
		if err != nil {
			return "", err
		}
		if err := l.store.Put(key, stmt); err != nil {
			return "", fmt.Errorf("cache put: %w", err)
		}
		return stmt, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}
