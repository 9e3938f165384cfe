package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qarray/internal/cache"
)

func TestKeyHash(t *testing.T) {
	h := KeyHash(cache.Key("Users", "(u) => u.a"))
	assert.Len(t, h, 64)
	assert.Equal(t, h, KeyHash(cache.Key("Users", "(u) => u.a")), "hash must be deterministic")
	assert.NotEqual(t, h, KeyHash(cache.Key("Orders", "(u) => u.a")))
	assert.NotEqual(t, hashWithDomain("a", []byte("b")), hashWithDomain("ab", []byte("")))
}

func TestStore_GetPut(t *testing.T) {
	s := createTestStore(t)
	key := cache.Key("Users", "(user) => user.age >= 18")

	_, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(key, "SELECT * FROM Users WHERE user.age >= 18;"))

	stmt, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SELECT * FROM Users WHERE user.age >= 18;", stmt)

	require.NoError(t, s.Put(key, "SELECT * FROM Users WHERE user.age > 17;"))
	stmt, _, err = s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM Users WHERE user.age > 17;", stmt)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	key := cache.Key("Users", "(u) => u.a")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(key, "SELECT * FROM Users WHERE u.a;"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	stmt, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SELECT * FROM Users WHERE u.a;", stmt)
}

func TestStore_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutContext(ctx, cache.Key("Users", "b"), "stmt b"))
	require.NoError(t, s.PutContext(ctx, cache.Key("Orders", "x"), "stmt x"))
	require.NoError(t, s.PutContext(ctx, cache.Key("Users", "a"), "stmt a"))

	filters, err := s.Filters(ctx, "Users")
	require.NoError(t, err)
	assert.Equal(t, []Filter{
		{Table: "Users", Source: "b", Statement: "stmt b"},
		{Table: "Users", Source: "a", Statement: "stmt a"},
	}, filters)

	filters, err = s.Filters(ctx, "Missing")
	require.NoError(t, err)
	assert.NotNil(t, filters)
	assert.Empty(t, filters)
}

func TestStore_BacksLoader(t *testing.T) {
	s := createTestStore(t)
	l := cache.NewLoader(s)

	calls := 0
	compile := func() (string, error) {
		calls++
		return "SELECT * FROM Users WHERE u.a;", nil
	}

	_, hit, err := l.Load(cache.Key("Users", "(u) => u.a"), compile)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = l.Load(cache.Key("Users", "(u) => u.a"), compile)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)
}
