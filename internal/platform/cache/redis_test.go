package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "catalog", time.Minute)
}

func TestStore_FetchJSONCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	key, err := store.Key(ctx, "products", "page=1")
	require.NoError(t, err)
	assert.Equal(t, "catalog:products:page=1:v1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []string{"ball", "bat"}, nil
	}

	var first, second []string
	require.NoError(t, store.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, store.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, []string{"ball", "bat"}, second)
	assert.Equal(t, 1, calls)
}

func TestStore_BumpChangesKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	before, err := store.Key(ctx, "products")
	require.NoError(t, err)
	require.NoError(t, store.Bump(ctx))
	after, err := store.Key(ctx, "products")
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestStore_Bytes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, ok, err := store.GetBytes(ctx, "pdf:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetBytes(ctx, "pdf:1", []byte("%PDF")))
	data, ok, err := store.GetBytes(ctx, "pdf:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("%PDF"), data)
}

func TestStore_NilClientFallsThrough(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, "catalog", time.Minute)

	var out int
	require.NoError(t, store.FetchJSON(ctx, "k", &out, func(context.Context) (any, error) { return 42, nil }))
	assert.Equal(t, 42, out)
	require.NoError(t, store.Bump(ctx))
}
