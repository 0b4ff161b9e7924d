package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func newTestMemoryCache(t *testing.T, opts ...MemoryOption) *MemoryCache {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := newTestMemoryCache(t)
	ctx := context.Background()

	in := payload{Symbol: "BTC", Score: 0.82}
	require.NoError(t, mc.Set(ctx, "k1", in, time.Minute))

	var out payload
	require.NoError(t, mc.Get(ctx, "k1", &out))
	assert.Equal(t, in, out)
}

func TestMemoryCacheStringValues(t *testing.T) {
	mc := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k1", "raw-value", time.Minute))

	var out string
	require.NoError(t, mc.Get(ctx, "k1", &out))
	assert.Equal(t, "raw-value", out)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := newTestMemoryCache(t)

	var out payload
	err := mc.Get(context.Background(), "absent", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k1", payload{Symbol: "BTC"}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var out payload
	err := mc.Get(ctx, "k1", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)

	ok, err := mc.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k1", "a", time.Minute))
	require.NoError(t, mc.Set(ctx, "k2", "b", time.Minute))
	require.NoError(t, mc.Delete(ctx, "k1", "k2"))

	ok, err := mc.Exists(ctx, "k1", "k2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	mc := newTestMemoryCache(t, WithMemoryMaxSize(2))
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "old", "a", time.Minute))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "mid", "b", time.Minute))
	time.Sleep(2 * time.Millisecond)

	// Touch "old" so "mid" becomes the eviction candidate.
	var s string
	require.NoError(t, mc.Get(ctx, "old", &s))
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, mc.Set(ctx, "new", "c", time.Minute))

	ok, _ := mc.Exists(ctx, "mid")
	assert.False(t, ok, "least recently used entry is evicted first")
	ok, _ = mc.Exists(ctx, "old")
	assert.True(t, ok)
	ok, _ = mc.Exists(ctx, "new")
	assert.True(t, ok)
}

func TestMemoryCachePing(t *testing.T) {
	mc := newTestMemoryCache(t)
	assert.NoError(t, mc.Ping(context.Background()))
}
