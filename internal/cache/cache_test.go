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

type cachedPost struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// setupMiniredis wires the package client to an in-process Redis and restores
// the previous client afterwards.
func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	prev := GetClient()
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(prev) })
	return mr
}

func TestGetSetJSON_RoundTrip(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	var missing cachedPost
	found, err := GetJSON(ctx, "post:1", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, "post:1", cachedPost{ID: 1, Text: "hello"}, time.Minute))

	var got cachedPost
	found, err = GetJSON(ctx, "post:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", got.Text)
}

func TestGetSetJSON_NilClientFailsOpen(t *testing.T) {
	prev := GetClient()
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, "post:1", cachedPost{ID: 1}, time.Minute))

	var got cachedPost
	found, err := GetJSON(ctx, "post:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAside_FetchOnMissThenServeFromCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedPost) func() error {
		return func() error {
			fetches++
			*dest = cachedPost{ID: 7, Text: "from db"}
			return nil
		}
	}

	var first cachedPost
	require.NoError(t, Aside(ctx, PostKey(7), &first, PostTTL, fetch(&first)))
	assert.Equal(t, "from db", first.Text)
	assert.Equal(t, 1, fetches)

	var second cachedPost
	require.NoError(t, Aside(ctx, PostKey(7), &second, PostTTL, fetch(&second)))
	assert.Equal(t, "from db", second.Text)
	assert.Equal(t, 1, fetches, "second read must come from cache")
}

func TestAside_TTLExpiryRefetches(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	fetches := 0
	var dest cachedPost
	fetch := func() error {
		fetches++
		dest = cachedPost{ID: 1, Text: "v"}
		return nil
	}

	require.NoError(t, Aside(ctx, FeedKey, &dest, FeedTTL, fetch))
	mr.FastForward(FeedTTL + time.Second)
	require.NoError(t, Aside(ctx, FeedKey, &dest, FeedTTL, fetch))
	assert.Equal(t, 2, fetches)
}

func TestInvalidatePost(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PostKey(3), cachedPost{ID: 3}, time.Minute))
	require.True(t, mr.Exists(PostKey(3)))

	InvalidatePost(ctx, 3)
	assert.False(t, mr.Exists(PostKey(3)))
}

func TestInvalidateFeed(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, FeedKey, []cachedPost{{ID: 1}}, time.Minute))
	require.True(t, mr.Exists(FeedKey))

	InvalidateFeed(ctx)
	assert.False(t, mr.Exists(FeedKey))
}
