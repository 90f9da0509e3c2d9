package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predator49/train-reservation/internal/model"
)

func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	c := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newTestCache(t *testing.T) (*SeatCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSeatCache(client, "test:seats", time.Minute), mr
}

var twoSeats = []model.Seat{
	{ID: 1, SeatNumber: 1, RowNumber: 1},
	{ID: 2, SeatNumber: 2, RowNumber: 1},
}

func TestSeatCacheDefaultKey(t *testing.T) {
	c := NewSeatCache(unreachable(t), "", time.Second)
	assert.Equal(t, "seats:snapshot", c.key)
	assert.Equal(t, "seats:snapshot:gen", c.genKey)
}

func TestSeatCacheSurfacesRedisErrors(t *testing.T) {
	c := NewSeatCache(unreachable(t), "test:seats", time.Second)
	ctx := context.Background()

	seats, ok, err := c.Get(ctx)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, seats)

	_, err = c.Generation(ctx)
	assert.Error(t, err)
	_, err = c.Fill(ctx, 0, twoSeats)
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(ctx))
}

func TestSeatCacheFillAndGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	stored, err := c.Fill(ctx, gen, twoSeats)
	require.NoError(t, err)
	assert.True(t, stored)

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, twoSeats, got)
	assert.Equal(t, time.Minute, mr.TTL("test:seats"))
}

func TestSeatCacheInvalidateBumpsGeneration(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Fill(ctx, 0, twoSeats)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

func TestSeatCacheRejectsFillFromBeforeCommit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	before, err := c.Generation(ctx)
	require.NoError(t, err)

	// a commit lands between the reader's load and its fill
	require.NoError(t, c.Invalidate(ctx))

	stored, err := c.Fill(ctx, before, twoSeats)
	require.NoError(t, err)
	assert.False(t, stored)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeatCacheDropsUnreadableEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("test:seats", "{not json"))

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("test:seats"))
}
