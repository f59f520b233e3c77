package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vio-chat-service/internal/models"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestDecrClampsAtZero(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)

	require.NoError(t, c.Incr(ctx, "bob", "alice"))
	require.NoError(t, c.Decr(ctx, "bob", "alice"))
	require.NoError(t, c.Decr(ctx, "bob", "alice"))
	require.NoError(t, c.Decr(ctx, "bob", "carol"))

	assert.Equal(t, "0", mr.HGet(unreadPrefix+"bob", "alice"))
	assert.Equal(t, "0", mr.HGet(unreadPrefix+"bob", "carol"))
}

func TestCountsSeededOnlyAfterReplace(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)

	require.NoError(t, c.Incr(ctx, "bob", "alice"))
	counts, seeded, err := c.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, map[string]int{"alice": 1}, counts)

	require.NoError(t, c.Replace(ctx, "bob", map[string]int{"alice": 3, "carol": 0}))
	require.NoError(t, c.Reset(ctx, "bob", "carol"))
	counts, seeded, err = c.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, map[string]int{"alice": 3, "carol": 0}, counts)

	mr.FlushAll()
	require.NoError(t, c.Incr(ctx, "bob", "alice"))
	_, seeded, err = c.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestUserCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	_, ok, err := c.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutUsers(ctx, models.UserSummary{UID: "alice", Name: "Alice"}))
	got, ok, err := c.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice", got.Name)

	require.NoError(t, c.InvalidateUser(ctx, "alice"))
	_, ok, err = c.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}
