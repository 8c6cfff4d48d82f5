package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client)
}

func TestOnlineOfflineRoundTrip(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	online, err := store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, store.SetOnline(ctx, "u1"))
	online, err = store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, store.SetOffline(ctx, "u1"))
	online, err = store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestOnlineUsersListsAllMembers(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SetOnline(ctx, "u1"))
	require.NoError(t, store.SetOnline(ctx, "u2"))

	users, err := store.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, users)
}

func TestLocationRoundTrip(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	_, ok, err := store.GetLocation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Location{Lat: 52.52, Lng: 13.405}
	require.NoError(t, store.SetLocation(ctx, "u1", want))

	got, ok, err := store.GetLocation(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
