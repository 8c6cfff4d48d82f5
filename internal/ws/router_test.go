package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paircall-service/internal/mocks"
	"paircall-service/internal/models"
	"paircall-service/internal/presence"
)

func setupRouter(t *testing.T) (*Router, *Hub, *presence.Store, *mocks.UserRepositoryMock) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	store := presence.NewStore(client)
	hub := NewHub()
	users := new(mocks.UserRepositoryMock)
	return NewRouter(hub, store, users), hub, store, users
}

func receiveEnvelope(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case raw := <-client.send:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		return envelope
	default:
		t.Fatal("no envelope queued")
		return Envelope{}
	}
}

func TestPingAnsweredWithPong(t *testing.T) {
	router, hub, _, _ := setupRouter(t)
	sender := newTestClient("alice")
	hub.Register(sender)

	router.HandleInbound(context.Background(), "alice", []byte(`{"type":"ping","data":{"timestamp":1712345678}}`))

	envelope := receiveEnvelope(t, sender)
	assert.Equal(t, TypePong, envelope.Type)

	var data PingData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, int64(1712345678), data.Timestamp)
}

func TestTypingForwardedVerbatim(t *testing.T) {
	router, hub, _, _ := setupRouter(t)
	hub.Register(newTestClient("alice"))
	peer := newTestClient("bob")
	hub.Register(peer)

	raw := []byte(`{"type":"typing","data":{"target_user_id":"bob","is_typing":true}}`)
	router.HandleInbound(context.Background(), "alice", raw)

	select {
	case got := <-peer.send:
		assert.Equal(t, raw, got)
	default:
		t.Fatal("peer received nothing")
	}
}

func TestForwardWithoutTargetReturnsError(t *testing.T) {
	router, hub, _, _ := setupRouter(t)
	sender := newTestClient("alice")
	hub.Register(sender)

	router.HandleInbound(context.Background(), "alice", []byte(`{"type":"call_signal","data":{"sdp":"offer"}}`))

	envelope := receiveEnvelope(t, sender)
	assert.Equal(t, TypeError, envelope.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "missing target user", data.Message)
}

func TestUnknownTypeReturnsError(t *testing.T) {
	router, hub, _, _ := setupRouter(t)
	sender := newTestClient("alice")
	hub.Register(sender)

	router.HandleInbound(context.Background(), "alice", []byte(`{"type":"teleport","data":{}}`))

	envelope := receiveEnvelope(t, sender)
	assert.Equal(t, TypeError, envelope.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "unknown message type: teleport", data.Message)
}

func TestMalformedJSONReturnsError(t *testing.T) {
	router, hub, _, _ := setupRouter(t)
	sender := newTestClient("alice")
	hub.Register(sender)

	router.HandleInbound(context.Background(), "alice", []byte(`{"type":`))

	envelope := receiveEnvelope(t, sender)
	assert.Equal(t, TypeError, envelope.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "invalid JSON format", data.Message)
}

func TestPresenceQueryReportsOnlineState(t *testing.T) {
	router, hub, store, _ := setupRouter(t)
	sender := newTestClient("alice")
	hub.Register(sender)

	ctx := context.Background()
	require.NoError(t, store.SetOnline(ctx, "bob"))

	router.HandleInbound(ctx, "alice", []byte(`{"type":"presence_query","data":{"user_ids":["bob","carol"]}}`))

	envelope := receiveEnvelope(t, sender)
	require.Equal(t, TypePresenceUpdate, envelope.Type)

	var data PresenceUpdateData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.True(t, data.Presence["bob"])
	assert.False(t, data.Presence["carol"])
}

func TestLocationUpdateStored(t *testing.T) {
	router, hub, store, _ := setupRouter(t)
	hub.Register(newTestClient("alice"))

	ctx := context.Background()
	router.HandleInbound(ctx, "alice", []byte(`{"type":"location_update","data":{"location":{"lat":52.52,"lng":13.405}}}`))

	loc, ok, err := store.GetLocation(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 52.52, loc.Lat)
	assert.Equal(t, 13.405, loc.Lng)
}

func TestNearbyUsersWithinDistance(t *testing.T) {
	router, hub, store, users := setupRouter(t)
	sender := newTestClient("alice")
	hub.Register(sender)

	ctx := context.Background()
	require.NoError(t, store.SetOnline(ctx, "bob"))
	require.NoError(t, store.SetOnline(ctx, "carol"))
	require.NoError(t, store.SetLocation(ctx, "alice", presence.Location{Lat: 52.52, Lng: 13.405}))
	require.NoError(t, store.SetLocation(ctx, "bob", presence.Location{Lat: 52.53, Lng: 13.41}))
	// Carol is online but hundreds of kilometers away.
	require.NoError(t, store.SetLocation(ctx, "carol", presence.Location{Lat: 48.85, Lng: 2.35}))

	users.On("GetByIDs", mock.Anything, []string{"bob"}).
		Return([]models.User{{ID: "bob", Username: "bob", DisplayName: "Bob"}}, nil).Once()

	router.HandleInbound(ctx, "alice", []byte(`{"type":"get_nearby_users","data":{"max_distance":10}}`))

	envelope := receiveEnvelope(t, sender)
	require.Equal(t, TypeNearbyUsers, envelope.Type)

	var data NearbyUsersData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Len(t, data.Users, 1)
	assert.Equal(t, "bob", data.Users[0].UserID)
	assert.Greater(t, data.Users[0].DistanceKM, 0.0)
	assert.Less(t, data.Users[0].DistanceKM, 10.0)
	users.AssertExpectations(t)
}

func TestNearbyUsersWithoutOwnLocationIgnored(t *testing.T) {
	router, hub, _, _ := setupRouter(t)
	sender := newTestClient("alice")
	hub.Register(sender)

	router.HandleInbound(context.Background(), "alice", []byte(`{"type":"get_nearby_users","data":{}}`))

	assert.Empty(t, sender.send)
}
