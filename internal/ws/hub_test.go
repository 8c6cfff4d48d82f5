package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID string) *Client {
	return NewClient(nil, ConnInfo{ConnID: newConnID(), UserID: userID})
}

func TestRegisterSupersedesPreviousConnection(t *testing.T) {
	hub := NewHub()

	first := newTestClient("user-1")
	require.Nil(t, hub.Register(first))

	second := newTestClient("user-1")
	previous := hub.Register(second)
	require.Equal(t, first, previous)

	// The superseded client must not evict the current one.
	hub.Unregister(first)
	assert.True(t, hub.IsConnected("user-1"))

	hub.Unregister(second)
	assert.False(t, hub.IsConnected("user-1"))
}

func TestSendToUserQueuesPayload(t *testing.T) {
	hub := NewHub()
	client := newTestClient("user-2")
	hub.Register(client)

	require.True(t, hub.SendToUser("user-2", []byte(`{"type":"pong"}`)))
	assert.Equal(t, []byte(`{"type":"pong"}`), <-client.send)

	assert.False(t, hub.SendToUser("nobody", []byte(`{}`)))
}

func TestSendToUserEvictsOnFullBuffer(t *testing.T) {
	hub := NewHub()
	client := newTestClient("user-3")
	hub.Register(client)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, hub.SendToUser("user-3", []byte("x")))
	}

	assert.False(t, hub.SendToUser("user-3", []byte("overflow")))
	assert.False(t, hub.IsConnected("user-3"))
}
