package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// gatewayServer upgrades connections, confirms them, and answers pings.
// dropAfter > 0 closes each connection after that many envelopes.
func gatewayServer(t *testing.T, dials *atomic.Int32, dropAfter int, outbound <-chan Envelope) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		defer conn.Close()

		established, _ := json.Marshal(map[string]string{"user_id": "alice"})
		if err := conn.WriteJSON(Envelope{Type: "connection_established", Data: established}); err != nil {
			return
		}

		if outbound != nil {
			go func() {
				for envelope := range outbound {
					_ = conn.WriteJSON(envelope)
				}
			}()
		}

		seen := 0
		for {
			var envelope Envelope
			if err := conn.ReadJSON(&envelope); err != nil {
				return
			}
			seen++
			if envelope.Type == "ping" {
				_ = conn.WriteJSON(Envelope{Type: "pong", Data: envelope.Data})
			}
			if dropAfter > 0 && seen >= dropAfter {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestConnectIsIdempotent(t *testing.T) {
	var dials atomic.Int32
	server := gatewayServer(t, &dials, 0, nil)

	gateway := NewGateway(wsURL(server), "token", GatewayOptions{
		HeartbeatInterval: time.Hour,
	})
	defer gateway.Close()

	gateway.Connect()
	gateway.Connect()
	gateway.Connect()

	require.Eventually(t, func() bool {
		return gateway.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), dials.Load())
}

func TestHeartbeatKeepsConnectionAlive(t *testing.T) {
	var dials atomic.Int32
	server := gatewayServer(t, &dials, 0, nil)

	gateway := NewGateway(wsURL(server), "token", GatewayOptions{
		HeartbeatInterval: 30 * time.Millisecond,
	})
	defer gateway.Close()

	gateway.Connect()
	require.Eventually(t, func() bool {
		return gateway.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	// Several heartbeat cycles pass; the answered pings keep us connected.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateConnected, gateway.State())
	assert.Equal(t, int32(1), dials.Load())
}

func TestReconnectAfterTransportFailure(t *testing.T) {
	var dials atomic.Int32
	server := gatewayServer(t, &dials, 1, nil)

	gateway := NewGateway(wsURL(server), "token", GatewayOptions{
		HeartbeatInterval:  20 * time.Millisecond,
		ReconnectBaseDelay: 10 * time.Millisecond,
	})
	defer gateway.Close()

	gateway.Connect()
	require.Eventually(t, func() bool {
		return gateway.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	// The first heartbeat ping makes the server drop the connection; the
	// client must dial again and come back up.
	require.Eventually(t, func() bool {
		return dials.Load() >= 2 && gateway.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconnectExhaustionIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	terminal := make(chan error, 1)
	gateway := NewGateway(wsURL(server), "token", GatewayOptions{
		ReconnectBaseDelay:   5 * time.Millisecond,
		MaxReconnectAttempts: 2,
		OnDisconnect: func(err error) {
			terminal <- err
		},
	})
	gateway.Connect()

	select {
	case err := <-terminal:
		require.ErrorIs(t, err, ErrReconnectExhausted)
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal disconnect")
	}
	assert.Equal(t, StateDisconnected, gateway.State())
}

func TestEnvelopesDeliveredToSubscriber(t *testing.T) {
	var dials atomic.Int32
	outbound := make(chan Envelope, 1)
	server := gatewayServer(t, &dials, 0, outbound)

	received := make(chan Envelope, 1)
	gateway := NewGateway(wsURL(server), "token", GatewayOptions{
		HeartbeatInterval: time.Hour,
		OnEnvelope: func(envelope Envelope) {
			received <- envelope
		},
	})
	defer gateway.Close()

	gateway.Connect()
	require.Eventually(t, func() bool {
		return gateway.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	payload, _ := json.Marshal(map[string]interface{}{"target_user_id": "alice", "is_typing": true})
	outbound <- Envelope{Type: "typing", Data: payload}

	select {
	case envelope := <-received:
		assert.Equal(t, "typing", envelope.Type)
		assert.JSONEq(t, string(payload), string(envelope.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("envelope not delivered")
	}
}

func TestSendIsSafeAlongsideHeartbeat(t *testing.T) {
	var dials atomic.Int32
	server := gatewayServer(t, &dials, 0, nil)

	gateway := NewGateway(wsURL(server), "token", GatewayOptions{
		HeartbeatInterval: time.Millisecond,
	})
	defer gateway.Close()

	gateway.Connect()
	require.Eventually(t, func() bool {
		return gateway.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	// Application sends race against heartbeat ticks; both must funnel
	// through the serialized writer without corrupting frames.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		_ = gateway.Send("typing", map[string]interface{}{"target_user_id": "bob", "is_typing": true})
	}

	assert.Equal(t, StateConnected, gateway.State())
	assert.Equal(t, int32(1), dials.Load())
}

func TestSendWhileDisconnectedFails(t *testing.T) {
	gateway := NewGateway("ws://127.0.0.1:0/ws", "token", GatewayOptions{})
	err := gateway.Send("typing", map[string]string{"target_user_id": "bob"})
	require.Error(t, err)
}
