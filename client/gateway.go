// Package client is the Go SDK for the paircall backend: a realtime
// gateway connection with automatic reconnect, and a REST client that
// refreshes expired access tokens transparently.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State is the gateway connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Envelope is the {type, data} wrapper used on the realtime channel.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrReconnectExhausted is delivered to the disconnect handler when every
// reconnect attempt has failed.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

const (
	defaultHeartbeatInterval    = 30 * time.Second
	defaultReconnectBaseDelay   = time.Second
	defaultMaxReconnectAttempts = 5
)

// GatewayOptions tune the connection behavior. Zero values fall back to
// the defaults above.
type GatewayOptions struct {
	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	MaxReconnectAttempts int

	// OnEnvelope receives every non-control envelope.
	OnEnvelope func(Envelope)
	// OnStateChange observes every state transition.
	OnStateChange func(State)
	// OnDisconnect fires when the connection is terminally lost: either
	// Close was called or reconnecting gave up (ErrReconnectExhausted).
	OnDisconnect func(error)
}

// Gateway maintains one realtime connection to the backend.
type Gateway struct {
	url  string
	opts GatewayOptions

	// writeMu serializes writes; gorilla connections allow at most one
	// concurrent writer.
	writeMu sync.Mutex

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	attempt        int
	reconnectTimer *time.Timer
	closed         bool
	awaitingPong   bool
	heartbeatStop  chan struct{}
	generation     int
}

// NewGateway prepares a client for the given websocket URL. The access
// token travels in the query string, matching the server's handshake.
func NewGateway(wsURL, token string, opts GatewayOptions) *Gateway {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	if opts.ReconnectBaseDelay <= 0 {
		opts.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	return &Gateway{
		url:   fmt.Sprintf("%s?token=%s", wsURL, token),
		opts:  opts,
		state: StateDisconnected,
	}
}

// State returns the current connection state.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Connect starts the connection. It is an idempotent no-op while a
// connection attempt is in flight or the connection is up.
func (g *Gateway) Connect() {
	g.mu.Lock()
	if g.state != StateDisconnected || g.closed {
		g.mu.Unlock()
		return
	}
	g.setStateLocked(StateConnecting)
	g.mu.Unlock()

	go g.dial()
}

// Close tears the connection down for good; no reconnect follows.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.stopTimerLocked()
	conn := g.conn
	g.conn = nil
	g.stopHeartbeatLocked()
	g.setStateLocked(StateDisconnected)
	g.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if g.opts.OnDisconnect != nil {
		g.opts.OnDisconnect(nil)
	}
}

// Send marshals and writes an envelope.
func (g *Gateway) Send(envelopeType string, data interface{}) error {
	g.mu.Lock()
	conn := g.conn
	state := g.state
	g.mu.Unlock()

	if state != StateConnected || conn == nil {
		return fmt.Errorf("not connected (state %s)", state)
	}

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = payload
	}
	return g.writeEnvelope(conn, Envelope{Type: envelopeType, Data: raw})
}

func (g *Gateway) writeEnvelope(conn *websocket.Conn, envelope Envelope) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return conn.WriteJSON(envelope)
}

func (g *Gateway) dial() {
	conn, _, err := websocket.DefaultDialer.Dial(g.url, nil)
	if err != nil {
		g.handleFailure(err)
		return
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		conn.Close()
		return
	}
	g.conn = conn
	g.generation++
	generation := g.generation
	g.mu.Unlock()

	go g.readLoop(conn, generation)
}

// readLoop consumes envelopes until the transport fails. The connected
// state is entered only after the server's connection_established.
func (g *Gateway) readLoop(conn *websocket.Conn, generation int) {
	for {
		var envelope Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			g.mu.Lock()
			stale := g.generation != generation || g.closed
			g.mu.Unlock()
			if stale {
				return
			}
			g.handleFailure(err)
			return
		}

		switch envelope.Type {
		case "connection_established":
			g.mu.Lock()
			g.attempt = 0
			g.setStateLocked(StateConnected)
			g.startHeartbeatLocked(generation)
			g.mu.Unlock()

		case "pong":
			g.mu.Lock()
			g.awaitingPong = false
			g.mu.Unlock()

		case "error":
			var data struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(envelope.Data, &data)
			log.Printf("gateway error envelope: %s", data.Message)

		default:
			if g.opts.OnEnvelope != nil {
				g.opts.OnEnvelope(envelope)
			}
		}
	}
}

// startHeartbeatLocked pings on the heartbeat interval. A ping that goes
// unanswered by the next tick counts as a dead transport.
func (g *Gateway) startHeartbeatLocked(generation int) {
	g.stopHeartbeatLocked()
	stop := make(chan struct{})
	g.heartbeatStop = stop
	g.awaitingPong = false

	go func() {
		ticker := time.NewTicker(g.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				g.mu.Lock()
				if g.generation != generation || g.state != StateConnected {
					g.mu.Unlock()
					return
				}
				missed := g.awaitingPong
				conn := g.conn
				g.awaitingPong = true
				g.mu.Unlock()

				if missed {
					g.handleFailure(errors.New("heartbeat pong missed"))
					return
				}
				payload, _ := json.Marshal(map[string]int64{"timestamp": time.Now().UnixMilli()})
				if err := g.writeEnvelope(conn, Envelope{Type: "ping", Data: payload}); err != nil {
					g.handleFailure(err)
					return
				}
			}
		}
	}()
}

func (g *Gateway) stopHeartbeatLocked() {
	if g.heartbeatStop != nil {
		close(g.heartbeatStop)
		g.heartbeatStop = nil
	}
}

// handleFailure closes the transport and schedules a single reconnect
// timer with linear backoff, or gives up after the attempt budget.
func (g *Gateway) handleFailure(err error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
	g.stopHeartbeatLocked()

	if g.attempt >= g.opts.MaxReconnectAttempts {
		g.stopTimerLocked()
		g.setStateLocked(StateDisconnected)
		g.mu.Unlock()

		log.Printf("gateway giving up after %d attempts: %v", g.opts.MaxReconnectAttempts, err)
		if g.opts.OnDisconnect != nil {
			g.opts.OnDisconnect(ErrReconnectExhausted)
		}
		return
	}

	if g.reconnectTimer != nil {
		// A reconnect is already pending.
		g.mu.Unlock()
		return
	}

	g.attempt++
	delay := time.Duration(g.attempt) * g.opts.ReconnectBaseDelay
	g.setStateLocked(StateReconnecting)
	g.reconnectTimer = time.AfterFunc(delay, func() {
		g.mu.Lock()
		g.reconnectTimer = nil
		if g.closed {
			g.mu.Unlock()
			return
		}
		g.setStateLocked(StateConnecting)
		g.mu.Unlock()
		g.dial()
	})
	g.mu.Unlock()
}

func (g *Gateway) stopTimerLocked() {
	if g.reconnectTimer != nil {
		g.reconnectTimer.Stop()
		g.reconnectTimer = nil
	}
}

func (g *Gateway) setStateLocked(state State) {
	if g.state == state {
		return
	}
	g.state = state
	if g.opts.OnStateChange != nil {
		go g.opts.OnStateChange(state)
	}
}
