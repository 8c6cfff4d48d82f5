package ws

import (
	"log"
	"sync"
)

// Hub maintains the set of connected clients, one per user.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a client and returns the previous connection for the same
// user, if any. A newer connection supersedes the older one; the caller is
// expected to close the superseded client.
func (h *Hub) Register(client *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	previous := h.clients[client.userID]
	h.clients[client.userID] = client
	return previous
}

// Unregister removes the client unless a newer connection already replaced it.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[client.userID]; ok && current == client {
		delete(h.clients, client.userID)
	}
}

// IsConnected reports whether the user has a registered connection.
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// SendToUser queues a raw payload for the user's connection. It reports
// whether the user was connected; a full send buffer counts as a dead
// connection and evicts the client.
func (h *Hub) SendToUser(userID string, payload []byte) bool {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		log.Printf("websocket send buffer full for user %s, dropping connection", userID)
		h.Unregister(client)
		client.closeOnce()
		return false
	}
}

// SendEnvelope marshals and queues a typed envelope for the user.
func (h *Hub) SendEnvelope(userID string, envelopeType string, data interface{}) bool {
	return h.SendToUser(userID, NewEnvelope(envelopeType, data))
}
