package ws

import (
	"time"

	"github.com/google/uuid"
)

// ConnInfo carries per-connection identity echoed into lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	return uuid.NewString()
}
