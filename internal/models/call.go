package models

import "time"

// Video call lifecycle states.
const (
	CallRinging  = "ringing"
	CallActive   = "active"
	CallEnded    = "ended"
	CallRejected = "rejected"
	CallMissed   = "missed"
)

// Call is a video call record between two users.
type Call struct {
	ID              string     `db:"id" json:"id"`
	CallerID        string     `db:"caller_id" json:"caller_id"`
	CalleeID        string     `db:"callee_id" json:"callee_id"`
	Status          string     `db:"status" json:"status"`
	StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	DurationSeconds int        `db:"duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
