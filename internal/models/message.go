package models

import "time"

// ChatMessage is a persisted direct message between two users.
type ChatMessage struct {
	ID         string     `db:"id" json:"id"`
	SenderID   string     `db:"sender_id" json:"sender_id"`
	ReceiverID string     `db:"receiver_id" json:"receiver_id"`
	Content    string     `db:"content" json:"content"`
	IsRead     bool       `db:"is_read" json:"is_read"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ChatSummary describes one conversation in the chat list.
type ChatSummary struct {
	PeerID          string       `json:"peer_id"`
	PeerUsername    string       `json:"peer_username"`
	PeerDisplayName string       `json:"peer_display_name"`
	LastMessage     *ChatMessage `json:"last_message,omitempty"`
	UnreadCount     int          `json:"unread_count"`
}
