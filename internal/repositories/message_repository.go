package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"paircall-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, sender_id, receiver_id, content, is_read, read_at, deleted_at, created_at`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, senderID, receiverID, content string) (models.ChatMessage, error)
	GetByID(ctx context.Context, messageID string) (models.ChatMessage, error)
	ListConversation(ctx context.Context, userID, peerID string, offset, limit int) ([]models.ChatMessage, error)
	ListLatestPerPeer(ctx context.Context, userID string) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, messageID string) (models.ChatMessage, error)
	SoftDelete(ctx context.Context, messageID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	UnreadCountByPeer(ctx context.Context, userID string) (map[string]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a direct message.
func (r *MessageRepo) Create(ctx context.Context, senderID, receiverID, content string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (id, sender_id, receiver_id, content) VALUES ($1, $2, $3, $4)
         RETURNING `+messageColumns,
		uuid.NewString(), senderID, receiverID, content)
	return msg, err
}

// GetByID retrieves a single message, deleted ones included.
func (r *MessageRepo) GetByID(ctx context.Context, messageID string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// ListConversation returns the visible messages between two users,
// oldest first, paginated by offset/limit.
func (r *MessageRepo) ListConversation(ctx context.Context, userID, peerID string, offset, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
           AND deleted_at IS NULL
         ORDER BY created_at ASC
         OFFSET $3 LIMIT $4`,
		userID, peerID, offset, limit)
	return msgs, err
}

// ListLatestPerPeer returns the newest visible message of every
// conversation the user takes part in, newest conversation first.
func (r *MessageRepo) ListLatestPerPeer(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT DISTINCT ON (peer) `+messageColumns+` FROM (
            SELECT *, CASE WHEN sender_id=$1 THEN receiver_id ELSE sender_id END AS peer
            FROM messages
            WHERE (sender_id=$1 OR receiver_id=$1) AND deleted_at IS NULL
         ) m
         ORDER BY peer, created_at DESC`,
		userID)
	return msgs, err
}

// MarkRead flips is_read to true once; re-reading keeps the original read_at.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg,
		`UPDATE messages SET is_read=TRUE, read_at=COALESCE(read_at, NOW())
         WHERE id=$1
         RETURNING `+messageColumns,
		messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete hides a message from both sides.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// UnreadCount returns the number of unread visible messages addressed to the user.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages
         WHERE receiver_id=$1 AND is_read=FALSE AND deleted_at IS NULL`, userID)
	return count, err
}

// UnreadCountByPeer groups the unread count by sender.
func (r *MessageRepo) UnreadCountByPeer(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT sender_id, COUNT(*) FROM messages
         WHERE receiver_id=$1 AND is_read=FALSE AND deleted_at IS NULL
         GROUP BY sender_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var senderID string
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, err
		}
		counts[senderID] = count
	}
	return counts, rows.Err()
}
