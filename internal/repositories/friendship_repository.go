package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"paircall-service/internal/models"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipExists   = errors.New("friendship already exists")
	ErrNotPending         = errors.New("friend request is not pending")
)

const friendshipColumns = `id, user_id, friend_id, status, created_at, updated_at`

// FriendshipRepository defines interactions for friend requests.
type FriendshipRepository interface {
	Create(ctx context.Context, userID, friendID string) (models.Friendship, error)
	GetByID(ctx context.Context, friendshipID string) (models.Friendship, error)
	GetBetween(ctx context.Context, userID, friendID string) (models.Friendship, error)
	UpdateStatus(ctx context.Context, friendshipID, status string) (models.Friendship, error)
	Delete(ctx context.Context, friendshipID string) error
	ListForUser(ctx context.Context, userID, statusFilter string) ([]models.Friendship, error)
	ListSent(ctx context.Context, userID string) ([]models.Friendship, error)
	ListReceived(ctx context.Context, userID string) ([]models.Friendship, error)
	AreFriends(ctx context.Context, userID, friendID string) (bool, error)
}

// FriendshipRepo is a sqlx-backed repository.
type FriendshipRepo struct {
	db *sqlx.DB
}

// NewFriendshipRepo constructs FriendshipRepo.
func NewFriendshipRepo(db *sqlx.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

// Create inserts a pending friend request from userID to friendID.
func (r *FriendshipRepo) Create(ctx context.Context, userID, friendID string) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.GetContext(ctx, &friendship,
		`INSERT INTO friendships (id, user_id, friend_id, status) VALUES ($1, $2, $3, $4)
         RETURNING `+friendshipColumns,
		uuid.NewString(), userID, friendID, models.FriendshipPending)
	return friendship, err
}

// GetByID retrieves a single friendship.
func (r *FriendshipRepo) GetByID(ctx context.Context, friendshipID string) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.GetContext(ctx, &friendship,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id=$1`, friendshipID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	return friendship, err
}

// GetBetween finds the friendship between two users in either direction.
func (r *FriendshipRepo) GetBetween(ctx context.Context, userID, friendID string) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.GetContext(ctx, &friendship,
		`SELECT `+friendshipColumns+` FROM friendships
         WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)`,
		userID, friendID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	return friendship, err
}

// UpdateStatus moves a pending request to accepted or rejected. The guard on
// the current status keeps concurrent accept/reject calls from racing.
func (r *FriendshipRepo) UpdateStatus(ctx context.Context, friendshipID, status string) (models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.GetContext(ctx, &friendship,
		`UPDATE friendships SET status=$2, updated_at=NOW()
         WHERE id=$1 AND status=$3
         RETURNING `+friendshipColumns,
		friendshipID, status, models.FriendshipPending)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrNotPending
	}
	return friendship, err
}

// Delete removes the friendship row entirely.
func (r *FriendshipRepo) Delete(ctx context.Context, friendshipID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id=$1`, friendshipID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

// ListForUser returns friendships where the user is on either side,
// optionally filtered by status.
func (r *FriendshipRepo) ListForUser(ctx context.Context, userID, statusFilter string) ([]models.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE (user_id=$1 OR friend_id=$1)`
	args := []interface{}{userID}
	if statusFilter != "" {
		query += ` AND status=$2`
		args = append(args, statusFilter)
	}
	query += ` ORDER BY created_at DESC`

	var friendships []models.Friendship
	err := r.db.SelectContext(ctx, &friendships, query, args...)
	return friendships, err
}

// ListSent returns pending requests the user sent.
func (r *FriendshipRepo) ListSent(ctx context.Context, userID string) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := r.db.SelectContext(ctx, &friendships,
		`SELECT `+friendshipColumns+` FROM friendships WHERE user_id=$1 AND status=$2 ORDER BY created_at DESC`,
		userID, models.FriendshipPending)
	return friendships, err
}

// ListReceived returns pending requests addressed to the user.
func (r *FriendshipRepo) ListReceived(ctx context.Context, userID string) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := r.db.SelectContext(ctx, &friendships,
		`SELECT `+friendshipColumns+` FROM friendships WHERE friend_id=$1 AND status=$2 ORDER BY created_at DESC`,
		userID, models.FriendshipPending)
	return friendships, err
}

// AreFriends reports whether an accepted friendship exists between the users.
func (r *FriendshipRepo) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM friendships
         WHERE ((user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)) AND status=$3)`,
		userID, friendID, models.FriendshipAccepted)
	return exists, err
}
