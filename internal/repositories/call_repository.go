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
	ErrCallNotFound  = errors.New("call not found")
	ErrNoActiveCall  = errors.New("no active call")
	ErrCallConflict  = errors.New("call is not in a valid state for this transition")
	ErrAlreadyInCall = errors.New("user already has a ringing or active call")
)

const callColumns = `id, caller_id, callee_id, status, started_at, ended_at, duration_seconds, created_at`

// CallRepository defines interactions for video call records.
type CallRepository interface {
	Create(ctx context.Context, callerID, calleeID string) (models.Call, error)
	GetByID(ctx context.Context, callID string) (models.Call, error)
	ListForUser(ctx context.Context, userID string, offset, limit int) ([]models.Call, error)
	ActiveForUser(ctx context.Context, userID string) (models.Call, error)
	Accept(ctx context.Context, callID string) (models.Call, error)
	Reject(ctx context.Context, callID string) (models.Call, error)
	End(ctx context.Context, callID string) (models.Call, error)
}

// CallRepo is a sqlx-backed repository.
type CallRepo struct {
	db *sqlx.DB
}

// NewCallRepo constructs CallRepo.
func NewCallRepo(db *sqlx.DB) *CallRepo {
	return &CallRepo{db: db}
}

// Create inserts a ringing call unless either party is already engaged.
func (r *CallRepo) Create(ctx context.Context, callerID, calleeID string) (models.Call, error) {
	var busy bool
	err := r.db.GetContext(ctx, &busy,
		`SELECT EXISTS (SELECT 1 FROM calls
         WHERE status IN ('ringing', 'active')
           AND (caller_id IN ($1, $2) OR callee_id IN ($1, $2)))`,
		callerID, calleeID)
	if err != nil {
		return models.Call{}, err
	}
	if busy {
		return models.Call{}, ErrAlreadyInCall
	}

	var call models.Call
	err = r.db.GetContext(ctx, &call,
		`INSERT INTO calls (id, caller_id, callee_id, status) VALUES ($1, $2, $3, $4)
         RETURNING `+callColumns,
		uuid.NewString(), callerID, calleeID, models.CallRinging)
	return call, err
}

// GetByID retrieves a single call.
func (r *CallRepo) GetByID(ctx context.Context, callID string) (models.Call, error) {
	var call models.Call
	err := r.db.GetContext(ctx, &call, `SELECT `+callColumns+` FROM calls WHERE id=$1`, callID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Call{}, ErrCallNotFound
	}
	return call, err
}

// ListForUser returns the call history for either side of the call.
func (r *CallRepo) ListForUser(ctx context.Context, userID string, offset, limit int) ([]models.Call, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var calls []models.Call
	err := r.db.SelectContext(ctx, &calls,
		`SELECT `+callColumns+` FROM calls
         WHERE caller_id=$1 OR callee_id=$1
         ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	return calls, err
}

// ActiveForUser returns the user's current ringing or active call.
func (r *CallRepo) ActiveForUser(ctx context.Context, userID string) (models.Call, error) {
	var call models.Call
	err := r.db.GetContext(ctx, &call,
		`SELECT `+callColumns+` FROM calls
         WHERE (caller_id=$1 OR callee_id=$1) AND status IN ('ringing', 'active')
         ORDER BY created_at DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Call{}, ErrNoActiveCall
	}
	return call, err
}

// Accept moves a ringing call to active and stamps started_at.
func (r *CallRepo) Accept(ctx context.Context, callID string) (models.Call, error) {
	var call models.Call
	err := r.db.GetContext(ctx, &call,
		`UPDATE calls SET status=$2, started_at=NOW()
         WHERE id=$1 AND status=$3
         RETURNING `+callColumns,
		callID, models.CallActive, models.CallRinging)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Call{}, ErrCallConflict
	}
	return call, err
}

// Reject moves a ringing call to rejected.
func (r *CallRepo) Reject(ctx context.Context, callID string) (models.Call, error) {
	var call models.Call
	err := r.db.GetContext(ctx, &call,
		`UPDATE calls SET status=$2, ended_at=NOW()
         WHERE id=$1 AND status=$3
         RETURNING `+callColumns,
		callID, models.CallRejected, models.CallRinging)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Call{}, ErrCallConflict
	}
	return call, err
}

// End finishes a ringing or active call. An unanswered call ends as missed;
// an active one computes the duration from started_at.
func (r *CallRepo) End(ctx context.Context, callID string) (models.Call, error) {
	var call models.Call
	err := r.db.GetContext(ctx, &call,
		`UPDATE calls SET
            status = CASE WHEN status='active' THEN 'ended' ELSE 'missed' END,
            ended_at = NOW(),
            duration_seconds = CASE WHEN started_at IS NULL THEN 0
                ELSE GREATEST(0, EXTRACT(EPOCH FROM (NOW() - started_at))::INT) END
         WHERE id=$1 AND status IN ('ringing', 'active')
         RETURNING `+callColumns,
		callID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Call{}, ErrCallConflict
	}
	return call, err
}
