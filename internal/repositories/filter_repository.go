package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"paircall-service/internal/models"
)

var (
	ErrFilterNotFound  = errors.New("filter not found")
	ErrFilterNameTaken = errors.New("filter with this name already exists")
	ErrFilterLimit     = errors.New("maximum number of filters reached")
	ErrNoActiveFilter  = errors.New("no active filter")
)

// maxFiltersPerUser caps saved filters per account.
const maxFiltersPerUser = 10

const filterColumns = `id, user_id, name, age_min, age_max, genders, countries,
    only_online, only_verified, is_active, created_at, updated_at`

// FilterRepository defines interactions for saved match filters.
type FilterRepository interface {
	Create(ctx context.Context, filter models.Filter) (models.Filter, error)
	GetByID(ctx context.Context, filterID string) (models.Filter, error)
	ListForUser(ctx context.Context, userID string) ([]models.Filter, error)
	Update(ctx context.Context, filterID string, update models.FilterUpdate) (models.Filter, error)
	Delete(ctx context.Context, filterID string) error
	ActiveForUser(ctx context.Context, userID string) (models.Filter, error)
	Activate(ctx context.Context, userID, filterID string) (models.Filter, error)
	Apply(ctx context.Context, filter models.Filter, limit int) ([]models.User, error)
}

// FilterRepo is a sqlx-backed repository.
type FilterRepo struct {
	db *sqlx.DB
}

// NewFilterRepo constructs FilterRepo.
func NewFilterRepo(db *sqlx.DB) *FilterRepo {
	return &FilterRepo{db: db}
}

// Create inserts a filter, enforcing the per-user cap and unique names.
func (r *FilterRepo) Create(ctx context.Context, filter models.Filter) (models.Filter, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM filters WHERE user_id=$1`, filter.UserID); err != nil {
		return models.Filter{}, err
	}
	if count >= maxFiltersPerUser {
		return models.Filter{}, ErrFilterLimit
	}

	var created models.Filter
	err := r.db.GetContext(ctx, &created,
		`INSERT INTO filters (id, user_id, name, age_min, age_max, genders, countries, only_online, only_verified)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING `+filterColumns,
		uuid.NewString(), filter.UserID, filter.Name, filter.AgeMin, filter.AgeMax,
		filter.Genders, filter.Countries, filter.OnlyOnline, filter.OnlyVerified)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Filter{}, ErrFilterNameTaken
		}
		return models.Filter{}, err
	}
	return created, nil
}

// GetByID retrieves a single filter.
func (r *FilterRepo) GetByID(ctx context.Context, filterID string) (models.Filter, error) {
	var filter models.Filter
	err := r.db.GetContext(ctx, &filter, `SELECT `+filterColumns+` FROM filters WHERE id=$1`, filterID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Filter{}, ErrFilterNotFound
	}
	return filter, err
}

// ListForUser returns every filter the user saved.
func (r *FilterRepo) ListForUser(ctx context.Context, userID string) ([]models.Filter, error) {
	var filters []models.Filter
	err := r.db.SelectContext(ctx, &filters,
		`SELECT `+filterColumns+` FROM filters WHERE user_id=$1 ORDER BY created_at`, userID)
	return filters, err
}

// Update applies the non-nil fields of update and returns the new row.
func (r *FilterRepo) Update(ctx context.Context, filterID string, update models.FilterUpdate) (models.Filter, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{filterID}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		addSet("name", *update.Name)
	}
	if update.AgeMin != nil {
		addSet("age_min", *update.AgeMin)
	}
	if update.AgeMax != nil {
		addSet("age_max", *update.AgeMax)
	}
	if update.Genders != nil {
		addSet("genders", pq.StringArray(*update.Genders))
	}
	if update.Countries != nil {
		addSet("countries", pq.StringArray(*update.Countries))
	}
	if update.OnlyOnline != nil {
		addSet("only_online", *update.OnlyOnline)
	}
	if update.OnlyVerified != nil {
		addSet("only_verified", *update.OnlyVerified)
	}

	query := `UPDATE filters SET ` + strings.Join(sets, ", ") + ` WHERE id=$1 RETURNING ` + filterColumns
	var filter models.Filter
	err := r.db.GetContext(ctx, &filter, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Filter{}, ErrFilterNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Filter{}, ErrFilterNameTaken
		}
	}
	return filter, err
}

// Delete removes the filter row.
func (r *FilterRepo) Delete(ctx context.Context, filterID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM filters WHERE id=$1`, filterID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrFilterNotFound
	}
	return nil
}

// ActiveForUser returns the user's single active filter.
func (r *FilterRepo) ActiveForUser(ctx context.Context, userID string) (models.Filter, error) {
	var filter models.Filter
	err := r.db.GetContext(ctx, &filter,
		`SELECT `+filterColumns+` FROM filters WHERE user_id=$1 AND is_active=TRUE
         ORDER BY updated_at DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Filter{}, ErrNoActiveFilter
	}
	return filter, err
}

// Activate marks one filter active and deactivates the user's others in the
// same transaction.
func (r *FilterRepo) Activate(ctx context.Context, userID, filterID string) (models.Filter, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Filter{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE filters SET is_active=FALSE, updated_at=NOW() WHERE user_id=$1 AND id<>$2`,
		userID, filterID); err != nil {
		return models.Filter{}, err
	}

	var filter models.Filter
	err = tx.GetContext(ctx, &filter,
		`UPDATE filters SET is_active=TRUE, updated_at=NOW() WHERE id=$1 AND user_id=$2
         RETURNING `+filterColumns, filterID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Filter{}, ErrFilterNotFound
	}
	if err != nil {
		return models.Filter{}, err
	}

	return filter, tx.Commit()
}

// Apply returns active public profiles matching the filter criteria. The
// only_online overlay comes from presence, not from this query.
func (r *FilterRepo) Apply(ctx context.Context, filter models.Filter, limit int) ([]models.User, error) {
	where := []string{"is_active = TRUE", "is_profile_public = TRUE"}
	args := []interface{}{}

	addWhere := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	addWhere("id <> $%d", filter.UserID)
	if filter.AgeMin != nil {
		addWhere("age >= $%d", *filter.AgeMin)
	}
	if filter.AgeMax != nil {
		addWhere("age <= $%d", *filter.AgeMax)
	}
	if len(filter.Genders) > 0 {
		addWhere("gender = ANY($%d)", filter.Genders)
	}
	if len(filter.Countries) > 0 {
		addWhere("country = ANY($%d)", filter.Countries)
	}
	if filter.OnlyVerified {
		where = append(where, "is_verified = TRUE")
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY last_seen DESC NULLS LAST LIMIT $%d`,
		userColumns, strings.Join(where, " AND "), len(args))

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}
