package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"paircall-service/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `id, email, username, display_name, hashed_password, age, gender, country, bio,
    profile_image_url, preferred_gender, preferred_age_min, preferred_age_max, is_profile_public,
    allow_random_calls, gems, status, role, is_active, is_verified, last_seen, created_at, updated_at`

// UserRepository defines interactions for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByIDs(ctx context.Context, userIDs []string) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID string, update models.UserUpdate) (models.User, error)
	UpdateStatus(ctx context.Context, userID string, status string) error
	UpdatePassword(ctx context.Context, userID string, hashedPassword string) error
	Deactivate(ctx context.Context, userID string) error
	Search(ctx context.Context, search models.UserSearch) ([]models.User, error)
}

// UserRepo is a sqlx-backed repository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user row. The id is generated here.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	user.ID = uuid.NewString()
	query := `INSERT INTO users (id, email, username, display_name, hashed_password, age, gender, country,
            bio, profile_image_url, preferred_gender, preferred_age_min, preferred_age_max,
            is_profile_public, allow_random_calls, status, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        RETURNING ` + userColumns
	var created models.User
	err := r.db.GetContext(ctx, &created, query,
		user.ID, user.Email, user.Username, user.DisplayName, user.HashedPassword, user.Age,
		user.Gender, user.Country, user.Bio, user.ProfileImageURL, user.PreferredGender,
		user.PreferredAgeMin, user.PreferredAgeMax, user.IsProfilePublic, user.AllowRandomCalls,
		models.StatusOffline, "user")
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return created, nil
}

// GetByID retrieves a single user.
func (r *UserRepo) GetByID(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByIDs bulk-loads users; missing ids are silently skipped.
func (r *UserRepo) GetByIDs(ctx context.Context, userIDs []string) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(userIDs))
	return users, err
}

// UpdateProfile applies the non-nil fields of update and returns the new row.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, update models.UserUpdate) (models.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{userID}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.DisplayName != nil {
		addSet("display_name", *update.DisplayName)
	}
	if update.Bio != nil {
		addSet("bio", *update.Bio)
	}
	if update.ProfileImageURL != nil {
		addSet("profile_image_url", *update.ProfileImageURL)
	}
	if update.PreferredGender != nil {
		addSet("preferred_gender", *update.PreferredGender)
	}
	if update.PreferredAgeMin != nil {
		addSet("preferred_age_min", *update.PreferredAgeMin)
	}
	if update.PreferredAgeMax != nil {
		addSet("preferred_age_max", *update.PreferredAgeMax)
	}
	if update.IsProfilePublic != nil {
		addSet("is_profile_public", *update.IsProfilePublic)
	}
	if update.AllowRandomCalls != nil {
		addSet("allow_random_calls", *update.AllowRandomCalls)
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id=$1 RETURNING ` + userColumns
	var user models.User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateStatus sets the presence status column and refreshes last_seen.
func (r *UserRepo) UpdateStatus(ctx context.Context, userID string, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET status=$2, last_seen=$3, updated_at=NOW() WHERE id=$1`,
		userID, status, time.Now().UTC())
	return err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID string, hashedPassword string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET hashed_password=$2, updated_at=NOW() WHERE id=$1`, userID, hashedPassword)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Deactivate soft-deletes the account; the row stays for existing references.
func (r *UserRepo) Deactivate(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active=FALSE, status=$2, updated_at=NOW() WHERE id=$1`,
		userID, models.StatusOffline)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Search returns public, active profiles matching the filters.
func (r *UserRepo) Search(ctx context.Context, search models.UserSearch) ([]models.User, error) {
	where := []string{"is_active = TRUE", "is_profile_public = TRUE"}
	args := []interface{}{}

	addWhere := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if search.Gender != "" {
		addWhere("gender = $%d", search.Gender)
	}
	if search.Country != "" {
		addWhere("country = $%d", search.Country)
	}
	if search.AgeMin > 0 {
		addWhere("age >= $%d", search.AgeMin)
	}
	if search.AgeMax > 0 {
		addWhere("age <= $%d", search.AgeMax)
	}
	if search.Query != "" {
		addWhere("(username ILIKE $%d OR display_name ILIKE $%[1]d)", "%"+search.Query+"%")
	}

	limit := search.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, search.Offset)

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}
