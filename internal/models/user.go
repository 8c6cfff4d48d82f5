package models

import "time"

// User statuses tracked in the users table and mirrored in presence.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusBusy    = "busy"
	StatusAway    = "away"
)

// User is a registered account with profile and preference fields.
type User struct {
	ID               string     `db:"id" json:"id"`
	Email            string     `db:"email" json:"email"`
	Username         string     `db:"username" json:"username"`
	DisplayName      string     `db:"display_name" json:"display_name"`
	HashedPassword   string     `db:"hashed_password" json:"-"`
	Age              int        `db:"age" json:"age"`
	Gender           string     `db:"gender" json:"gender"`
	Country          string     `db:"country" json:"country"`
	Bio              string     `db:"bio" json:"bio,omitempty"`
	ProfileImageURL  string     `db:"profile_image_url" json:"profile_image_url,omitempty"`
	PreferredGender  string     `db:"preferred_gender" json:"preferred_gender,omitempty"`
	PreferredAgeMin  int        `db:"preferred_age_min" json:"preferred_age_min"`
	PreferredAgeMax  int        `db:"preferred_age_max" json:"preferred_age_max"`
	IsProfilePublic  bool       `db:"is_profile_public" json:"is_profile_public"`
	AllowRandomCalls bool       `db:"allow_random_calls" json:"allow_random_calls"`
	Gems             int64      `db:"gems" json:"gems"`
	Status           string     `db:"status" json:"status"`
	Role             string     `db:"role" json:"role"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	IsVerified       bool       `db:"is_verified" json:"is_verified"`
	LastSeen         *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// PublicProfile strips fields the owner should not leak to other users.
func (u User) PublicProfile() User {
	u.Email = ""
	u.Gems = 0
	return u
}

// UserUpdate carries the profile fields a user may change on PUT /users/me.
type UserUpdate struct {
	DisplayName      *string `json:"display_name"`
	Bio              *string `json:"bio"`
	ProfileImageURL  *string `json:"profile_image_url"`
	PreferredGender  *string `json:"preferred_gender"`
	PreferredAgeMin  *int    `json:"preferred_age_min"`
	PreferredAgeMax  *int    `json:"preferred_age_max"`
	IsProfilePublic  *bool   `json:"is_profile_public"`
	AllowRandomCalls *bool   `json:"allow_random_calls"`
}

// UserSearch holds the filters for GET /users/search.
type UserSearch struct {
	Gender  string
	Country string
	AgeMin  int
	AgeMax  int
	Query   string
	Offset  int
	Limit   int
}
