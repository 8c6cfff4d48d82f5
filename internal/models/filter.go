package models

import (
	"time"

	"github.com/lib/pq"
)

// Filter is a saved set of match preferences. At most one filter per user is
// active at a time.
type Filter struct {
	ID           string         `db:"id" json:"id"`
	UserID       string         `db:"user_id" json:"user_id"`
	Name         string         `db:"name" json:"name"`
	AgeMin       *int           `db:"age_min" json:"age_min,omitempty"`
	AgeMax       *int           `db:"age_max" json:"age_max,omitempty"`
	Genders      pq.StringArray `db:"genders" json:"genders,omitempty"`
	Countries    pq.StringArray `db:"countries" json:"countries,omitempty"`
	OnlyOnline   bool           `db:"only_online" json:"only_online"`
	OnlyVerified bool           `db:"only_verified" json:"only_verified"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// FilterUpdate carries the fields a PUT may change; nil fields are kept.
type FilterUpdate struct {
	Name         *string   `json:"name"`
	AgeMin       *int      `json:"age_min"`
	AgeMax       *int      `json:"age_max"`
	Genders      *[]string `json:"genders"`
	Countries    *[]string `json:"countries"`
	OnlyOnline   *bool     `json:"only_online"`
	OnlyVerified *bool     `json:"only_verified"`
}
