package models

import (
	"time"

	"github.com/lib/pq"
)

// Location is one node of the location hierarchy. The id_tree column is the
// materialised ancestor path, bracketed root to leaf, and full_location is
// the materialised ancestor title chain. Both are recomputed on every save.
type Location struct {
	ID           int64          `json:"id" db:"id"`
	Title        string         `json:"title" db:"title"`
	TitleAr      string         `json:"title_ar" db:"title_ar"`
	Description  string         `json:"description" db:"description"`
	ParentID     *int64         `json:"parent_id" db:"parent_id"`
	AdminLevel   *int           `json:"admin_level" db:"admin_level"`
	LocationType string         `json:"location_type" db:"location_type"`
	Country      string         `json:"country" db:"country"`
	Lat          *float64       `json:"lat" db:"lat"`
	Lng          *float64       `json:"lng" db:"lng"`
	Tags         pq.StringArray `json:"tags" db:"tags"`
	IDTree       string         `json:"id_tree" db:"id_tree"`
	FullLocation string         `json:"full_location" db:"full_location"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateLocationRequest is the body of POST /api/locations.
type CreateLocationRequest struct {
	Title        string   `json:"title"`
	TitleAr      string   `json:"title_ar"`
	Description  string   `json:"description"`
	ParentID     *int64   `json:"parent_id"`
	AdminLevel   *int     `json:"admin_level"`
	LocationType string   `json:"location_type"`
	Country      string   `json:"country"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Tags         []string `json:"tags"`
}

// UpdateLocationRequest is the body of PUT /api/locations/:id.
type UpdateLocationRequest struct {
	CreateLocationRequest
}
