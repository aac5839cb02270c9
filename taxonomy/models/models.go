package models

import "time"

// Label is one node of the label hierarchy. Labels double as verified
// labels; verification is a property of the tagging, not of the label.
type Label struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	TitleAr     string    `json:"title_ar" db:"title_ar"`
	ParentID    *int64    `json:"parent_id" db:"parent_id"`
	Verified    bool      `json:"verified" db:"verified"`
	ForBulletin bool      `json:"for_bulletin" db:"for_bulletin"`
	ForActor    bool      `json:"for_actor" db:"for_actor"`
	ForIncident bool      `json:"for_incident" db:"for_incident"`
	ForOffline  bool      `json:"for_offline" db:"for_offline"`
	Order       int       `json:"order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Source is one node of the source hierarchy.
type Source struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	TitleAr   string    `json:"title_ar" db:"title_ar"`
	ParentID  *int64    `json:"parent_id" db:"parent_id"`
	Comments  string    `json:"comments" db:"comments"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Eventtype categorises events attached to bulletins and actors.
type Eventtype struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	TitleAr     string `json:"title_ar" db:"title_ar"`
	ForBulletin bool   `json:"for_bulletin" db:"for_bulletin"`
	ForActor    bool   `json:"for_actor" db:"for_actor"`
	Comments    string `json:"comments" db:"comments"`
}
