package models

import (
	"encoding/json"
	"time"
)

// SavedSearch stores a user's query envelope verbatim. The envelope is not
// normalised on save; legacy facet names inside it surface as a versioning
// error when the query is replayed.
type SavedSearch struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	EntityType string          `json:"query_type" db:"entity_type"`
	Query      json.RawMessage `json:"data" db:"query"`
	UserID     int64           `json:"-" db:"user_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// SaveRequest is the body of POST /api/query and PUT /api/query/:id.
type SaveRequest struct {
	Name       string          `json:"name"`
	EntityType string          `json:"query_type"`
	Query      json.RawMessage `json:"q"`
}
