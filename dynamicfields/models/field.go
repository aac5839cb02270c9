package models

import (
	"encoding/json"
	"time"
)

// Field types supported by the registry. The compiler understands the same
// set; anything else is rejected at save time.
const (
	TypeText     = "text"
	TypeLongText = "long_text"
	TypeNumber   = "number"
	TypeDatetime = "datetime"
	TypeSelect   = "select"
)

// EntityTypes the registry can extend.
var EntityTypes = map[string]string{
	"bulletin": "bulletins",
	"actor":    "actors",
	"incident": "incidents",
}

// DynamicField is one user-defined column on an entity table. The name is
// system-generated and immutable; it doubles as the live column name, so it
// must stay within the safe identifier charset.
type DynamicField struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Title        string          `json:"title" db:"title"`
	EntityType   string          `json:"entity_type" db:"entity_type"`
	FieldType    string          `json:"field_type" db:"field_type"`
	SchemaConfig json.RawMessage `json:"schema_config" db:"schema_config"`
	UIConfig     json.RawMessage `json:"ui_config" db:"ui_config"`
	Options      Options         `json:"options" db:"options"`
	Searchable   bool            `json:"searchable" db:"searchable"`
	Active       bool            `json:"active" db:"active"`
	Deleted      bool            `json:"deleted" db:"deleted"`
	Core         bool            `json:"core" db:"core"`
	SortOrder    int             `json:"sort_order" db:"sort_order"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// SchemaConfig is the decoded shape of the schema_config document.
type SchemaConfig struct {
	Required  bool     `json:"required,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// Option is one choice of a select field. IDs are assigned once and stay
// stable across edits so stored row values keep their meaning.
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Options serialises as a JSONB document.
type Options []Option

// CreateFieldInput is one create entry of the bulk-save envelope. The name
// is generated server-side and any client-supplied value is ignored.
type CreateFieldInput struct {
	Title        string          `json:"title"`
	FieldType    string          `json:"field_type"`
	SchemaConfig json.RawMessage `json:"schema_config"`
	UIConfig     json.RawMessage `json:"ui_config"`
	Options      Options         `json:"options"`
	Searchable   bool            `json:"searchable"`
	Active       bool            `json:"active"`
	SortOrder    int             `json:"sort_order"`
}

// UpdateFieldInput is one update entry of the bulk-save envelope.
type UpdateFieldInput struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	FieldType    string          `json:"field_type,omitempty"`
	Name         string          `json:"name,omitempty"`
	SchemaConfig json.RawMessage `json:"schema_config"`
	UIConfig     json.RawMessage `json:"ui_config"`
	Options      Options         `json:"options"`
	Searchable   bool            `json:"searchable"`
	Active       bool            `json:"active"`
	SortOrder    int             `json:"sort_order"`
}

// BulkSaveRequest is the body of POST /api/dynamic-fields/bulk-save. All
// changes commit or roll back together.
type BulkSaveRequest struct {
	EntityType string `json:"entity_type"`
	Changes    struct {
		Create []CreateFieldInput `json:"create"`
		Update []UpdateFieldInput `json:"update"`
		Delete []int64            `json:"delete"`
	} `json:"changes"`
}

// ListFilter is decoded from the listing endpoint's query string.
type ListFilter struct {
	EntityType string `schema:"entity_type"`
	FieldType  string `schema:"field_type"`
	Active     *bool  `schema:"active"`
	Searchable *bool  `schema:"searchable"`
	Core       *bool  `schema:"core"`
	Deleted    *bool  `schema:"deleted"`
	Sort       string `schema:"sort"`
	Limit      int    `schema:"limit"`
	Offset     int    `schema:"offset"`
}

// FormSnapshot is one history row: the full field set of an entity type as
// it stood after a successful bulk commit.
type FormSnapshot struct {
	ID         int64           `json:"id" db:"id"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	Fields     json.RawMessage `json:"fields" db:"fields"`
	UserID     int64           `json:"user_id" db:"user_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
