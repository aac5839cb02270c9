package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Incident is one event entity grouping bulletins and actors.
type Incident struct {
	ID                  int64          `json:"id" db:"id"`
	Title               string         `json:"title" db:"title"`
	TitleAr             string         `json:"title_ar" db:"title_ar"`
	Description         string         `json:"description" db:"description"`
	Status              string         `json:"status" db:"status"`
	Comments            string         `json:"comments" db:"comments"`
	Review              string         `json:"review" db:"review"`
	ReviewAction        string         `json:"review_action" db:"review_action"`
	AssignedToID        *int64         `json:"assigned_to_id" db:"assigned_to_id"`
	FirstPeerReviewerID *int64         `json:"first_peer_reviewer_id" db:"first_peer_reviewer_id"`
	Tags                pq.StringArray `json:"tags" db:"tags"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`

	// RoleIDs is the access-group projection used for serialisation-time
	// access checks. Never rendered to clients.
	RoleIDs pq.Int64Array `json:"-" db:"role_ids"`
}

// CreateIncidentRequest is the body of POST /api/incidents.
type CreateIncidentRequest struct {
	Title       string   `json:"title"`
	TitleAr     string   `json:"title_ar"`
	Description string   `json:"description"`
	Comments    string   `json:"comments"`
	Tags        []string `json:"tags"`
}

// UpdateIncidentRequest is the body of PUT /api/incidents/:id.
type UpdateIncidentRequest struct {
	CreateIncidentRequest
}

// ReviewRequest is the body of PUT /api/incidents/:id/review.
type ReviewRequest struct {
	Review       string `json:"review"`
	ReviewAction string `json:"review_action"`
}

// BulkUpdateRequest is the body of PUT /api/incidents/bulk.
type BulkUpdateRequest struct {
	Items []int64         `json:"items"`
	Bulk  json.RawMessage `json:"bulk"`
}

// BulkUpdateResponse carries the enqueued background-job id.
type BulkUpdateResponse struct {
	JobID string `json:"job_id"`
}

// Revision is one history snapshot of an incident.
type Revision struct {
	ID         int64           `json:"id" db:"id"`
	IncidentID int64           `json:"incident_id" db:"incident_id"`
	Data       json.RawMessage `json:"data" db:"data"`
	UserID     int64           `json:"user_id" db:"user_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
