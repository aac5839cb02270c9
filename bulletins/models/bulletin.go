package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Workflow statuses.
const (
	StatusHumanCreated   = "Human Created"
	StatusMachineCreated = "Machine Created"
	StatusUpdated        = "Updated"
	StatusPeerReviewed   = "Peer Reviewed"
	StatusFinalized      = "Finalized"
	StatusSeniorReviewed = "Senior Reviewed"
	StatusAssigned       = "Assigned"
	StatusReviewPending  = "Peer Review Assigned"
)

// Bulletin is one documented item: a report, media file or document
// describing a violation.
type Bulletin struct {
	ID                  int64          `json:"id" db:"id"`
	Title               string         `json:"title" db:"title"`
	TitleAr             string         `json:"title_ar" db:"title_ar"`
	SjacTitle           string         `json:"sjac_title" db:"sjac_title"`
	SjacTitleAr         string         `json:"sjac_title_ar" db:"sjac_title_ar"`
	Description         string         `json:"description" db:"description"`
	SourceLink          string         `json:"source_link" db:"source_link"`
	Originid            string         `json:"originid" db:"originid"`
	PublishDate         *time.Time     `json:"publish_date" db:"publish_date"`
	DocumentationDate   *time.Time     `json:"documentation_date" db:"documentation_date"`
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

// CreateBulletinRequest is the body of POST /api/bulletins.
type CreateBulletinRequest struct {
	Title             string   `json:"title"`
	TitleAr           string   `json:"title_ar"`
	SjacTitle         string   `json:"sjac_title"`
	SjacTitleAr       string   `json:"sjac_title_ar"`
	Description       string   `json:"description"`
	SourceLink        string   `json:"source_link"`
	Originid          string   `json:"originid"`
	PublishDate       string   `json:"publish_date"`
	DocumentationDate string   `json:"documentation_date"`
	Comments          string   `json:"comments"`
	Tags              []string `json:"tags"`
}

// UpdateBulletinRequest is the body of PUT /api/bulletins/:id.
type UpdateBulletinRequest struct {
	CreateBulletinRequest
}

// ReviewRequest is the body of PUT /api/bulletins/:id/review.
type ReviewRequest struct {
	Review       string `json:"review"`
	ReviewAction string `json:"review_action"`
}

// BulkUpdateRequest is the body of PUT /api/bulletins/bulk.
type BulkUpdateRequest struct {
	Items []int64         `json:"items"`
	Bulk  json.RawMessage `json:"bulk"`
}

// BulkUpdateResponse carries the enqueued background-job id.
type BulkUpdateResponse struct {
	JobID string `json:"job_id"`
}

// Revision is one history snapshot of a bulletin.
type Revision struct {
	ID         int64           `json:"id" db:"id"`
	BulletinID int64           `json:"bulletin_id" db:"bulletin_id"`
	Data       json.RawMessage `json:"data" db:"data"`
	UserID     int64           `json:"user_id" db:"user_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
