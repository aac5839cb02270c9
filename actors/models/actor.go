package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Actor is one person or group entity. Text attributes are bilingual;
// documentation-mode specifics live on ActorProfile rows.
type Actor struct {
	ID                  int64           `json:"id" db:"id"`
	Name                string          `json:"name" db:"name"`
	NameAr              string          `json:"name_ar" db:"name_ar"`
	Nickname            string          `json:"nickname" db:"nickname"`
	NicknameAr          string          `json:"nickname_ar" db:"nickname_ar"`
	FirstName           string          `json:"first_name" db:"first_name"`
	FirstNameAr         string          `json:"first_name_ar" db:"first_name_ar"`
	MiddleName          string          `json:"middle_name" db:"middle_name"`
	MiddleNameAr        string          `json:"middle_name_ar" db:"middle_name_ar"`
	LastName            string          `json:"last_name" db:"last_name"`
	LastNameAr          string          `json:"last_name_ar" db:"last_name_ar"`
	FatherName          string          `json:"father_name" db:"father_name"`
	FatherNameAr        string          `json:"father_name_ar" db:"father_name_ar"`
	MotherName          string          `json:"mother_name" db:"mother_name"`
	MotherNameAr        string          `json:"mother_name_ar" db:"mother_name_ar"`
	Type                string          `json:"type" db:"type"`
	Sex                 string          `json:"sex" db:"sex"`
	Age                 *int            `json:"age" db:"age"`
	Civilian            string          `json:"civilian" db:"civilian"`
	Occupation          string          `json:"occupation" db:"occupation"`
	OccupationAr        string          `json:"occupation_ar" db:"occupation_ar"`
	Position            string          `json:"position" db:"position"`
	PositionAr          string          `json:"position_ar" db:"position_ar"`
	FamilyStatus        string          `json:"family_status" db:"family_status"`
	IDNumber            json.RawMessage `json:"id_number" db:"id_number"`
	ResidencePlaceID    *int64          `json:"residence_place_id" db:"residence_place_id"`
	OriginPlaceID       *int64          `json:"origin_place_id" db:"origin_place_id"`
	Status              string          `json:"status" db:"status"`
	Comments            string          `json:"comments" db:"comments"`
	Review              string          `json:"review" db:"review"`
	ReviewAction        string          `json:"review_action" db:"review_action"`
	AssignedToID        *int64          `json:"assigned_to_id" db:"assigned_to_id"`
	FirstPeerReviewerID *int64          `json:"first_peer_reviewer_id" db:"first_peer_reviewer_id"`
	PublishDate         *time.Time      `json:"publish_date" db:"publish_date"`
	DocumentationDate   *time.Time      `json:"documentation_date" db:"documentation_date"`
	Tags                pq.StringArray  `json:"tags" db:"tags"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`

	// RoleIDs is the access-group projection used for serialisation-time
	// access checks. Never rendered to clients.
	RoleIDs pq.Int64Array `json:"-" db:"role_ids"`
}

// Profile documentation modes.
const (
	ProfileModeProfile = 1
	ProfileModeMain    = 2
	ProfileModeMissing = 3
)

// ActorProfile is one documentation-mode record of an actor. Mode 3
// profiles carry missing-person attributes; profile text participates in
// actor free-text search.
type ActorProfile struct {
	ID          int64     `json:"id" db:"id"`
	ActorID     int64     `json:"actor_id" db:"actor_id"`
	Mode        int       `json:"mode" db:"mode"`
	Description string    `json:"description" db:"description"`
	SourceLink  string    `json:"source_link" db:"source_link"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateActorRequest is the body of POST /api/actors.
type CreateActorRequest struct {
	Name             string          `json:"name"`
	NameAr           string          `json:"name_ar"`
	Nickname         string          `json:"nickname"`
	NicknameAr       string          `json:"nickname_ar"`
	FirstName        string          `json:"first_name"`
	FirstNameAr      string          `json:"first_name_ar"`
	MiddleName       string          `json:"middle_name"`
	MiddleNameAr     string          `json:"middle_name_ar"`
	LastName         string          `json:"last_name"`
	LastNameAr       string          `json:"last_name_ar"`
	FatherName       string          `json:"father_name"`
	FatherNameAr     string          `json:"father_name_ar"`
	MotherName       string          `json:"mother_name"`
	MotherNameAr     string          `json:"mother_name_ar"`
	Type             string          `json:"type"`
	Sex              string          `json:"sex"`
	Age              *int            `json:"age"`
	Civilian         string          `json:"civilian"`
	Occupation       string          `json:"occupation"`
	OccupationAr     string          `json:"occupation_ar"`
	Position         string          `json:"position"`
	PositionAr       string          `json:"position_ar"`
	FamilyStatus     string          `json:"family_status"`
	IDNumber         json.RawMessage `json:"id_number"`
	ResidencePlaceID *int64          `json:"residence_place_id"`
	OriginPlaceID    *int64          `json:"origin_place_id"`
	Comments         string          `json:"comments"`
	Tags             []string        `json:"tags"`
}

// UpdateActorRequest is the body of PUT /api/actors/:id.
type UpdateActorRequest struct {
	CreateActorRequest
}

// ReviewRequest is the body of PUT /api/actors/:id/review.
type ReviewRequest struct {
	Review       string `json:"review"`
	ReviewAction string `json:"review_action"`
}

// BulkUpdateRequest is the body of PUT /api/actors/bulk.
type BulkUpdateRequest struct {
	Items []int64         `json:"items"`
	Bulk  json.RawMessage `json:"bulk"`
}

// BulkUpdateResponse carries the enqueued background-job id.
type BulkUpdateResponse struct {
	JobID string `json:"job_id"`
}

// Revision is one history snapshot of an actor.
type Revision struct {
	ID        int64           `json:"id" db:"id"`
	ActorID   int64           `json:"actor_id" db:"actor_id"`
	Data      json.RawMessage `json:"data" db:"data"`
	UserID    int64           `json:"user_id" db:"user_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
