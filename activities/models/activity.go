package models

import (
	"encoding/json"
	"time"
)

// Audit actions.
const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionReview     = "REVIEW"
	ActionBulkUpdate = "BULK"
	ActionSearch     = "SEARCH"
	ActionSelfAssign = "SELF-ASSIGN"
	ActionLogin      = "LOGIN"
	ActionLogout     = "LOGOUT"
	ActionView       = "VIEW"
	ActionDownload   = "DOWNLOAD"
)

// Audit outcomes.
const (
	StatusSuccess = "SUCCESS"
	StatusDenied  = "DENIED"
)

// Activity is one audit-trail row. Subject is a compact JSON snapshot of
// the affected entity (usually class and id), not a full copy.
type Activity struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	Action    string          `json:"action" db:"action"`
	Status    string          `json:"status" db:"status"`
	Subject   json.RawMessage `json:"subject" db:"subject"`
	Model     string          `json:"model" db:"model"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Subject builds the standard subject snapshot.
func Subject(class string, id int64) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{"class": class, "id": id})
	return data
}

// SubjectIDs builds the subject snapshot for a bulk operation.
func SubjectIDs(class string, ids []int64) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{"class": class, "ids": ids})
	return data
}
