package services

import (
	"context"
	"encoding/json"

	"github.com/daleel/api/activities/models"
	"github.com/daleel/api/activities/repository"
	"github.com/daleel/api/internal/pkg/log"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/search/compiler"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

// ActivityService records and searches the audit trail. Recording never
// fails the caller: a lost audit row is logged, the user operation
// proceeds.
type ActivityService struct {
	repo repository.ActivityRepository
	// recordedActions is the configured allow-list of persisted actions.
	recordedActions map[string]bool
}

// NewActivityService creates a new activity service. actions is the
// configured list of action names to persist.
func NewActivityService(repo repository.ActivityRepository, actions []string) *ActivityService {
	recorded := make(map[string]bool, len(actions))
	for _, a := range actions {
		recorded[a] = true
	}
	return &ActivityService{
		repo:            repo,
		recordedActions: recorded,
	}
}

// Register records one audit event. Events whose action is outside the
// configured list are dropped, except denials, which are always kept.
func (s *ActivityService) Register(ctx context.Context, user *types.UserContext, action, status, model string, subject json.RawMessage) {
	if status != models.StatusDenied && !s.recordedActions[action] {
		return
	}

	activity := &models.Activity{
		Action:  action,
		Status:  status,
		Subject: subject,
		Model:   model,
	}
	if user != nil {
		activity.UserID = user.ID
	}

	if err := s.repo.Insert(ctx, activity); err != nil {
		log.ErrorWithContext(ctx, "failed to record activity %s/%s on %s: %v", action, status, model, err)
	}
}

// RegisterSuccess records a successful operation.
func (s *ActivityService) RegisterSuccess(ctx context.Context, user *types.UserContext, action, model string, subject json.RawMessage) {
	s.Register(ctx, user, action, models.StatusSuccess, model, subject)
}

// RegisterDenied records a denied operation. Denials bypass the action
// allow-list.
func (s *ActivityService) RegisterDenied(ctx context.Context, user *types.UserContext, action, model string, subject json.RawMessage) {
	s.Register(ctx, user, action, models.StatusDenied, model, subject)
}

// Search runs a faceted search over the audit trail.
func (s *ActivityService) Search(ctx context.Context, q *searchModels.SearchQuery, req paginator.Request) ([]models.Activity, *int64, error) {
	compiled, err := compiler.CompileActivities(ctx, q, compiler.Deps{})
	if err != nil {
		return nil, nil, err
	}
	return s.repo.Search(ctx, compiled, req)
}
