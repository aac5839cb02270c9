package services

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"

	activityModels "github.com/daleel/api/activities/models"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/incidents/models"
	"github.com/daleel/api/incidents/repository"
	"github.com/daleel/api/internal/access"
	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/notify"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

const entityClass = "incident"

// SearchResult is one page of serialised incidents.
type SearchResult struct {
	Items []interface{}
	IDs   []int64
	Total *int64
}

// IncidentService implements incident search and workflow operations.
// Incidents take a single query object rather than a query envelope.
type IncidentService struct {
	repo      repository.IncidentRepository
	taxonomy  compiler.TaxonomyStore
	relations compiler.RelationStore
	fields    compiler.FieldSource
	activity  *activityServices.ActivityService
	cache     *cache.Service
	notifier  notify.Notifier
}

// NewIncidentService creates a new incident service with injected dependencies
func NewIncidentService(
	repo repository.IncidentRepository,
	taxonomy compiler.TaxonomyStore,
	relations compiler.RelationStore,
	fields compiler.FieldSource,
	activity *activityServices.ActivityService,
	cacheService *cache.Service,
	notifier notify.Notifier,
) *IncidentService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &IncidentService{
		repo:      repo,
		taxonomy:  taxonomy,
		relations: relations,
		fields:    fields,
		activity:  activity,
		cache:     cacheService,
		notifier:  notifier,
	}
}

// Search compiles and runs a faceted incident search, serialising each row
// against the caller's access groups.
func (s *IncidentService) Search(ctx context.Context, user *types.UserContext, q *searchModels.SearchQuery, req paginator.Request) (*SearchResult, error) {
	deps, err := s.compilerDeps(ctx)
	if err != nil {
		return nil, err
	}

	compiled, err := compiler.CompileIncidents(ctx, q, deps)
	if err != nil {
		return nil, err
	}

	// Simple listing: the count comes from a direct COUNT(*), cheaper than
	// the window function over every row, so the data query must not carry
	// the window count as well.
	simple := q == nil || q.IsEmpty()
	dataReq := req
	if simple {
		dataReq.IncludeCount = false
	}

	incidents, total, err := s.repo.Search(ctx, compiled, dataReq)
	if err != nil {
		return nil, err
	}

	if req.WantCount() && simple {
		count, err := s.repo.Count(ctx, compiled)
		if err != nil {
			return nil, err
		}
		total = &count
	}

	result := &SearchResult{
		Items: make([]interface{}, 0, len(incidents)),
		IDs:   make([]int64, 0, len(incidents)),
		Total: total,
	}
	for i := range incidents {
		result.Items = append(result.Items, s.serialise(user, &incidents[i]))
		result.IDs = append(result.IDs, incidents[i].ID)
	}

	// Plain listings do not leave an audit trail, only faceted searches do.
	if !simple {
		s.activity.RegisterSuccess(ctx, user, activityModels.ActionSearch, entityClass, nil)
	}
	return result, nil
}

// Get returns one incident, restricted to a stub when the caller's roles do
// not intersect the incident's access groups.
func (s *IncidentService) Get(ctx context.Context, user *types.UserContext, id int64) (interface{}, error) {
	incident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.serialise(user, incident), nil
}

// Create inserts a new incident with its first revision snapshot.
func (s *IncidentService) Create(ctx context.Context, user *types.UserContext, req *models.CreateIncidentRequest) (*models.Incident, error) {
	incident := fromRequest(req)

	if err := s.repo.Create(ctx, incident, user.ID); err != nil {
		return nil, err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionCreate, entityClass, activityModels.Subject(entityClass, incident.ID))
	return incident, nil
}

// Update replaces the incident's editable fields and snapshots a revision.
// Only an admin or the assigned user may edit; denials are audited.
func (s *IncidentService) Update(ctx context.Context, user *types.UserContext, id int64, req *models.UpdateIncidentRequest) (*models.Incident, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanEdit(user, existing.AssignedToID) {
		s.denied(ctx, user, activityModels.ActionUpdate, id)
		return nil, searchErrors.ErrAccessDenied
	}

	updated := fromRequest(&req.CreateIncidentRequest)
	updated.ID = id
	updated.Status = "Updated"
	updated.AssignedToID = existing.AssignedToID
	updated.FirstPeerReviewerID = existing.FirstPeerReviewerID
	updated.Review = existing.Review
	updated.ReviewAction = existing.ReviewAction
	updated.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, updated, user.ID); err != nil {
		return nil, err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionUpdate, entityClass, activityModels.Subject(entityClass, id))
	return updated, nil
}

// Review records a peer review and moves the incident to Peer Reviewed.
func (s *IncidentService) Review(ctx context.Context, user *types.UserContext, id int64, req *models.ReviewRequest) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !access.CanEdit(user, existing.AssignedToID) {
		s.denied(ctx, user, activityModels.ActionReview, id)
		return searchErrors.ErrAccessDenied
	}

	err = s.repo.UpdateReview(ctx, id, req.Review, req.ReviewAction, "Peer Reviewed", user.ID)
	if err != nil {
		return err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionReview, entityClass, activityModels.Subject(entityClass, id))
	return nil
}

// BulkUpdate enqueues a background bulk mutation and returns its job id.
func (s *IncidentService) BulkUpdate(ctx context.Context, user *types.UserContext, req *models.BulkUpdateRequest) (*models.BulkUpdateResponse, error) {
	if !user.IsAdmin() && !user.HasRoleName(types.ModRole) {
		s.deniedIDs(ctx, user, activityModels.ActionBulkUpdate, req.Items)
		return nil, searchErrors.ErrAccessDenied
	}
	if len(req.Items) == 0 {
		return nil, searchErrors.NewQueryError("items", "no items selected")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}
	jobID := id.String()

	job := map[string]interface{}{
		"type":  "bulk_update",
		"class": entityClass,
		"items": req.Items,
		"bulk":  req.Bulk,
		"user":  user.ID,
	}
	if err := s.cache.SetJSON(ctx, "job:"+jobID, job, cache.BulkJobTTL); err != nil {
		return nil, fmt.Errorf("failed to enqueue bulk job: %w", err)
	}
	s.cache.AddBulkJob(ctx, user.ID, jobID)

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionBulkUpdate, entityClass, activityModels.SubjectIDs(entityClass, req.Items))
	return &models.BulkUpdateResponse{JobID: jobID}, nil
}

// SelfAssign assigns an unassigned incident to the caller when their account
// carries the self-assign capability.
func (s *IncidentService) SelfAssign(ctx context.Context, user *types.UserContext, id int64) error {
	if !user.CanSelfAssign && !user.IsAdmin() {
		s.denied(ctx, user, activityModels.ActionSelfAssign, id)
		return searchErrors.ErrAccessDenied
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(user, existing.RoleIDs) {
		s.denied(ctx, user, activityModels.ActionSelfAssign, id)
		return searchErrors.ErrAccessDenied
	}

	if err := s.repo.Assign(ctx, id, user.ID, "Assigned"); err != nil {
		return err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionSelfAssign, entityClass, activityModels.Subject(entityClass, id))
	return nil
}

// Revisions returns the incident's history snapshots. Full history requires
// the view-full-history capability; simple history is capped.
func (s *IncidentService) Revisions(ctx context.Context, user *types.UserContext, id int64) ([]models.Revision, error) {
	limit := 10
	if user.ViewFullHistory || user.IsAdmin() {
		limit = 1000
	} else if !user.ViewSimpleHistory {
		return nil, searchErrors.ErrAccessDenied
	}
	return s.repo.Revisions(ctx, id, limit)
}

// Relations resolves the ids of entities related to the incident.
func (s *IncidentService) Relations(ctx context.Context, id int64) (map[string][]int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	out := make(map[string][]int64, 3)
	for _, target := range []string{compiler.ClassBulletin, compiler.ClassActor, compiler.ClassIncident} {
		ids, err := s.relations.RelatedIDs(ctx, entityClass, id, target)
		if err != nil {
			return nil, err
		}
		out[target+"s"] = ids
	}
	return out, nil
}

func (s *IncidentService) compilerDeps(ctx context.Context) (compiler.Deps, error) {
	deps := compiler.Deps{
		Taxonomy:  s.taxonomy,
		Relations: s.relations,
	}
	if s.fields != nil {
		fields, err := s.fields.SearchableFields(ctx, entityClass)
		if err != nil {
			return deps, err
		}
		deps.Fields = fields
	}
	return deps, nil
}

// serialise applies the serialisation-time access check: callers outside
// the incident's access groups receive only the restricted stub.
func (s *IncidentService) serialise(user *types.UserContext, incident *models.Incident) interface{} {
	if !access.CanAccess(user, incident.RoleIDs) {
		return access.NewRestrictedStub(incident.ID)
	}
	return incident
}

func (s *IncidentService) denied(ctx context.Context, user *types.UserContext, action string, id int64) {
	s.activity.RegisterDenied(ctx, user, action, entityClass, activityModels.Subject(entityClass, id))
	s.notifier.Notify(ctx, notify.EventUnauthorizedAction, map[string]interface{}{
		"user":   user.ID,
		"action": action,
		"class":  entityClass,
		"id":     id,
	})
}

func (s *IncidentService) deniedIDs(ctx context.Context, user *types.UserContext, action string, ids []int64) {
	s.activity.RegisterDenied(ctx, user, action, entityClass, activityModels.SubjectIDs(entityClass, ids))
	s.notifier.Notify(ctx, notify.EventUnauthorizedAction, map[string]interface{}{
		"user":   user.ID,
		"action": action,
		"class":  entityClass,
		"ids":    ids,
	})
}

func fromRequest(req *models.CreateIncidentRequest) *models.Incident {
	return &models.Incident{
		Title:       req.Title,
		TitleAr:     req.TitleAr,
		Description: req.Description,
		Comments:    req.Comments,
		Tags:        req.Tags,
	}
}
