package services

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"

	activityModels "github.com/daleel/api/activities/models"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/bulletins/models"
	"github.com/daleel/api/bulletins/repository"
	"github.com/daleel/api/internal/access"
	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/notify"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

const entityClass = "bulletin"

// SearchResult is one page of serialised bulletins.
type SearchResult struct {
	Items []interface{}
	IDs   []int64
	Total *int64
}

// BulletinService implements bulletin search and workflow operations:
// access enforcement, revision history, review, assignment and bulk
// enqueueing, with every operation recorded in the audit trail.
type BulletinService struct {
	repo      repository.BulletinRepository
	taxonomy  compiler.TaxonomyStore
	relations compiler.RelationStore
	fields    compiler.FieldSource
	activity  *activityServices.ActivityService
	cache     *cache.Service
	notifier  notify.Notifier
}

// NewBulletinService creates a new bulletin service with injected dependencies
func NewBulletinService(
	repo repository.BulletinRepository,
	taxonomy compiler.TaxonomyStore,
	relations compiler.RelationStore,
	fields compiler.FieldSource,
	activity *activityServices.ActivityService,
	cacheService *cache.Service,
	notifier notify.Notifier,
) *BulletinService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &BulletinService{
		repo:      repo,
		taxonomy:  taxonomy,
		relations: relations,
		fields:    fields,
		activity:  activity,
		cache:     cacheService,
		notifier:  notifier,
	}
}

// Search compiles and runs a faceted search, serialising each row against
// the caller's access groups.
func (s *BulletinService) Search(ctx context.Context, user *types.UserContext, queries []*searchModels.SearchQuery, req paginator.Request) (*SearchResult, error) {
	deps, err := s.compilerDeps(ctx)
	if err != nil {
		return nil, err
	}

	compiled, err := compiler.CompileBulletins(ctx, queries, deps)
	if err != nil {
		return nil, err
	}

	// Simple listing: the count comes from a direct COUNT(*), cheaper than
	// the window function over every row, so the data query must not carry
	// the window count as well.
	simple := searchModels.EnvelopeIsEmpty(queries)
	dataReq := req
	if simple {
		dataReq.IncludeCount = false
	}

	bulletins, total, err := s.repo.Search(ctx, compiled, dataReq)
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
		Items: make([]interface{}, 0, len(bulletins)),
		IDs:   make([]int64, 0, len(bulletins)),
		Total: total,
	}
	for i := range bulletins {
		result.Items = append(result.Items, s.serialise(user, &bulletins[i]))
		result.IDs = append(result.IDs, bulletins[i].ID)
	}

	// Plain listings do not leave an audit trail, only faceted searches do.
	if !simple {
		s.activity.RegisterSuccess(ctx, user, activityModels.ActionSearch, entityClass, nil)
	}
	return result, nil
}

// Get returns one bulletin, restricted to a stub when the caller's roles do
// not intersect the bulletin's access groups.
func (s *BulletinService) Get(ctx context.Context, user *types.UserContext, id int64) (interface{}, error) {
	bulletin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.serialise(user, bulletin), nil
}

// Create inserts a new bulletin with its first revision snapshot.
func (s *BulletinService) Create(ctx context.Context, user *types.UserContext, req *models.CreateBulletinRequest) (*models.Bulletin, error) {
	bulletin, err := fromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, bulletin, user.ID); err != nil {
		return nil, err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionCreate, entityClass, activityModels.Subject(entityClass, bulletin.ID))
	return bulletin, nil
}

// Update replaces the bulletin's editable fields and snapshots a revision.
// Only an admin or the assigned user may edit; denials are audited.
func (s *BulletinService) Update(ctx context.Context, user *types.UserContext, id int64, req *models.UpdateBulletinRequest) (*models.Bulletin, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanEdit(user, existing.AssignedToID) {
		s.denied(ctx, user, activityModels.ActionUpdate, id)
		return nil, searchErrors.ErrAccessDenied
	}

	updated, err := fromRequest(&req.CreateBulletinRequest)
	if err != nil {
		return nil, err
	}
	updated.ID = id
	updated.Status = models.StatusUpdated
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

// Review records a peer review and moves the bulletin to Peer Reviewed.
func (s *BulletinService) Review(ctx context.Context, user *types.UserContext, id int64, req *models.ReviewRequest) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !access.CanEdit(user, existing.AssignedToID) {
		s.denied(ctx, user, activityModels.ActionReview, id)
		return searchErrors.ErrAccessDenied
	}

	err = s.repo.UpdateReview(ctx, id, req.Review, req.ReviewAction, models.StatusPeerReviewed, user.ID)
	if err != nil {
		return err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionReview, entityClass, activityModels.Subject(entityClass, id))
	return nil
}

// BulkUpdate enqueues a background bulk mutation and returns its job id.
// The job id stays valid for the bulk-job TTL; a worker outside this
// service consumes it.
func (s *BulletinService) BulkUpdate(ctx context.Context, user *types.UserContext, req *models.BulkUpdateRequest) (*models.BulkUpdateResponse, error) {
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

// SelfAssign assigns an unassigned bulletin to the caller when their account
// carries the self-assign capability.
func (s *BulletinService) SelfAssign(ctx context.Context, user *types.UserContext, id int64) error {
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

	if err := s.repo.Assign(ctx, id, user.ID, models.StatusAssigned); err != nil {
		return err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionSelfAssign, entityClass, activityModels.Subject(entityClass, id))
	return nil
}

// Revisions returns the bulletin's history snapshots. Full history requires
// the view-full-history capability; simple history is capped.
func (s *BulletinService) Revisions(ctx context.Context, user *types.UserContext, id int64) ([]models.Revision, error) {
	limit := 10
	if user.ViewFullHistory || user.IsAdmin() {
		limit = 1000
	} else if !user.ViewSimpleHistory {
		return nil, searchErrors.ErrAccessDenied
	}
	return s.repo.Revisions(ctx, id, limit)
}

// Relations resolves the ids of entities related to the bulletin.
func (s *BulletinService) Relations(ctx context.Context, id int64) (map[string][]int64, error) {
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

func (s *BulletinService) compilerDeps(ctx context.Context) (compiler.Deps, error) {
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
// the bulletin's access groups receive only the restricted stub.
func (s *BulletinService) serialise(user *types.UserContext, bulletin *models.Bulletin) interface{} {
	if !access.CanAccess(user, bulletin.RoleIDs) {
		return access.NewRestrictedStub(bulletin.ID)
	}
	return bulletin
}

func (s *BulletinService) denied(ctx context.Context, user *types.UserContext, action string, id int64) {
	s.activity.RegisterDenied(ctx, user, action, entityClass, activityModels.Subject(entityClass, id))
	s.notifier.Notify(ctx, notify.EventUnauthorizedAction, map[string]interface{}{
		"user":   user.ID,
		"action": action,
		"class":  entityClass,
		"id":     id,
	})
}

func (s *BulletinService) deniedIDs(ctx context.Context, user *types.UserContext, action string, ids []int64) {
	s.activity.RegisterDenied(ctx, user, action, entityClass, activityModels.SubjectIDs(entityClass, ids))
	s.notifier.Notify(ctx, notify.EventUnauthorizedAction, map[string]interface{}{
		"user":   user.ID,
		"action": action,
		"class":  entityClass,
		"ids":    ids,
	})
}

// fromRequest maps the request body onto a bulletin row, parsing dates.
func fromRequest(req *models.CreateBulletinRequest) (*models.Bulletin, error) {
	bulletin := &models.Bulletin{
		Title:       req.Title,
		TitleAr:     req.TitleAr,
		SjacTitle:   req.SjacTitle,
		SjacTitleAr: req.SjacTitleAr,
		Description: req.Description,
		SourceLink:  req.SourceLink,
		Originid:    req.Originid,
		Comments:    req.Comments,
		Tags:        req.Tags,
	}

	if req.PublishDate != "" {
		t, err := searchModels.ParseDate(req.PublishDate)
		if err != nil {
			return nil, searchErrors.NewQueryError("publish_date", err.Error())
		}
		bulletin.PublishDate = &t
	}
	if req.DocumentationDate != "" {
		t, err := searchModels.ParseDate(req.DocumentationDate)
		if err != nil {
			return nil, searchErrors.NewQueryError("documentation_date", err.Error())
		}
		bulletin.DocumentationDate = &t
	}
	return bulletin, nil
}
