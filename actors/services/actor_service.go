package services

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"

	activityModels "github.com/daleel/api/activities/models"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/actors/models"
	"github.com/daleel/api/actors/repository"
	"github.com/daleel/api/internal/access"
	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/notify"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

const entityClass = "actor"

// SearchResult is one page of serialised actors.
type SearchResult struct {
	Items []interface{}
	IDs   []int64
	Total *int64
}

// ActorDetail is the full single-actor payload.
type ActorDetail struct {
	*models.Actor
	Profiles []models.ActorProfile `json:"profiles"`
}

// ActorService implements actor search and workflow operations.
type ActorService struct {
	repo      repository.ActorRepository
	taxonomy  compiler.TaxonomyStore
	relations compiler.RelationStore
	fields    compiler.FieldSource
	activity  *activityServices.ActivityService
	cache     *cache.Service
	notifier  notify.Notifier
}

// NewActorService creates a new actor service with injected dependencies
func NewActorService(
	repo repository.ActorRepository,
	taxonomy compiler.TaxonomyStore,
	relations compiler.RelationStore,
	fields compiler.FieldSource,
	activity *activityServices.ActivityService,
	cacheService *cache.Service,
	notifier notify.Notifier,
) *ActorService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &ActorService{
		repo:      repo,
		taxonomy:  taxonomy,
		relations: relations,
		fields:    fields,
		activity:  activity,
		cache:     cacheService,
		notifier:  notifier,
	}
}

// Search compiles and runs a faceted search over actors and their
// profiles, serialising each row against the caller's access groups.
func (s *ActorService) Search(ctx context.Context, user *types.UserContext, queries []*searchModels.SearchQuery, req paginator.Request) (*SearchResult, error) {
	deps := compiler.Deps{Taxonomy: s.taxonomy, Relations: s.relations}
	if s.fields != nil {
		fields, err := s.fields.SearchableFields(ctx, entityClass)
		if err != nil {
			return nil, err
		}
		deps.Fields = fields
	}

	compiled, err := compiler.CompileActors(ctx, queries, deps)
	if err != nil {
		return nil, err
	}

	// A direct COUNT(*) serves simple listings, so the data query drops the
	// window count on that path.
	simple := searchModels.EnvelopeIsEmpty(queries)
	dataReq := req
	if simple {
		dataReq.IncludeCount = false
	}

	actors, total, err := s.repo.Search(ctx, compiled, dataReq)
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
		Items: make([]interface{}, 0, len(actors)),
		IDs:   make([]int64, 0, len(actors)),
		Total: total,
	}
	for i := range actors {
		result.Items = append(result.Items, s.serialise(user, &actors[i]))
		result.IDs = append(result.IDs, actors[i].ID)
	}

	if !simple {
		s.activity.RegisterSuccess(ctx, user, activityModels.ActionSearch, entityClass, nil)
	}
	return result, nil
}

// Get returns one actor with its documentation profiles, restricted to a
// stub when the caller's roles do not intersect the actor's access groups.
func (s *ActorService) Get(ctx context.Context, user *types.UserContext, id int64) (interface{}, error) {
	actor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanAccess(user, actor.RoleIDs) {
		return access.NewRestrictedStub(actor.ID), nil
	}

	profiles, err := s.repo.Profiles(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ActorDetail{Actor: actor, Profiles: profiles}, nil
}

// Create inserts a new actor with its first revision snapshot.
func (s *ActorService) Create(ctx context.Context, user *types.UserContext, req *models.CreateActorRequest) (*models.Actor, error) {
	actor := fromRequest(req)

	if err := s.repo.Create(ctx, actor, user.ID); err != nil {
		return nil, err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionCreate, entityClass, activityModels.Subject(entityClass, actor.ID))
	return actor, nil
}

// Update replaces the actor's editable fields and snapshots a revision.
func (s *ActorService) Update(ctx context.Context, user *types.UserContext, id int64, req *models.UpdateActorRequest) (*models.Actor, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanEdit(user, existing.AssignedToID) {
		s.denied(ctx, user, activityModels.ActionUpdate, id)
		return nil, searchErrors.ErrAccessDenied
	}

	updated := fromRequest(&req.CreateActorRequest)
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

// Review records a peer review and moves the actor to Peer Reviewed.
func (s *ActorService) Review(ctx context.Context, user *types.UserContext, id int64, req *models.ReviewRequest) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !access.CanEdit(user, existing.AssignedToID) {
		s.denied(ctx, user, activityModels.ActionReview, id)
		return searchErrors.ErrAccessDenied
	}

	if err := s.repo.UpdateReview(ctx, id, req.Review, req.ReviewAction, "Peer Reviewed", user.ID); err != nil {
		return err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionReview, entityClass, activityModels.Subject(entityClass, id))
	return nil
}

// BulkUpdate enqueues a background bulk mutation and returns its job id.
func (s *ActorService) BulkUpdate(ctx context.Context, user *types.UserContext, req *models.BulkUpdateRequest) (*models.BulkUpdateResponse, error) {
	if !user.IsAdmin() && !user.HasRoleName(types.ModRole) {
		s.activity.RegisterDenied(ctx, user, activityModels.ActionBulkUpdate, entityClass, activityModels.SubjectIDs(entityClass, req.Items))
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

// SelfAssign assigns an unassigned actor to the caller.
func (s *ActorService) SelfAssign(ctx context.Context, user *types.UserContext, id int64) error {
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

// Revisions returns the actor's history snapshots.
func (s *ActorService) Revisions(ctx context.Context, user *types.UserContext, id int64) ([]models.Revision, error) {
	limit := 10
	if user.ViewFullHistory || user.IsAdmin() {
		limit = 1000
	} else if !user.ViewSimpleHistory {
		return nil, searchErrors.ErrAccessDenied
	}
	return s.repo.Revisions(ctx, id, limit)
}

// Relations resolves the ids of entities related to the actor.
func (s *ActorService) Relations(ctx context.Context, id int64) (map[string][]int64, error) {
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

func (s *ActorService) serialise(user *types.UserContext, actor *models.Actor) interface{} {
	if !access.CanAccess(user, actor.RoleIDs) {
		return access.NewRestrictedStub(actor.ID)
	}
	return actor
}

func (s *ActorService) denied(ctx context.Context, user *types.UserContext, action string, id int64) {
	s.activity.RegisterDenied(ctx, user, action, entityClass, activityModels.Subject(entityClass, id))
	s.notifier.Notify(ctx, notify.EventUnauthorizedAction, map[string]interface{}{
		"user":   user.ID,
		"action": action,
		"class":  entityClass,
		"id":     id,
	})
}

func fromRequest(req *models.CreateActorRequest) *models.Actor {
	return &models.Actor{
		Name:             req.Name,
		NameAr:           req.NameAr,
		Nickname:         req.Nickname,
		NicknameAr:       req.NicknameAr,
		FirstName:        req.FirstName,
		FirstNameAr:      req.FirstNameAr,
		MiddleName:       req.MiddleName,
		MiddleNameAr:     req.MiddleNameAr,
		LastName:         req.LastName,
		LastNameAr:       req.LastNameAr,
		FatherName:       req.FatherName,
		FatherNameAr:     req.FatherNameAr,
		MotherName:       req.MotherName,
		MotherNameAr:     req.MotherNameAr,
		Type:             req.Type,
		Sex:              req.Sex,
		Age:              req.Age,
		Civilian:         req.Civilian,
		Occupation:       req.Occupation,
		OccupationAr:     req.OccupationAr,
		Position:         req.Position,
		PositionAr:       req.PositionAr,
		FamilyStatus:     req.FamilyStatus,
		IDNumber:         req.IDNumber,
		ResidencePlaceID: req.ResidencePlaceID,
		OriginPlaceID:    req.OriginPlaceID,
		Comments:         req.Comments,
		Tags:             req.Tags,
	}
}
