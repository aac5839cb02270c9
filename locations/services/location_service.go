package services

import (
	"context"
	"time"

	activityModels "github.com/daleel/api/activities/models"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/notify"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/locations/models"
	"github.com/daleel/api/locations/repository"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

const entityClass = "location"

// regenerateLockKey guards the whole-tree rebuild. Only one rebuild may run
// at a time; concurrent requests surface as busy.
const regenerateLockKey = "locations:regenerate"

const regenerateLockTTL = 30 * time.Minute

// SearchResult is one page of locations.
type SearchResult struct {
	Items []interface{}
	IDs   []int64
	Total *int64
}

// LocationService implements location search and hierarchy maintenance.
// Mutations require the edit-locations capability.
type LocationService struct {
	repo     repository.LocationRepository
	activity *activityServices.ActivityService
	cache    *cache.Service
	notifier notify.Notifier
}

// NewLocationService creates a new location service with injected dependencies
func NewLocationService(
	repo repository.LocationRepository,
	activity *activityServices.ActivityService,
	cacheService *cache.Service,
	notifier notify.Notifier,
) *LocationService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &LocationService{
		repo:     repo,
		activity: activity,
		cache:    cacheService,
		notifier: notifier,
	}
}

// Search compiles and runs a faceted location search. Locations carry no
// per-row access groups, so rows are returned unrestricted.
func (s *LocationService) Search(ctx context.Context, user *types.UserContext, q *searchModels.SearchQuery, req paginator.Request) (*SearchResult, error) {
	compiled, err := compiler.CompileLocations(ctx, q, compiler.Deps{})
	if err != nil {
		return nil, err
	}

	// A direct COUNT(*) serves simple listings, so the data query drops the
	// window count on that path.
	simple := q == nil || q.IsEmpty()
	dataReq := req
	if simple {
		dataReq.IncludeCount = false
	}

	locations, total, err := s.repo.Search(ctx, compiled, dataReq)
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
		Items: make([]interface{}, 0, len(locations)),
		IDs:   make([]int64, 0, len(locations)),
		Total: total,
	}
	for i := range locations {
		result.Items = append(result.Items, &locations[i])
		result.IDs = append(result.IDs, locations[i].ID)
	}

	if !simple {
		s.activity.RegisterSuccess(ctx, user, activityModels.ActionSearch, entityClass, nil)
	}
	return result, nil
}

// Get returns one location.
func (s *LocationService) Get(ctx context.Context, id int64) (*models.Location, error) {
	return s.repo.FindByID(ctx, id)
}

// Create inserts a new location and materialises its hierarchy path.
func (s *LocationService) Create(ctx context.Context, user *types.UserContext, req *models.CreateLocationRequest) (*models.Location, error) {
	if !canEdit(user) {
		s.denied(ctx, user, activityModels.ActionCreate, 0)
		return nil, searchErrors.ErrAccessDenied
	}

	location := fromRequest(req)
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionCreate, entityClass, activityModels.Subject(entityClass, location.ID))
	return location, nil
}

// Update rewrites a location and re-materialises its path.
func (s *LocationService) Update(ctx context.Context, user *types.UserContext, id int64, req *models.UpdateLocationRequest) (*models.Location, error) {
	if !canEdit(user) {
		s.denied(ctx, user, activityModels.ActionUpdate, id)
		return nil, searchErrors.ErrAccessDenied
	}

	location := fromRequest(&req.CreateLocationRequest)
	location.ID = id
	if err := s.repo.Update(ctx, location); err != nil {
		return nil, err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionUpdate, entityClass, activityModels.Subject(entityClass, id))
	return location, nil
}

// RegenerateTree rebuilds every id_tree and full_location. Admin only, and
// at most one rebuild may run at a time.
func (s *LocationService) RegenerateTree(ctx context.Context, user *types.UserContext) (int64, error) {
	if !user.IsAdmin() {
		s.denied(ctx, user, activityModels.ActionUpdate, 0)
		return 0, searchErrors.ErrAccessDenied
	}

	if s.cache.IsEnabled() {
		var held bool
		if err := s.cache.GetJSON(ctx, regenerateLockKey, &held); err == nil {
			return 0, searchErrors.ErrBusy
		}
		if err := s.cache.SetJSON(ctx, regenerateLockKey, true, regenerateLockTTL); err != nil {
			return 0, err
		}
		defer s.cache.Delete(ctx, regenerateLockKey)
	}

	updated, err := s.repo.RegenerateTree(ctx)
	if err != nil {
		return 0, err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionBulkUpdate, entityClass, nil)
	return updated, nil
}

func canEdit(user *types.UserContext) bool {
	return user.CanEditLocations || user.IsAdmin()
}

func (s *LocationService) denied(ctx context.Context, user *types.UserContext, action string, id int64) {
	s.activity.RegisterDenied(ctx, user, action, entityClass, activityModels.Subject(entityClass, id))
	s.notifier.Notify(ctx, notify.EventUnauthorizedAction, map[string]interface{}{
		"user":   user.ID,
		"action": action,
		"class":  entityClass,
		"id":     id,
	})
}

func fromRequest(req *models.CreateLocationRequest) *models.Location {
	return &models.Location{
		Title:        req.Title,
		TitleAr:      req.TitleAr,
		Description:  req.Description,
		ParentID:     req.ParentID,
		AdminLevel:   req.AdminLevel,
		LocationType: req.LocationType,
		Country:      req.Country,
		Lat:          req.Lat,
		Lng:          req.Lng,
		Tags:         req.Tags,
	}
}
