package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/actors/models"
	"github.com/daleel/api/actors/services"
	"github.com/daleel/api/internal/types"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

// ActorHandler handles all actor-related HTTP requests
type ActorHandler struct {
	actorService   *services.ActorService
	defaultPerPage int
	maxPerPage     int
}

// NewActorHandler creates a new ActorHandler with injected dependencies
func NewActorHandler(actorService *services.ActorService, defaultPerPage, maxPerPage int) *ActorHandler {
	return &ActorHandler{
		actorService:   actorService,
		defaultPerPage: defaultPerPage,
		maxPerPage:     maxPerPage,
	}
}

// Search handles faceted actor search with cursor pagination.
func (h *ActorHandler) Search(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req searchModels.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	queries, err := searchModels.ParseEnvelope(req.Q)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	pageReq := paginator.Request{
		Cursor:       req.Cursor,
		PerPage:      searchModels.ValidatePerPage(req.PerPage, h.defaultPerPage, h.maxPerPage),
		IncludeCount: req.IncludeCount,
	}

	result, err := h.actorService.Search(c.Context(), user, queries, pageReq)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(paginator.BuildResponse(result.Items, result.IDs, pageReq, result.Total))
}

// Get handles retrieving a single actor with its profiles.
func (h *ActorHandler) Get(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	result, err := h.actorService.Get(c.Context(), user, id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(result)
}

// Create handles actor creation.
func (h *ActorHandler) Create(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.CreateActorRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.Name == "" && req.NameAr == "" {
		return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
			Code:    searchErrors.CodeValidationFailed,
			Message: "name is required",
		})
	}

	actor, err := h.actorService.Create(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": actor.ID})
}

// Update handles actor updates.
func (h *ActorHandler) Update(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	var req models.UpdateActorRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	actor, err := h.actorService.Update(c.Context(), user, id, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": actor.ID})
}

// Review handles peer-review submission.
func (h *ActorHandler) Review(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	var req models.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.actorService.Review(c.Context(), user, id, &req); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": id})
}

// BulkUpdate enqueues a bulk mutation job.
func (h *ActorHandler) BulkUpdate(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.BulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.actorService.BulkUpdate(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(result)
}

// SelfAssign assigns an unassigned actor to the caller.
func (h *ActorHandler) SelfAssign(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.actorService.SelfAssign(c.Context(), user, id); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": id})
}

// Revisions returns the history snapshots of an actor.
func (h *ActorHandler) Revisions(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	revisions, err := h.actorService.Revisions(c.Context(), user, id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"items": revisions})
}

// Relations returns the ids of entities related to an actor.
func (h *ActorHandler) Relations(c *fiber.Ctx) error {
	if _, ok := userFrom(c); !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	result, err := h.actorService.Relations(c.Context(), id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(result)
}

func userFrom(c *fiber.Ctx) (*types.UserContext, bool) {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return nil, false
	}
	return &user, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(http.StatusUnauthorized).JSON(searchErrors.ErrorResponse{
		Code:    "UNAUTHORIZED",
		Message: "Invalid user context",
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(searchErrors.ErrorResponse{
		Code:    searchErrors.CodeNotFound,
		Message: "Entity not found",
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
		Code:    searchErrors.CodeValidationFailed,
		Message: "Invalid request body",
	})
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
