package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/incidents/models"
	"github.com/daleel/api/incidents/services"
	"github.com/daleel/api/internal/types"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

// IncidentHandler handles all incident-related HTTP requests
type IncidentHandler struct {
	incidentService *services.IncidentService
	defaultPerPage  int
	maxPerPage      int
}

// NewIncidentHandler creates a new IncidentHandler with injected dependencies
func NewIncidentHandler(incidentService *services.IncidentService, defaultPerPage, maxPerPage int) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
		defaultPerPage:  defaultPerPage,
		maxPerPage:      maxPerPage,
	}
}

// Search handles faceted incident search with cursor pagination. Incident
// searches take a single query object, not an envelope.
func (h *IncidentHandler) Search(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req searchModels.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	q, err := searchModels.ParseQuery(req.Q)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	pageReq := paginator.Request{
		Cursor:       req.Cursor,
		PerPage:      searchModels.ValidatePerPage(req.PerPage, h.defaultPerPage, h.maxPerPage),
		IncludeCount: req.IncludeCount,
	}

	result, err := h.incidentService.Search(c.Context(), user, q, pageReq)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(paginator.BuildResponse(result.Items, result.IDs, pageReq, result.Total))
}

// Get handles retrieving a single incident.
func (h *IncidentHandler) Get(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	result, err := h.incidentService.Get(c.Context(), user, id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(result)
}

// Create handles incident creation.
func (h *IncidentHandler) Create(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.Title == "" && req.TitleAr == "" {
		return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
			Code:    searchErrors.CodeValidationFailed,
			Message: "title is required",
		})
	}

	incident, err := h.incidentService.Create(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": incident.ID})
}

// Update handles incident updates.
func (h *IncidentHandler) Update(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	var req models.UpdateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	incident, err := h.incidentService.Update(c.Context(), user, id, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": incident.ID})
}

// Review handles peer-review submission.
func (h *IncidentHandler) Review(c *fiber.Ctx) error {
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

	if err := h.incidentService.Review(c.Context(), user, id, &req); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": id})
}

// BulkUpdate enqueues a bulk mutation job.
func (h *IncidentHandler) BulkUpdate(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.BulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.incidentService.BulkUpdate(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(result)
}

// SelfAssign assigns an unassigned incident to the caller.
func (h *IncidentHandler) SelfAssign(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.incidentService.SelfAssign(c.Context(), user, id); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": id})
}

// Revisions returns the history snapshots of an incident.
func (h *IncidentHandler) Revisions(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	revisions, err := h.incidentService.Revisions(c.Context(), user, id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"items": revisions})
}

// Relations returns the ids of entities related to an incident.
func (h *IncidentHandler) Relations(c *fiber.Ctx) error {
	if _, ok := userFrom(c); !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	result, err := h.incidentService.Relations(c.Context(), id)
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
