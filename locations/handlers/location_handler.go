package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/locations/models"
	"github.com/daleel/api/locations/services"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

// LocationHandler handles all location-related HTTP requests
type LocationHandler struct {
	locationService *services.LocationService
	defaultPerPage  int
	maxPerPage      int
}

// NewLocationHandler creates a new LocationHandler with injected dependencies
func NewLocationHandler(locationService *services.LocationService, defaultPerPage, maxPerPage int) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		defaultPerPage:  defaultPerPage,
		maxPerPage:      maxPerPage,
	}
}

// Search handles faceted location search with cursor pagination.
func (h *LocationHandler) Search(c *fiber.Ctx) error {
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

	result, err := h.locationService.Search(c.Context(), user, q, pageReq)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(paginator.BuildResponse(result.Items, result.IDs, pageReq, result.Total))
}

// Get handles retrieving a single location.
func (h *LocationHandler) Get(c *fiber.Ctx) error {
	if _, ok := userFrom(c); !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	location, err := h.locationService.Get(c.Context(), id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(location)
}

// Create handles location creation.
func (h *LocationHandler) Create(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.CreateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.Title == "" && req.TitleAr == "" {
		return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
			Code:    searchErrors.CodeValidationFailed,
			Message: "title is required",
		})
	}

	location, err := h.locationService.Create(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": location.ID})
}

// Update handles location updates.
func (h *LocationHandler) Update(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	var req models.UpdateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	location, err := h.locationService.Update(c.Context(), user, id, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": location.ID})
}

// RegenerateTree rebuilds the materialised hierarchy paths.
func (h *LocationHandler) RegenerateTree(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	updated, err := h.locationService.RegenerateTree(c.Context(), user)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"updated": updated})
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
