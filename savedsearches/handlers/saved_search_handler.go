package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/savedsearches/models"
	"github.com/daleel/api/savedsearches/services"
	searchErrors "github.com/daleel/api/search/errors"
)

// SavedSearchHandler handles saved-query HTTP requests
type SavedSearchHandler struct {
	savedSearchService *services.SavedSearchService
}

// NewSavedSearchHandler creates a new SavedSearchHandler
func NewSavedSearchHandler(savedSearchService *services.SavedSearchService) *SavedSearchHandler {
	return &SavedSearchHandler{savedSearchService: savedSearchService}
}

// List returns the caller's saved searches, filtered by ?type=.
func (h *SavedSearchHandler) List(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	searches, err := h.savedSearchService.List(c.Context(), user, c.Query("type"))
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"items": searches})
}

// Exists reports whether a name is already taken by the caller.
func (h *SavedSearchHandler) Exists(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	exists, err := h.savedSearchService.Exists(c.Context(), user, c.Params("name"))
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"exists": exists})
}

// Create stores a new saved search.
func (h *SavedSearchHandler) Create(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	search, err := h.savedSearchService.Create(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": search.ID})
}

// Update rewrites an existing saved search.
func (h *SavedSearchHandler) Update(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	var req models.SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	search, err := h.savedSearchService.Update(c.Context(), user, id, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": search.ID})
}

// Delete removes a saved search.
func (h *SavedSearchHandler) Delete(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.savedSearchService.Delete(c.Context(), user, id); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
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
