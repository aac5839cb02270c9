package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"

	"github.com/daleel/api/dynamicfields/models"
	"github.com/daleel/api/dynamicfields/services"
	"github.com/daleel/api/internal/types"
	searchErrors "github.com/daleel/api/search/errors"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// FieldHandler handles dynamic-field registry HTTP requests
type FieldHandler struct {
	fieldService *services.FieldService
}

// NewFieldHandler creates a new FieldHandler
func NewFieldHandler(fieldService *services.FieldService) *FieldHandler {
	return &FieldHandler{fieldService: fieldService}
}

// List returns registry rows matching the query-string filter.
func (h *FieldHandler) List(c *fiber.Ctx) error {
	if _, ok := userFrom(c); !ok {
		return unauthorized(c)
	}

	values := make(map[string][]string)
	for key, vals := range c.Queries() {
		values[key] = []string{vals}
	}

	var filter models.ListFilter
	if err := queryDecoder.Decode(&filter, values); err != nil {
		return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
			Code:    searchErrors.CodeValidationFailed,
			Message: "Invalid filter parameters",
			Details: err.Error(),
		})
	}

	fields, err := h.fieldService.List(c.Context(), filter)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"items": fields})
}

// BulkSave applies one change envelope atomically.
func (h *FieldHandler) BulkSave(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.BulkSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.fieldService.BulkSave(c.Context(), user, &req); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"saved": true})
}

// History returns the paginated form snapshots of an entity type.
func (h *FieldHandler) History(c *fiber.Ctx) error {
	if _, ok := userFrom(c); !ok {
		return unauthorized(c)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "30"))

	snapshots, err := h.fieldService.History(c.Context(), c.Params("entityType"), page, perPage)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"items": snapshots})
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

func invalidBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
		Code:    searchErrors.CodeValidationFailed,
		Message: "Invalid request body",
	})
}
