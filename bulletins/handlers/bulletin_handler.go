package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/bulletins/models"
	"github.com/daleel/api/bulletins/services"
	"github.com/daleel/api/internal/types"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

// BulletinHandler handles all bulletin-related HTTP requests
type BulletinHandler struct {
	bulletinService *services.BulletinService
	defaultPerPage  int
	maxPerPage      int
}

// NewBulletinHandler creates a new BulletinHandler with injected dependencies
func NewBulletinHandler(bulletinService *services.BulletinService, defaultPerPage, maxPerPage int) *BulletinHandler {
	return &BulletinHandler{
		bulletinService: bulletinService,
		defaultPerPage:  defaultPerPage,
		maxPerPage:      maxPerPage,
	}
}

// Search handles faceted bulletin search with cursor pagination.
func (h *BulletinHandler) Search(c *fiber.Ctx) error {
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

	result, err := h.bulletinService.Search(c.Context(), user, queries, pageReq)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(paginator.BuildResponse(result.Items, result.IDs, pageReq, result.Total))
}

// Get handles retrieving a single bulletin.
func (h *BulletinHandler) Get(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	result, err := h.bulletinService.Get(c.Context(), user, id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(result)
}

// Create handles bulletin creation.
func (h *BulletinHandler) Create(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.CreateBulletinRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.Title == "" {
		return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
			Code:    searchErrors.CodeValidationFailed,
			Message: "title is required",
		})
	}

	bulletin, err := h.bulletinService.Create(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": bulletin.ID})
}

// Update handles bulletin updates.
func (h *BulletinHandler) Update(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	var req models.UpdateBulletinRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	bulletin, err := h.bulletinService.Update(c.Context(), user, id, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": bulletin.ID})
}

// Review handles peer-review submission.
func (h *BulletinHandler) Review(c *fiber.Ctx) error {
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

	if err := h.bulletinService.Review(c.Context(), user, id, &req); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": id})
}

// BulkUpdate enqueues a bulk mutation job.
func (h *BulletinHandler) BulkUpdate(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.BulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := h.bulletinService.BulkUpdate(c.Context(), user, &req)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(result)
}

// SelfAssign assigns an unassigned bulletin to the caller.
func (h *BulletinHandler) SelfAssign(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.bulletinService.SelfAssign(c.Context(), user, id); err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": id})
}

// Revisions returns the history snapshots of a bulletin.
func (h *BulletinHandler) Revisions(c *fiber.Ctx) error {
	user, ok := userFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	revisions, err := h.bulletinService.Revisions(c.Context(), user, id)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"items": revisions})
}

// Relations returns the ids of entities related to a bulletin.
func (h *BulletinHandler) Relations(c *fiber.Ctx) error {
	if _, ok := userFrom(c); !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	result, err := h.bulletinService.Relations(c.Context(), id)
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
