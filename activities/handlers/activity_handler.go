package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/activities/services"
	"github.com/daleel/api/internal/types"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

// ActivityHandler handles audit-trail HTTP requests
type ActivityHandler struct {
	activityService *services.ActivityService
	defaultPerPage  int
	maxPerPage      int
}

// NewActivityHandler creates a new ActivityHandler with injected dependencies
func NewActivityHandler(activityService *services.ActivityService, defaultPerPage, maxPerPage int) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		defaultPerPage:  defaultPerPage,
		maxPerPage:      maxPerPage,
	}
}

// Search handles faceted search over the audit trail. Admin only.
func (h *ActivityHandler) Search(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(searchErrors.ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "Invalid user context",
		})
	}
	if !user.IsAdmin() {
		return searchErrors.HandleServiceError(c, searchErrors.ErrAccessDenied)
	}

	var req searchModels.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(searchErrors.ErrorResponse{
			Code:    searchErrors.CodeValidationFailed,
			Message: "Invalid request body",
		})
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

	activities, total, err := h.activityService.Search(c.Context(), q, pageReq)
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	ids := make([]int64, len(activities))
	items := make([]interface{}, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
		items[i] = a
	}
	return c.Status(http.StatusOK).JSON(paginator.BuildResponse(items, ids, pageReq, total))
}
