package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/types"
	searchErrors "github.com/daleel/api/search/errors"
)

// JobHandler exposes the status of queued bulk jobs. The worker consuming
// the queue runs outside this service; status is whatever the job payload in
// the ephemeral store says.
type JobHandler struct {
	cache *cache.Service
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(cacheService *cache.Service) *JobHandler {
	return &JobHandler{cache: cacheService}
}

// Status returns the queued job payload. Only the enqueueing user or an
// admin may read it; an expired or consumed job reads as not found.
func (h *JobHandler) Status(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(searchErrors.ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "Invalid user context",
		})
	}

	jobID := c.Params("id")
	if !user.IsAdmin() {
		owned, err := h.cache.HasBulkJob(c.Context(), user.ID, jobID)
		if err != nil {
			return searchErrors.HandleServiceError(c, err)
		}
		if !owned {
			return notFound(c)
		}
	}

	var job map[string]interface{}
	err := h.cache.GetJSON(c.Context(), "job:"+jobID, &job)
	if errors.Is(err, cache.ErrKeyNotFound) {
		return notFound(c)
	}
	if err != nil {
		return searchErrors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"id": jobID, "job": job})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(searchErrors.ErrorResponse{
		Code:    searchErrors.CodeNotFound,
		Message: "Entity not found",
	})
}
