package jobs

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/jobs/handlers"
)

// JobsHandlers holds all the handlers this router needs.
type JobsHandlers struct {
	JobHandler *handlers.JobHandler
}

// RegisterRoutes is the single entry point for setting up job routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *JobsHandlers) {
	group := router.Group("/jobs")

	group.Get("/:id", h.JobHandler.Status)
}
