package activities

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/activities/handlers"
)

// ActivitiesHandlers holds all the handlers this router needs.
type ActivitiesHandlers struct {
	ActivityHandler *handlers.ActivityHandler
}

// RegisterRoutes is the single entry point for setting up activity routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *ActivitiesHandlers) {
	group := router.Group("/activities")
	group.Post("/search", h.ActivityHandler.Search)
}
