package incidents

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/incidents/handlers"
)

// IncidentsHandlers holds all the handlers this router needs.
type IncidentsHandlers struct {
	IncidentHandler *handlers.IncidentHandler
}

// RegisterRoutes is the single entry point for setting up incident routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *IncidentsHandlers) {
	group := router.Group("/incidents")

	group.Post("/search", h.IncidentHandler.Search)
	group.Post("/", h.IncidentHandler.Create)
	group.Put("/bulk", h.IncidentHandler.BulkUpdate)
	group.Get("/:id", h.IncidentHandler.Get)
	group.Put("/:id", h.IncidentHandler.Update)
	group.Put("/:id/review", h.IncidentHandler.Review)
	group.Put("/:id/assign", h.IncidentHandler.SelfAssign)
	group.Get("/:id/revisions", h.IncidentHandler.Revisions)
	group.Get("/:id/relations", h.IncidentHandler.Relations)
}
