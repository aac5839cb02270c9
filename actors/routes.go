package actors

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/actors/handlers"
)

// ActorsHandlers holds all the handlers this router needs.
type ActorsHandlers struct {
	ActorHandler *handlers.ActorHandler
}

// RegisterRoutes is the single entry point for setting up actor routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *ActorsHandlers) {
	group := router.Group("/actors")

	group.Post("/search", h.ActorHandler.Search)
	group.Post("/", h.ActorHandler.Create)
	group.Put("/bulk", h.ActorHandler.BulkUpdate)
	group.Get("/:id", h.ActorHandler.Get)
	group.Put("/:id", h.ActorHandler.Update)
	group.Put("/:id/review", h.ActorHandler.Review)
	group.Put("/:id/assign", h.ActorHandler.SelfAssign)
	group.Get("/:id/revisions", h.ActorHandler.Revisions)
	group.Get("/:id/relations", h.ActorHandler.Relations)
}
