package bulletins

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/bulletins/handlers"
)

// BulletinsHandlers holds all the handlers this router needs.
type BulletinsHandlers struct {
	BulletinHandler *handlers.BulletinHandler
}

// RegisterRoutes is the single entry point for setting up bulletin routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *BulletinsHandlers) {
	group := router.Group("/bulletins")

	group.Post("/search", h.BulletinHandler.Search)
	group.Post("/", h.BulletinHandler.Create)
	group.Put("/bulk", h.BulletinHandler.BulkUpdate)
	group.Get("/:id", h.BulletinHandler.Get)
	group.Put("/:id", h.BulletinHandler.Update)
	group.Put("/:id/review", h.BulletinHandler.Review)
	group.Put("/:id/assign", h.BulletinHandler.SelfAssign)
	group.Get("/:id/revisions", h.BulletinHandler.Revisions)
	group.Get("/:id/relations", h.BulletinHandler.Relations)
}
