package savedsearches

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/savedsearches/handlers"
)

// SavedSearchesHandlers holds all the handlers this router needs.
type SavedSearchesHandlers struct {
	SavedSearchHandler *handlers.SavedSearchHandler
}

// RegisterRoutes is the single entry point for setting up saved-query routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *SavedSearchesHandlers) {
	router.Get("/queries", h.SavedSearchHandler.List)

	group := router.Group("/query")
	group.Post("/", h.SavedSearchHandler.Create)
	group.Get("/:name/exists", h.SavedSearchHandler.Exists)
	group.Put("/:id", h.SavedSearchHandler.Update)
	group.Delete("/:id", h.SavedSearchHandler.Delete)
}
