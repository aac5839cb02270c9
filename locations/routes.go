package locations

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/locations/handlers"
)

// LocationsHandlers holds all the handlers this router needs.
type LocationsHandlers struct {
	LocationHandler *handlers.LocationHandler
}

// RegisterRoutes is the single entry point for setting up location routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *LocationsHandlers) {
	group := router.Group("/locations")

	group.Post("/search", h.LocationHandler.Search)
	group.Post("/", h.LocationHandler.Create)
	group.Post("/regenerate", h.LocationHandler.RegenerateTree)
	group.Get("/:id", h.LocationHandler.Get)
	group.Put("/:id", h.LocationHandler.Update)
}
