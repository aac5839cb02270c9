package dynamicfields

import (
	"github.com/gofiber/fiber/v2"

	"github.com/daleel/api/dynamicfields/handlers"
)

// DynamicFieldsHandlers holds all the handlers this router needs.
type DynamicFieldsHandlers struct {
	FieldHandler *handlers.FieldHandler
}

// RegisterRoutes is the single entry point for setting up registry routes.
// The auth middleware is applied by the caller at the /api group level.
func RegisterRoutes(router fiber.Router, h *DynamicFieldsHandlers) {
	group := router.Group("/dynamic-fields")

	group.Get("/", h.FieldHandler.List)
	group.Post("/bulk-save", h.FieldHandler.BulkSave)
	group.Get("/history/:entityType", h.FieldHandler.History)
}
