package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Search errors
var (
	ErrInvalidQuery = errors.New("invalid query")
	ErrLegacyQuery  = errors.New("legacy query")
	ErrNotFound     = errors.New("entity not found")
	ErrAccessDenied = errors.New("access denied")
	ErrConflict     = errors.New("conflict")
	ErrBusy         = errors.New("operation already running")
)

// LegacyQueryMessage is surfaced when a saved search predates the current
// facet names. The saved search cannot be migrated automatically.
const LegacyQueryMessage = "This saved search uses an outdated format. Please delete it and create a new search."

// QueryError carries the offending facet so the client can point at it.
type QueryError struct {
	Facet   string
	Message string
	Cause   error
}

func (e *QueryError) Error() string {
	if e.Facet != "" {
		return fmt.Sprintf("invalid query facet %q: %s", e.Facet, e.Message)
	}
	return fmt.Sprintf("invalid query: %s", e.Message)
}

func (e *QueryError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrInvalidQuery
}

// NewQueryError creates a QueryError for a facet.
func NewQueryError(facet, message string) *QueryError {
	return &QueryError{Facet: facet, Message: message}
}

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeLegacyQuery      = "LEGACY_QUERY"
	CodeNotFound         = "NOT_FOUND"
	CodeAccessDenied     = "ACCESS_DENIED"
	CodeConflict         = "CONFLICT"
	CodeBusy             = "BUSY"
	CodeInternalError    = "INTERNAL_ERROR"
)

// HandleServiceError maps search/service errors to HTTP responses.
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var qerr *QueryError
	switch {
	case errors.Is(err, ErrLegacyQuery):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeLegacyQuery,
			Message: LegacyQueryMessage,
			Details: err.Error(),
		})
	case errors.As(err, &qerr):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeValidationFailed,
			Message: "Invalid search query",
			Details: fiber.Map{"facet": qerr.Facet, "message": qerr.Message},
		})
	case errors.Is(err, ErrInvalidQuery):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Code:    CodeValidationFailed,
			Message: "Invalid search query",
			Details: err.Error(),
		})
	case errors.Is(err, ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Code:    CodeNotFound,
			Message: "Entity not found",
		})
	case errors.Is(err, ErrAccessDenied):
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{
			Code:    CodeAccessDenied,
			Message: "Access denied",
		})
	case errors.Is(err, ErrConflict):
		return c.Status(http.StatusConflict).JSON(ErrorResponse{
			Code:    CodeConflict,
			Message: "Conflicting resource state",
			Details: err.Error(),
		})
	case errors.Is(err, ErrBusy):
		return c.Status(http.StatusTooManyRequests).JSON(ErrorResponse{
			Code:    CodeBusy,
			Message: "Operation already in progress",
		})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    CodeInternalError,
			Message: "An unexpected error occurred",
		})
	}
}
