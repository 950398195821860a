package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are attached to the context for the request logger and
// answered with a generic message.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrCompanyNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCompanyID),
		errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrMissingName),
		errors.Is(err, service.ErrMissingPhone),
		errors.Is(err, service.ErrMissingAddress),
		errors.Is(err, service.ErrMissingDetails),
		errors.Is(err, service.ErrMissingLocation),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidRadius):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrOrderNotAssigned),
		errors.Is(err, service.ErrOrderClosed),
		errors.Is(err, service.ErrOrderBeingMatched),
		errors.Is(err, service.ErrRiderHasOpenOrder):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, service.ErrNoRiderAvailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// LocationBody is a coordinate in request and response bodies.
type LocationBody struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l *LocationBody) point() *domain.GeoPoint {
	if l == nil {
		return nil
	}
	return &domain.GeoPoint{Lat: l.Lat, Lng: l.Lng}
}

func locationBody(p domain.GeoPoint) LocationBody {
	return LocationBody{Lat: p.Lat, Lng: p.Lng}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
