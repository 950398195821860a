package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// RiderHandler handles HTTP requests for dispatch riders.
type RiderHandler struct {
	riderService *service.RiderService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderService *service.RiderService) *RiderHandler {
	return &RiderHandler{riderService: riderService}
}

// RegisterRiderRequest is the HTTP request body for rider registration.
type RegisterRiderRequest struct {
	CompanyID        string        `json:"company_id"`
	Name             string        `json:"name"`
	Location         *LocationBody `json:"location"`
	Phone            string        `json:"phone,omitempty"`
	FormattedAddress string        `json:"formatted_address"`
}

// SetAvailabilityRequest is the HTTP request body for taking a rider on or off shift.
type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

// RiderResponse is the HTTP response for rider data.
type RiderResponse struct {
	ID               string       `json:"id"`
	CompanyID        string       `json:"company_id"`
	Name             string       `json:"name"`
	Location         LocationBody `json:"location"`
	Phone            string       `json:"phone,omitempty"`
	FormattedAddress string       `json:"formatted_address"`
	IsAvailable      bool         `json:"is_available"`
	CreatedAt        string       `json:"created_at"`
}

// NearbyRiderResponse is a rider with its distance to the search point.
type NearbyRiderResponse struct {
	RiderResponse
	DistanceKm float64 `json:"distance_km"`
}

func toRiderResponse(r *domain.Rider) RiderResponse {
	return RiderResponse{
		ID:               r.ID,
		CompanyID:        r.CompanyID,
		Name:             r.Name,
		Location:         locationBody(r.Location),
		Phone:            r.Phone,
		FormattedAddress: r.FormattedAddress,
		IsAvailable:      r.IsAvailable,
		CreatedAt:        formatTime(r.CreatedAt),
	}
}

func toRiderResponses(riders []*domain.Rider) []RiderResponse {
	response := make([]RiderResponse, 0, len(riders))
	for _, r := range riders {
		response = append(response, toRiderResponse(r))
	}
	return response
}

// Register handles POST /v1/riders
func (h *RiderHandler) Register(c *gin.Context) {
	var req RegisterRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rider, err := h.riderService.Register(c.Request.Context(), service.RegisterRiderRequest{
		CompanyID:        req.CompanyID,
		Name:             req.Name,
		Location:         req.Location.point(),
		Phone:            req.Phone,
		FormattedAddress: req.FormattedAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRiderResponse(rider))
}

// GetAll handles GET /v1/riders
func (h *RiderHandler) GetAll(c *gin.Context) {
	riders, err := h.riderService.List(c.Request.Context(), c.Query("company_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderResponses(riders))
}

// Get handles GET /v1/riders/:id
func (h *RiderHandler) Get(c *gin.Context) {
	rider, err := h.riderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderResponse(rider))
}

// SetAvailability handles POST /v1/riders/:id/availability
func (h *RiderHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAvailable == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "is_available is required"})
		return
	}

	rider, err := h.riderService.SetAvailability(c.Request.Context(), c.Param("id"), *req.IsAvailable)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderResponse(rider))
}

// Nearby handles GET /v1/riders/nearby?lat=&lng=&radius_km=
func (h *RiderHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng query parameters are required"})
		return
	}

	var radiusKm float64
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "radius_km must be a number"})
			return
		}
		radiusKm = r
	}

	nearby, err := h.riderService.Nearby(c.Request.Context(), service.NearbyRequest{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: radiusKm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NearbyRiderResponse, 0, len(nearby))
	for _, n := range nearby {
		response = append(response, NearbyRiderResponse{
			RiderResponse: toRiderResponse(n.Rider),
			DistanceKm:    n.DistanceKm,
		})
	}

	respondJSON(c, http.StatusOK, response)
}
