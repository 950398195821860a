package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrderRequest is the HTTP request body for placing an order.
type PlaceOrderRequest struct {
	CustomerName     string        `json:"customer_name"`
	CustomerPhone    string        `json:"customer_phone"`
	Pickup           *LocationBody `json:"pickup"`
	Details          string        `json:"details"`
	FormattedAddress string        `json:"formatted_address,omitempty"`
	CompanyID        string        `json:"company_id,omitempty"`
}

// OrderResponse is the HTTP response for order data.
type OrderResponse struct {
	ID               string       `json:"id"`
	CustomerName     string       `json:"customer_name,omitempty"`
	CustomerPhone    string       `json:"customer_phone,omitempty"`
	Pickup           LocationBody `json:"pickup"`
	Details          string       `json:"details"`
	CompanyID        string       `json:"company_id,omitempty"`
	AssignedRiderID  string       `json:"assigned_rider_id,omitempty"`
	Status           string       `json:"status"`
	FormattedAddress string       `json:"formatted_address,omitempty"`
	CreatedAt        string       `json:"created_at"`
	AssignedAt       string       `json:"assigned_at,omitempty"`
	ClosedAt         string       `json:"closed_at,omitempty"`
}

// PlaceOrderResponse is the HTTP response for placing or re-matching an order.
type PlaceOrderResponse struct {
	Order         OrderResponse  `json:"order"`
	RiderAssigned bool           `json:"rider_assigned"`
	Rider         *RiderResponse `json:"rider,omitempty"`
	DistanceKm    float64        `json:"distance_km,omitempty"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		CustomerName:     o.CustomerName,
		CustomerPhone:    o.CustomerPhone,
		Pickup:           locationBody(o.Pickup),
		Details:          o.Details,
		CompanyID:        o.CompanyID,
		AssignedRiderID:  o.AssignedRiderID,
		Status:           string(o.Status),
		FormattedAddress: o.FormattedAddress,
		CreatedAt:        formatTime(o.CreatedAt),
		AssignedAt:       formatTime(o.AssignedAt),
		ClosedAt:         formatTime(o.ClosedAt),
	}
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	response := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	return response
}

func toPlaceOrderResponse(result *service.PlaceOrderResponse) PlaceOrderResponse {
	response := PlaceOrderResponse{
		Order:         toOrderResponse(result.Order),
		RiderAssigned: result.RiderAssigned,
		DistanceKm:    result.DistanceKm,
	}
	if result.Rider != nil {
		rider := toRiderResponse(result.Rider)
		response.Rider = &rider
	}
	return response
}

// Place handles POST /v1/orders
func (h *OrderHandler) Place(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.orderService.Place(c.Request.Context(), service.PlaceOrderRequest{
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		Pickup:           req.Pickup.point(),
		Details:          req.Details,
		FormattedAddress: req.FormattedAddress,
		CompanyID:        req.CompanyID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPlaceOrderResponse(result))
}

// GetAll handles GET /v1/orders
func (h *OrderHandler) GetAll(c *gin.Context) {
	orders, err := h.orderService.List(c.Request.Context(), c.Query("company_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponses(orders))
}

// Get handles GET /v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// Assign handles POST /v1/orders/:id/assign
func (h *OrderHandler) Assign(c *gin.Context) {
	result, err := h.orderService.Assign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPlaceOrderResponse(result))
}

// Complete handles POST /v1/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	order, err := h.orderService.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// Cancel handles POST /v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	order, err := h.orderService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}
