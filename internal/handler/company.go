package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// CompanyHandler handles HTTP requests for companies.
type CompanyHandler struct {
	companyService *service.CompanyService
	riderService   *service.RiderService
	orderService   *service.OrderService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyService *service.CompanyService, riderService *service.RiderService, orderService *service.OrderService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		riderService:   riderService,
		orderService:   orderService,
	}
}

// RegisterCompanyRequest is the HTTP request body for company registration.
type RegisterCompanyRequest struct {
	Name             string        `json:"name"`
	Location         *LocationBody `json:"location"`
	Phone            string        `json:"phone"`
	Email            string        `json:"email,omitempty"`
	FormattedAddress string        `json:"formatted_address"`
}

// CompanyResponse is the HTTP response for company data.
type CompanyResponse struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Location         LocationBody `json:"location"`
	Phone            string       `json:"phone"`
	Email            string       `json:"email,omitempty"`
	FormattedAddress string       `json:"formatted_address"`
	CreatedAt        string       `json:"created_at"`
}

func toCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:               c.ID,
		Name:             c.Name,
		Location:         locationBody(c.Location),
		Phone:            c.Phone,
		Email:            c.Email,
		FormattedAddress: c.FormattedAddress,
		CreatedAt:        formatTime(c.CreatedAt),
	}
}

// Register handles POST /v1/companies
func (h *CompanyHandler) Register(c *gin.Context) {
	var req RegisterCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	company, err := h.companyService.Register(c.Request.Context(), service.RegisterCompanyRequest{
		Name:             req.Name,
		Location:         req.Location.point(),
		Phone:            req.Phone,
		Email:            req.Email,
		FormattedAddress: req.FormattedAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toCompanyResponse(company))
}

// GetAll handles GET /v1/companies
func (h *CompanyHandler) GetAll(c *gin.Context) {
	companies, err := h.companyService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]CompanyResponse, 0, len(companies))
	for _, company := range companies {
		response = append(response, toCompanyResponse(company))
	}

	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /v1/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.companyService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCompanyResponse(company))
}

// GetRiders handles GET /v1/companies/:id/riders
func (h *CompanyHandler) GetRiders(c *gin.Context) {
	companyID := c.Param("id")
	if _, err := h.companyService.Get(c.Request.Context(), companyID); err != nil {
		respondError(c, err)
		return
	}

	riders, err := h.riderService.List(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderResponses(riders))
}

// GetOrders handles GET /v1/companies/:id/orders
func (h *CompanyHandler) GetOrders(c *gin.Context) {
	companyID := c.Param("id")
	if _, err := h.companyService.Get(c.Request.Context(), companyID); err != nil {
		respondError(c, err)
		return
	}

	orders, err := h.orderService.List(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponses(orders))
}
