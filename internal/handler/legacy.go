package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// LegacyHandler serves the legacy /api route shapes used by the web
// frontend: camelCase bodies, {"data": [...]} listings and message replies.
type LegacyHandler struct {
	companyService *service.CompanyService
	riderService   *service.RiderService
	orderService   *service.OrderService
}

// NewLegacyHandler creates a new LegacyHandler.
func NewLegacyHandler(companyService *service.CompanyService, riderService *service.RiderService, orderService *service.OrderService) *LegacyHandler {
	return &LegacyHandler{
		companyService: companyService,
		riderService:   riderService,
		orderService:   orderService,
	}
}

// LegacyCompanyRequest is the body of /api/companies/register and /api/companies/new.
// The /new route sends the coordinate as locationObject.
type LegacyCompanyRequest struct {
	CompanyName      string        `json:"companyName"`
	Location         *LocationBody `json:"location"`
	LocationObject   *LocationBody `json:"locationObject"`
	WhatsApp         string        `json:"whatsapp"`
	Email            string        `json:"email"`
	FormattedAddress string        `json:"formattedAddress"`
}

// LegacyRiderRequest is the body of /api/dispatch-riders/register.
type LegacyRiderRequest struct {
	CompanyID        string        `json:"companyId"`
	Name             string        `json:"name"`
	Location         *LocationBody `json:"location"`
	Phone            string        `json:"phone"`
	FormattedAddress string        `json:"formattedAddress"`
}

// LegacyOrderRequest is the body of /api/dispatch-riders/order.
type LegacyOrderRequest struct {
	OrderLocation *LocationBody `json:"orderLocation"`
	Details       string        `json:"details"`
}

// LegacyCompany is a company in the legacy document shape.
type LegacyCompany struct {
	ID               string       `json:"id"`
	CompanyName      string       `json:"companyName"`
	Location         LocationBody `json:"location"`
	WhatsApp         string       `json:"whatsapp"`
	Email            *string      `json:"email"`
	FormattedAddress string       `json:"formattedAddress"`
	CreatedAt        int64        `json:"createdAt"`
}

// LegacyRider is a rider in the legacy document shape.
type LegacyRider struct {
	ID               string       `json:"id"`
	CompanyID        string       `json:"companyId"`
	Name             string       `json:"name"`
	Location         LocationBody `json:"location"`
	FormattedAddress string       `json:"formattedAddress"`
	IsAvailable      bool         `json:"isAvailable"`
}

// LegacyMessage is the legacy success reply.
type LegacyMessage struct {
	Message string       `json:"message"`
	ID      string       `json:"id,omitempty"`
	Rider   *LegacyRider `json:"rider,omitempty"`
}

func toLegacyCompany(c *domain.Company) LegacyCompany {
	lc := LegacyCompany{
		ID:               c.ID,
		CompanyName:      c.Name,
		Location:         locationBody(c.Location),
		WhatsApp:         c.Phone,
		FormattedAddress: c.FormattedAddress,
		CreatedAt:        c.CreatedAt.UnixMilli(),
	}
	if c.Email != "" {
		email := c.Email
		lc.Email = &email
	}
	return lc
}

func toLegacyRider(r *domain.Rider) LegacyRider {
	return LegacyRider{
		ID:               r.ID,
		CompanyID:        r.CompanyID,
		Name:             r.Name,
		Location:         locationBody(r.Location),
		FormattedAddress: r.FormattedAddress,
		IsAvailable:      r.IsAvailable,
	}
}

// respondLegacyError keeps the legacy generic 500 messages and maps
// known errors like the v1 routes.
func respondLegacyError(c *gin.Context, err error, fallback string) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: fallback})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// GetCompanies handles GET /api/companies/get-all
func (h *LegacyHandler) GetCompanies(c *gin.Context) {
	companies, err := h.companyService.List(c.Request.Context())
	if err != nil {
		respondLegacyError(c, err, "Failed to fetch companies")
		return
	}

	data := make([]LegacyCompany, 0, len(companies))
	for _, company := range companies {
		data = append(data, toLegacyCompany(company))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// RegisterCompany handles POST /api/companies/register
func (h *LegacyHandler) RegisterCompany(c *gin.Context) {
	h.registerCompany(c, false)
}

// NewCompany handles POST /api/companies/new
func (h *LegacyHandler) NewCompany(c *gin.Context) {
	h.registerCompany(c, true)
}

func (h *LegacyHandler) registerCompany(c *gin.Context, useLocationObject bool) {
	var req LegacyCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	location := req.Location
	if useLocationObject {
		location = req.LocationObject
	}
	if req.CompanyName == "" || location == nil || req.WhatsApp == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields: name, location, or whatsapp"})
		return
	}

	company, err := h.companyService.Register(c.Request.Context(), service.RegisterCompanyRequest{
		Name:             req.CompanyName,
		Location:         location.point(),
		Phone:            req.WhatsApp,
		Email:            req.Email,
		FormattedAddress: req.FormattedAddress,
	})
	if err != nil {
		respondLegacyError(c, err, "Failed to add company")
		return
	}

	c.JSON(http.StatusCreated, LegacyMessage{Message: "Company added successfully", ID: company.ID})
}

// GetRiders handles GET /api/dispatch-riders/get-all
func (h *LegacyHandler) GetRiders(c *gin.Context) {
	riders, err := h.riderService.List(c.Request.Context(), "")
	if err != nil {
		respondLegacyError(c, err, "Failed to fetch riders")
		return
	}

	data := make([]LegacyRider, 0, len(riders))
	for _, r := range riders {
		data = append(data, toLegacyRider(r))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// RegisterRider handles POST /api/dispatch-riders/register
func (h *LegacyHandler) RegisterRider(c *gin.Context) {
	var req LegacyRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.CompanyID == "" || req.Name == "" || req.Location == nil || req.FormattedAddress == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing fields"})
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
		respondLegacyError(c, err, "Failed to register rider")
		return
	}

	c.JSON(http.StatusCreated, LegacyMessage{Message: "Rider registered successfully", ID: rider.ID})
}

// OrderRider handles POST /api/dispatch-riders/order. The order is matched
// against riders of every company. When none is free the order is kept
// pending and the reply is 404.
func (h *LegacyHandler) OrderRider(c *gin.Context) {
	var req LegacyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.OrderLocation == nil || req.Details == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing order details"})
		return
	}

	result, err := h.orderService.Place(c.Request.Context(), service.PlaceOrderRequest{
		Pickup:  req.OrderLocation.point(),
		Details: req.Details,
	})
	if err != nil {
		respondLegacyError(c, err, "Failed to process order")
		return
	}

	if !result.RiderAssigned {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No available riders"})
		return
	}

	rider := toLegacyRider(result.Rider)
	c.JSON(http.StatusOK, LegacyMessage{Message: "Rider assigned successfully", Rider: &rider})
}
