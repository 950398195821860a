package handler

import (
	"github.com/gin-gonic/gin"

	"dispatch/internal/events"
)

// FeedHandler serves the live order event feed for map clients.
type FeedHandler struct {
	hub *events.Hub
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(hub *events.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Orders handles GET /v1/ws/orders?company_id=
func (h *FeedHandler) Orders(c *gin.Context) {
	events.ServeWs(h.hub, c.Writer, c.Request, c.Query("company_id"))
}
