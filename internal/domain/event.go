package domain

import "time"

// EventType identifies a marketplace event.
type EventType string

const (
	EventCompanyRegistered EventType = "company.registered"
	EventRiderRegistered   EventType = "rider.registered"
	EventRiderAvailability EventType = "rider.availability"
	EventOrderPlaced       EventType = "order.placed"
	EventOrderAssigned     EventType = "order.assigned"
	EventOrderCompleted    EventType = "order.completed"
	EventOrderCancelled    EventType = "order.cancelled"
)

// Event is emitted after a state change has been persisted.
type Event struct {
	ID         string
	Type       EventType
	CompanyID  string
	OrderID    string
	RiderID    string
	Location   GeoPoint
	OccurredAt time.Time
}
