package domain

import "time"

// OrderStatus represents the current status of a pickup order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAssigned  OrderStatus = "assigned"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Open reports whether the order still holds (or waits for) a rider.
func (s OrderStatus) Open() bool {
	return s == OrderStatusPending || s == OrderStatusAssigned
}

// ClosableFrom lists the statuses an order may move to s from.
// Only an assigned order completes; any open order can be cancelled.
func (s OrderStatus) ClosableFrom() []OrderStatus {
	if s == OrderStatusCompleted {
		return []OrderStatus{OrderStatusAssigned}
	}
	return []OrderStatus{OrderStatusPending, OrderStatusAssigned}
}

// CanCloseAs reports whether an order in s may move to the terminal status next.
func (s OrderStatus) CanCloseAs(next OrderStatus) bool {
	for _, from := range next.ClosableFrom() {
		if s == from {
			return true
		}
	}
	return false
}

// Order represents a customer pickup request.
type Order struct {
	ID               string
	CustomerName     string
	CustomerPhone    string
	Pickup           GeoPoint
	Details          string
	CompanyID        string // Empty until a rider is assigned when placed without a company
	AssignedRiderID  string
	Status           OrderStatus
	FormattedAddress string
	CreatedAt        time.Time
	AssignedAt       time.Time
	ClosedAt         time.Time // Set when the order is completed or cancelled
}
