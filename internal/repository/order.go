package repository

import (
	"context"

	"dispatch/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetAll retrieves all orders, newest first.
	GetAll(ctx context.Context) ([]*domain.Order, error)

	// GetByCompany retrieves the orders of one company, newest first.
	GetByCompany(ctx context.Context, companyID string) ([]*domain.Order, error)

	// GetByRider retrieves the orders assigned to one rider, newest first.
	GetByRider(ctx context.Context, riderID string) ([]*domain.Order, error)
}

// AssignmentRepository performs the multi-document writes of the order
// lifecycle atomically.
type AssignmentRepository interface {
	// Assign claims riderID if it is still available and stores the order as
	// assigned to it. Returns ErrRiderUnavailable when the claim is lost, and
	// ErrStatusConflict when the order is no longer pending.
	Assign(ctx context.Context, order *domain.Order, riderID string) error

	// Release moves an open order to a terminal status and, when a rider was
	// assigned, makes that rider available again.
	// Returns ErrStatusConflict when the order is no longer open.
	Release(ctx context.Context, order *domain.Order, status domain.OrderStatus) error
}
