package repository

import (
	"context"

	"dispatch/internal/domain"
)

// RiderRepository defines the persistence operations for dispatch riders.
type RiderRepository interface {
	// Create persists a new rider.
	Create(ctx context.Context, rider *domain.Rider) error

	// GetByID retrieves a rider by ID.
	GetByID(ctx context.Context, id string) (*domain.Rider, error)

	// GetAll retrieves all riders.
	GetAll(ctx context.Context) ([]*domain.Rider, error)

	// GetByCompany retrieves the riders of one company.
	GetByCompany(ctx context.Context, companyID string) ([]*domain.Rider, error)

	// GetAvailable retrieves available riders. An empty companyID means every company.
	GetAvailable(ctx context.Context, companyID string) ([]*domain.Rider, error)

	// UpdateAvailability sets the availability flag of a rider.
	UpdateAvailability(ctx context.Context, id string, available bool) error
}
