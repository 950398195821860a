package repository

import (
	"context"

	"dispatch/internal/domain"
)

// CompanyRepository defines the persistence operations for companies.
type CompanyRepository interface {
	// Create persists a new company.
	Create(ctx context.Context, company *domain.Company) error

	// GetByID retrieves a company by ID.
	GetByID(ctx context.Context, id string) (*domain.Company, error)

	// GetAll retrieves all companies, newest first.
	GetAll(ctx context.Context) ([]*domain.Company, error)
}
