package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// CompanyRepository is a Firestore implementation of repository.CompanyRepository.
type CompanyRepository struct {
	client *firestore.Client
}

// NewCompanyRepository creates a new Firestore company repository.
func NewCompanyRepository(client *firestore.Client) *CompanyRepository {
	return &CompanyRepository{client: client}
}

// Create persists a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	_, err := r.client.Collection(companiesCollection).Doc(company.ID).Set(ctx, toCompanyDoc(company))
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	snap, err := r.client.Collection(companiesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	var doc companyDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse company: %w", err)
	}
	return doc.company(snap.Ref.ID), nil
}

// GetAll retrieves all companies, newest first.
func (r *CompanyRepository) GetAll(ctx context.Context) ([]*domain.Company, error) {
	iter := r.client.Collection(companiesCollection).Documents(ctx)
	defer iter.Stop()

	var companies []*domain.Company
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate companies: %w", err)
		}

		var doc companyDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse company: %w", err)
		}
		companies = append(companies, doc.company(snap.Ref.ID))
	}

	// Sorted in memory to avoid requiring an index on createdAt.
	sort.SliceStable(companies, func(i, j int) bool {
		return companies[i].CreatedAt.After(companies[j].CreatedAt)
	})
	return companies, nil
}
