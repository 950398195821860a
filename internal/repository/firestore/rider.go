package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RiderRepository is a Firestore implementation of repository.RiderRepository.
type RiderRepository struct {
	client *firestore.Client
}

// NewRiderRepository creates a new Firestore rider repository.
func NewRiderRepository(client *firestore.Client) *RiderRepository {
	return &RiderRepository{client: client}
}

// Create persists a new rider.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	_, err := r.client.Collection(ridersCollection).Doc(rider.ID).Set(ctx, toRiderDoc(rider))
	if err != nil {
		return fmt.Errorf("failed to create rider: %w", err)
	}
	return nil
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	snap, err := r.client.Collection(ridersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rider: %w", err)
	}

	var doc riderDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse rider: %w", err)
	}
	return doc.rider(snap.Ref.ID), nil
}

// GetAll retrieves all riders.
func (r *RiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	return collectRiders(r.client.Collection(ridersCollection).Documents(ctx))
}

// GetByCompany retrieves the riders of one company.
func (r *RiderRepository) GetByCompany(ctx context.Context, companyID string) ([]*domain.Rider, error) {
	q := r.client.Collection(ridersCollection).Where("companyId", "==", companyID)
	return collectRiders(q.Documents(ctx))
}

// GetAvailable retrieves available riders. An empty companyID means every company.
func (r *RiderRepository) GetAvailable(ctx context.Context, companyID string) ([]*domain.Rider, error) {
	q := r.client.Collection(ridersCollection).Where("isAvailable", "==", true)
	if companyID != "" {
		q = q.Where("companyId", "==", companyID)
	}
	return collectRiders(q.Documents(ctx))
}

// UpdateAvailability sets the availability flag of a rider.
func (r *RiderRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	_, err := r.client.Collection(ridersCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isAvailable", Value: available},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to update rider availability: %w", err)
	}
	return nil
}

func collectRiders(iter *firestore.DocumentIterator) ([]*domain.Rider, error) {
	defer iter.Stop()

	var riders []*domain.Rider
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate riders: %w", err)
		}

		var doc riderDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse rider: %w", err)
		}
		riders = append(riders, doc.rider(snap.Ref.ID))
	}
	return riders, nil
}
