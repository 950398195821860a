package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// AssignmentRepository runs rider claims and releases inside Firestore transactions.
type AssignmentRepository struct {
	client *firestore.Client
}

// NewAssignmentRepository creates a new Firestore assignment repository.
func NewAssignmentRepository(client *firestore.Client) *AssignmentRepository {
	return &AssignmentRepository{client: client}
}

// Assign atomically claims the rider and assigns the order to it.
func (r *AssignmentRepository) Assign(ctx context.Context, order *domain.Order, riderID string) error {
	riderRef := r.client.Collection(ridersCollection).Doc(riderID)
	orderRef := r.client.Collection(ordersCollection).Doc(order.ID)

	var (
		companyID string
		now       time.Time
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All reads must precede writes within a transaction.
		riderSnap, err := tx.Get(riderRef)
		if err != nil {
			return err
		}
		orderSnap, err := tx.Get(orderRef)
		if err != nil {
			return err
		}

		var rider riderDoc
		if err := riderSnap.DataTo(&rider); err != nil {
			return fmt.Errorf("failed to parse rider: %w", err)
		}
		var current orderDoc
		if err := orderSnap.DataTo(&current); err != nil {
			return fmt.Errorf("failed to parse order: %w", err)
		}

		if !rider.IsAvailable {
			return repository.ErrRiderUnavailable
		}
		if domain.OrderStatus(current.Status) != domain.OrderStatusPending {
			return repository.ErrStatusConflict
		}

		companyID = rider.CompanyID
		now = time.Now().UTC()

		if err := tx.Update(riderRef, []firestore.Update{
			{Path: "isAvailable", Value: false},
		}); err != nil {
			return err
		}
		return tx.Update(orderRef, []firestore.Update{
			{Path: "status", Value: string(domain.OrderStatusAssigned)},
			{Path: "assignedRiderId", Value: riderID},
			{Path: "companyId", Value: companyID},
			{Path: "assignedAt", Value: now.UnixMilli()},
		})
	})
	if err != nil {
		return translateError(err)
	}

	order.Status = domain.OrderStatusAssigned
	order.AssignedRiderID = riderID
	order.CompanyID = companyID
	order.AssignedAt = now
	return nil
}

// Release closes the order and frees the rider stored on it.
func (r *AssignmentRepository) Release(ctx context.Context, order *domain.Order, status domain.OrderStatus) error {
	orderRef := r.client.Collection(ordersCollection).Doc(order.ID)

	var (
		current orderDoc
		now     time.Time
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current = orderDoc{}
		orderSnap, err := tx.Get(orderRef)
		if err != nil {
			return err
		}

		if err := orderSnap.DataTo(&current); err != nil {
			return fmt.Errorf("failed to parse order: %w", err)
		}
		if !domain.OrderStatus(current.Status).CanCloseAs(status) {
			return repository.ErrStatusConflict
		}

		now = time.Now().UTC()
		if err := tx.Update(orderRef, []firestore.Update{
			{Path: "status", Value: string(status)},
			{Path: "closedAt", Value: now.UnixMilli()},
		}); err != nil {
			return err
		}

		if current.AssignedRiderID == "" {
			return nil
		}
		riderRef := r.client.Collection(ridersCollection).Doc(current.AssignedRiderID)
		return tx.Update(riderRef, []firestore.Update{
			{Path: "isAvailable", Value: true},
		})
	})
	if err != nil {
		return translateError(err)
	}

	order.AssignedRiderID = current.AssignedRiderID
	order.CompanyID = current.CompanyID
	order.Status = status
	order.ClosedAt = now
	return nil
}

func translateError(err error) error {
	if status.Code(err) == codes.NotFound {
		return repository.ErrNotFound
	}
	return err
}
