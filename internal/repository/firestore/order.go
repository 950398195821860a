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

// OrderRepository is a Firestore implementation of repository.OrderRepository.
type OrderRepository struct {
	client *firestore.Client
}

// NewOrderRepository creates a new Firestore order repository.
func NewOrderRepository(client *firestore.Client) *OrderRepository {
	return &OrderRepository{client: client}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.client.Collection(ordersCollection).Doc(order.ID).Set(ctx, toOrderDoc(order))
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	snap, err := r.client.Collection(ordersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	var doc orderDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse order: %w", err)
	}
	return doc.order(snap.Ref.ID), nil
}

// GetAll retrieves all orders, newest first.
func (r *OrderRepository) GetAll(ctx context.Context) ([]*domain.Order, error) {
	return collectOrders(r.client.Collection(ordersCollection).Documents(ctx))
}

// GetByCompany retrieves the orders of one company, newest first.
func (r *OrderRepository) GetByCompany(ctx context.Context, companyID string) ([]*domain.Order, error) {
	q := r.client.Collection(ordersCollection).Where("companyId", "==", companyID)
	return collectOrders(q.Documents(ctx))
}

// GetByRider retrieves the orders assigned to one rider, newest first.
func (r *OrderRepository) GetByRider(ctx context.Context, riderID string) ([]*domain.Order, error) {
	q := r.client.Collection(ordersCollection).Where("assignedRiderId", "==", riderID)
	return collectOrders(q.Documents(ctx))
}

func collectOrders(iter *firestore.DocumentIterator) ([]*domain.Order, error) {
	defer iter.Stop()

	var orders []*domain.Order
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate orders: %w", err)
		}

		var doc orderDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse order: %w", err)
		}
		orders = append(orders, doc.order(snap.Ref.ID))
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
