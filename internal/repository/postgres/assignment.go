package postgres

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/domain"
)

// AssignmentRepository runs rider claims and releases inside one transaction.
type AssignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new PostgreSQL assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Assign atomically claims the rider and assigns the order to it.
func (r *AssignmentRepository) Assign(ctx context.Context, order *domain.Order, riderID string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txRiderRepo := NewRiderRepositoryWithTx(tx)
	txOrderRepo := NewOrderRepositoryWithTx(tx)

	companyID, err := txRiderRepo.claim(ctx, riderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err = txOrderRepo.markAssigned(ctx, order.ID, riderID, companyID, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	order.Status = domain.OrderStatusAssigned
	order.AssignedRiderID = riderID
	order.CompanyID = companyID
	order.AssignedAt = now
	return nil
}

// Release closes the order and frees the rider stored on it.
func (r *AssignmentRepository) Release(ctx context.Context, order *domain.Order, status domain.OrderStatus) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txRiderRepo := NewRiderRepositoryWithTx(tx)
	txOrderRepo := NewOrderRepositoryWithTx(tx)

	now := time.Now().UTC()
	riderID, companyID, err := txOrderRepo.markClosed(ctx, order.ID, status, now)
	if err != nil {
		return err
	}

	if riderID != "" {
		if err = txRiderRepo.UpdateAvailability(ctx, riderID, true); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	order.AssignedRiderID = riderID
	order.CompanyID = companyID
	order.Status = status
	order.ClosedAt = now
	return nil
}
