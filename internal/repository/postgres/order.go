package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

const orderColumns = `id, customer_name, customer_phone, pickup_lat, pickup_lng, details,
	COALESCE(company_id, ''), COALESCE(assigned_rider_id, ''), status, formatted_address,
	created_at, assigned_at, closed_at`

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (id, customer_name, customer_phone, pickup_lat, pickup_lng, details,
			company_id, assigned_rider_id, status, formatted_address, created_at, assigned_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.CustomerName,
		order.CustomerPhone,
		order.Pickup.Lat,
		order.Pickup.Lng,
		order.Details,
		nullString(order.CompanyID),
		nullString(order.AssignedRiderID),
		order.Status,
		order.FormattedAddress,
		order.CreatedAt,
		nullTime(order.AssignedAt),
		nullTime(order.ClosedAt),
	)
	return err
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetAll retrieves all orders, newest first.
func (r *OrderRepository) GetAll(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.query(ctx, query)
}

// GetByCompany retrieves the orders of one company, newest first.
func (r *OrderRepository) GetByCompany(ctx context.Context, companyID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE company_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, companyID)
}

// GetByRider retrieves the orders assigned to one rider, newest first.
func (r *OrderRepository) GetByRider(ctx context.Context, riderID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE assigned_rider_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, riderID)
}

// markAssigned moves a pending order to assigned.
func (r *OrderRepository) markAssigned(ctx context.Context, orderID, riderID, companyID string, at time.Time) error {
	query := `UPDATE orders SET status = $1, assigned_rider_id = $2, company_id = $3, assigned_at = $4
		WHERE id = $5 AND status = $6`

	result, err := r.q.ExecContext(ctx, query,
		domain.OrderStatusAssigned, riderID, companyID, at, orderID, domain.OrderStatusPending)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// markClosed moves an open order to a terminal status and returns the rider
// and company stored on the row, which may differ from the caller's copy.
func (r *OrderRepository) markClosed(ctx context.Context, orderID string, status domain.OrderStatus, at time.Time) (riderID, companyID string, err error) {
	query := `UPDATE orders SET status = $1, closed_at = $2
		WHERE id = $3 AND status = ANY($4)
		RETURNING COALESCE(assigned_rider_id, ''), COALESCE(company_id, '')`

	from := make([]string, 0, 2)
	for _, st := range status.ClosableFrom() {
		from = append(from, string(st))
	}

	err = r.q.QueryRowContext(ctx, query, status, at, orderID, pq.Array(from)).Scan(&riderID, &companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", repository.ErrStatusConflict
	}
	return riderID, companyID, err
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o          domain.Order
		assignedAt sql.NullTime
		closedAt   sql.NullTime
	)
	err := row.Scan(
		&o.ID,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.Pickup.Lat,
		&o.Pickup.Lng,
		&o.Details,
		&o.CompanyID,
		&o.AssignedRiderID,
		&o.Status,
		&o.FormattedAddress,
		&o.CreatedAt,
		&assignedAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}
	o.AssignedAt = assignedAt.Time
	o.ClosedAt = closedAt.Time
	return &o, nil
}
