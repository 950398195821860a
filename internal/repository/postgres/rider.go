package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RiderRepository is a PostgreSQL implementation of repository.RiderRepository.
type RiderRepository struct {
	q Querier
}

// NewRiderRepository creates a new PostgreSQL rider repository.
func NewRiderRepository(db *sql.DB) *RiderRepository {
	return &RiderRepository{q: db}
}

// NewRiderRepositoryWithTx creates a rider repository using a transaction.
func NewRiderRepositoryWithTx(tx *sql.Tx) *RiderRepository {
	return &RiderRepository{q: tx}
}

const riderColumns = `id, company_id, name, lat, lng, phone, formatted_address, is_available, created_at`

// Create adds a new rider.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `INSERT INTO dispatch_riders (id, company_id, name, lat, lng, phone, formatted_address, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.ExecContext(ctx, query,
		rider.ID,
		rider.CompanyID,
		rider.Name,
		rider.Location.Lat,
		rider.Location.Lng,
		rider.Phone,
		rider.FormattedAddress,
		rider.IsAvailable,
		rider.CreatedAt,
	)
	return err
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM dispatch_riders WHERE id = $1`

	rider, err := scanRider(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rider, nil
}

// GetAll retrieves all riders.
func (r *RiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM dispatch_riders ORDER BY created_at`
	return r.query(ctx, query)
}

// GetByCompany retrieves the riders of one company.
func (r *RiderRepository) GetByCompany(ctx context.Context, companyID string) ([]*domain.Rider, error) {
	query := `SELECT ` + riderColumns + ` FROM dispatch_riders WHERE company_id = $1 ORDER BY created_at`
	return r.query(ctx, query, companyID)
}

// GetAvailable retrieves available riders, optionally scoped to one company.
func (r *RiderRepository) GetAvailable(ctx context.Context, companyID string) ([]*domain.Rider, error) {
	if companyID == "" {
		query := `SELECT ` + riderColumns + ` FROM dispatch_riders WHERE is_available = TRUE ORDER BY created_at`
		return r.query(ctx, query)
	}
	query := `SELECT ` + riderColumns + ` FROM dispatch_riders
		WHERE is_available = TRUE AND company_id = $1 ORDER BY created_at`
	return r.query(ctx, query, companyID)
}

// UpdateAvailability sets the availability flag of a rider.
func (r *RiderRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE dispatch_riders SET is_available = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, available, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// claim flips an available rider to unavailable and returns its company.
// Returns repository.ErrRiderUnavailable if the rider was already taken.
func (r *RiderRepository) claim(ctx context.Context, id string) (string, error) {
	query := `UPDATE dispatch_riders SET is_available = FALSE
		WHERE id = $1 AND is_available = TRUE RETURNING company_id`

	var companyID string
	err := r.q.QueryRowContext(ctx, query, id).Scan(&companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrRiderUnavailable
		}
		return "", err
	}
	return companyID, nil
}

func (r *RiderRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Rider, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*domain.Rider
	for rows.Next() {
		rider, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		riders = append(riders, rider)
	}
	return riders, rows.Err()
}

func scanRider(row rowScanner) (*domain.Rider, error) {
	var rd domain.Rider
	err := row.Scan(
		&rd.ID,
		&rd.CompanyID,
		&rd.Name,
		&rd.Location.Lat,
		&rd.Location.Lng,
		&rd.Phone,
		&rd.FormattedAddress,
		&rd.IsAvailable,
		&rd.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rd, nil
}
