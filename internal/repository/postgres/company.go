package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// CompanyRepository is a PostgreSQL implementation of repository.CompanyRepository.
type CompanyRepository struct {
	q Querier
}

// NewCompanyRepository creates a new PostgreSQL company repository.
func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{q: db}
}

const companyColumns = `id, name, lat, lng, phone, COALESCE(email, ''), formatted_address, created_at`

// Create adds a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	query := `INSERT INTO companies (id, name, lat, lng, phone, email, formatted_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.Location.Lat,
		company.Location.Lng,
		company.Phone,
		nullString(company.Email),
		company.FormattedAddress,
		company.CreatedAt,
	)
	return err
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	company, err := scanCompany(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return company, nil
}

// GetAll retrieves all companies, newest first.
func (r *CompanyRepository) GetAll(ctx context.Context) ([]*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*domain.Company, error) {
	var c domain.Company
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Location.Lat,
		&c.Location.Lng,
		&c.Phone,
		&c.Email,
		&c.FormattedAddress,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
