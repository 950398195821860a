package postgres

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// nullTime maps a zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var (
	_ repository.CompanyRepository    = (*CompanyRepository)(nil)
	_ repository.RiderRepository      = (*RiderRepository)(nil)
	_ repository.OrderRepository      = (*OrderRepository)(nil)
	_ repository.AssignmentRepository = (*AssignmentRepository)(nil)
)
