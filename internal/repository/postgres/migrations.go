package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrator applies the schema in order. Every step is idempotent.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a migrator for the given database.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

type migration struct {
	Name string
	SQL  string
}

var migrations = []migration{
	{
		Name: "create_schema_version",
		SQL: `CREATE TABLE IF NOT EXISTS schema_version (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "create_companies",
		SQL: `CREATE TABLE IF NOT EXISTS companies (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			lat               DOUBLE PRECISION NOT NULL,
			lng               DOUBLE PRECISION NOT NULL,
			phone             TEXT NOT NULL,
			email             TEXT,
			formatted_address TEXT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "create_dispatch_riders",
		SQL: `CREATE TABLE IF NOT EXISTS dispatch_riders (
			id                TEXT PRIMARY KEY,
			company_id        TEXT NOT NULL REFERENCES companies(id),
			name              TEXT NOT NULL,
			lat               DOUBLE PRECISION NOT NULL,
			lng               DOUBLE PRECISION NOT NULL,
			phone             TEXT NOT NULL DEFAULT '',
			formatted_address TEXT NOT NULL,
			is_available      BOOLEAN NOT NULL DEFAULT TRUE,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "index_dispatch_riders_available",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_dispatch_riders_available ON dispatch_riders (company_id) WHERE is_available`,
	},
	{
		Name: "create_orders",
		SQL: `CREATE TABLE IF NOT EXISTS orders (
			id                TEXT PRIMARY KEY,
			customer_name     TEXT NOT NULL,
			customer_phone    TEXT NOT NULL,
			pickup_lat        DOUBLE PRECISION NOT NULL,
			pickup_lng        DOUBLE PRECISION NOT NULL,
			details           TEXT NOT NULL,
			company_id        TEXT REFERENCES companies(id),
			assigned_rider_id TEXT REFERENCES dispatch_riders(id),
			status            TEXT NOT NULL,
			formatted_address TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			assigned_at       TIMESTAMPTZ,
			closed_at         TIMESTAMPTZ
		)`,
	},
	{
		Name: "index_orders_company",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_orders_company ON orders (company_id, created_at DESC)`,
	},
	{
		Name: "index_orders_rider",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_orders_rider ON orders (assigned_rider_id)`,
	},
}

// Up applies all migrations in order and records each in schema_version.
func (m *Migrator) Up(ctx context.Context) error {
	for i, mg := range migrations {
		if _, err := m.db.ExecContext(ctx, mg.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i, mg.Name, err)
		}
		_, err := m.db.ExecContext(ctx,
			`INSERT INTO schema_version (version, name) VALUES ($1, $2) ON CONFLICT (version) DO NOTHING`,
			i+1, mg.Name)
		if err != nil {
			return fmt.Errorf("record migration %d (%s): %w", i, mg.Name, err)
		}
	}
	return nil
}
