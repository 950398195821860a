package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"dispatch/internal/config"
	"dispatch/internal/repository"
	fsrepo "dispatch/internal/repository/firestore"
	"dispatch/internal/repository/postgres"
)

// Stores groups the repositories of the selected backend.
type Stores struct {
	Companies   repository.CompanyRepository
	Riders      repository.RiderRepository
	Orders      repository.OrderRepository
	Assignments repository.AssignmentRepository

	close func() error
}

// Close releases the backend connection.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewStores connects to the backend named by cfg.Store.Driver and builds its
// repositories. Postgres runs schema migrations first when enabled.
func NewStores(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, logger *zap.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFirestore:
		client, err := fsrepo.NewClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to firestore", zap.String("project_id", cfg.Firestore.ProjectID))

		return &Stores{
			Companies:   fsrepo.NewCompanyRepository(client),
			Riders:      fsrepo.NewRiderRepository(client),
			Orders:      fsrepo.NewOrderRepository(client),
			Assignments: fsrepo.NewAssignmentRepository(client),
			close:       client.Close,
		}, nil

	case config.StoreDriverPostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to postgres",
			zap.String("host", cfg.Database.Host),
			zap.String("db", cfg.Database.DBName),
		)

		if cfg.Database.MigrateOnStart {
			if err := postgres.NewMigrator(db).Up(ctx); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("database migrations applied")
		}

		return &Stores{
			Companies:   postgres.NewCompanyRepository(db),
			Riders:      postgres.NewRiderRepository(db),
			Orders:      postgres.NewOrderRepository(db),
			Assignments: postgres.NewAssignmentRepository(db),
			close:       db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
