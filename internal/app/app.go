// Package app assembles stores and services from configuration. The API
// server and the operator CLI share it so both run against the same wiring.
package app

import (
	"context"
	"fmt"

	"zerowaste/internal/config"
	"zerowaste/internal/dashboard"
	"zerowaste/internal/database"
	"zerowaste/internal/repository"
	"zerowaste/internal/seed"
	"zerowaste/internal/service"

	"github.com/rs/zerolog"
)

// App holds the wired components of one process.
type App struct {
	Organizations repository.OrganizationRepository
	Donations     repository.DonationRepository
	Registry      service.DonationService
	Coordinator   service.ReservationService
	Loader        *dashboard.Loader

	close func()
}

// New opens the configured store and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{close: func() {}}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := repository.NewMemoryStore(logger)
		a.Organizations = store.Organizations()
		a.Donations = store.Donations()
		logger.Warn().Msg("using in-memory store, data is lost on exit")

	case config.StoreDriverPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if cfg.Store.AutoMigrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		a.Organizations = repository.NewOrganizationRepository(pool, logger)
		a.Donations = repository.NewDonationRepository(pool, logger)
		a.close = pool.Close

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	a.Registry = service.NewDonationService(a.Donations, a.Organizations, logger)
	a.Coordinator = service.NewReservationService(a.Donations, a.Organizations, logger)
	a.Loader = dashboard.NewLoader(a.Registry, a.Organizations)
	return a, nil
}

// Close releases the store.
func (a *App) Close() {
	a.close()
}

// SeedLoader returns the loader for seed files: S3 first when enabled, then
// the local file system.
func SeedLoader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) seed.Loader {
	fileLoader := seed.NewFileLoader(logger)
	if !cfg.S3.Enabled {
		logger.Info().Msg("using local file system for seed files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := seed.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}
	return seed.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger)
}

// Importer returns a seed importer writing through the services of a.
func (a *App) Importer(loader seed.Loader, logger zerolog.Logger) *seed.Importer {
	return seed.NewImporter(loader, a.Organizations, a.Registry, a.Coordinator, logger)
}
