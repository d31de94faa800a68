package repository

import (
	"context"
	"testing"
	"time"

	"zerowaste/internal/database"
	"zerowaste/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema
// and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL repository test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func newOrganization(kind model.ActorKind, name string) *model.Organization {
	return &model.Organization{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      name,
		Address:   "1 Market St",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func newDonation(establishmentID uuid.UUID, product string) *model.Donation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Donation{
		ID:              uuid.New(),
		EstablishmentID: establishmentID,
		ProductName:     product,
		Quantity:        10,
		Unit:            model.UnitKilogram,
		ExpirationDate:  now.Add(48 * time.Hour),
		Status:          model.StatusAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
