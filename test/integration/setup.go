package integration

import (
	"context"
	"testing"
	"time"

	"zerowaste/internal/database"
	"zerowaste/internal/model"
	"zerowaste/internal/repository"
	"zerowaste/internal/seed"
	"zerowaste/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connects to it and
// applies the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.Connect(ctx, connStr, database.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// Services bundles the Postgres-backed stores and services of a test.
type Services struct {
	Organizations repository.OrganizationRepository
	Donations     repository.DonationRepository
	Registry      service.DonationService
	Coordinator   service.ReservationService
}

// NewServices wires the services over pool.
func NewServices(pool *pgxpool.Pool) *Services {
	logger := zerolog.Nop()
	orgs := repository.NewOrganizationRepository(pool, logger)
	donations := repository.NewDonationRepository(pool, logger)
	return &Services{
		Organizations: orgs,
		Donations:     donations,
		Registry:      service.NewDonationService(donations, orgs, logger),
		Coordinator:   service.NewReservationService(donations, orgs, logger),
	}
}

// RegisterOrganization inserts an organization and returns its actor.
func RegisterOrganization(t *testing.T, s *Services, kind model.ActorKind, name string) model.Actor {
	t.Helper()

	org := &model.Organization{
		ID:        seed.StableID(name),
		Kind:      kind,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Organizations.Upsert(context.Background(), org); err != nil {
		t.Fatalf("failed to register organization %s: %v", name, err)
	}
	return org.Actor()
}

// SeedSample imports the sample data set.
func SeedSample(t *testing.T, s *Services) seed.Summary {
	t.Helper()

	sum, err := seed.NewImporter(nil, s.Organizations, s.Registry, s.Coordinator, zerolog.Nop()).
		Apply(context.Background(), seed.Sample())
	if err != nil {
		t.Fatalf("failed to seed sample data: %v", err)
	}
	return sum
}

// CleanupDB removes all rows from the test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE donations, organizations"); err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
