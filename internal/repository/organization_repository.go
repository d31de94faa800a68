package repository

import (
	"context"
	"errors"
	"fmt"

	"zerowaste/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// organizationRepository implements the OrganizationRepository interface using PostgreSQL.
type organizationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrganizationRepository creates a new PostgreSQL-backed organization repository.
func NewOrganizationRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrganizationRepository {
	return &organizationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "organization").Logger(),
	}
}

// Upsert inserts the organization or replaces its profile fields. The kind of
// an existing organization never changes.
func (r *organizationRepository) Upsert(ctx context.Context, org *model.Organization) error {
	query := `
		INSERT INTO organizations (id, kind, name, address, contact_phone, opening_hours, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			address = EXCLUDED.address,
			contact_phone = EXCLUDED.contact_phone,
			opening_hours = EXCLUDED.opening_hours,
			description = EXCLUDED.description
		WHERE organizations.kind = EXCLUDED.kind
	`

	tag, err := r.pool.Exec(ctx, query,
		org.ID, string(org.Kind), org.Name, org.Address, org.ContactPhone,
		org.OpeningHours, org.Description, org.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("organization_id", org.ID.String()).
			Msg("failed to upsert organization")
		return fmt.Errorf("failed to upsert organization: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("organization_id", org.ID.String()).
			Str("kind", string(org.Kind)).
			Msg("organization exists with a different kind")
		return fmt.Errorf("organization %s already exists with a different kind", org.ID)
	}

	return nil
}

// GetByID retrieves an organization by ID.
func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `
		SELECT id, kind, name, address, contact_phone, opening_hours, description, created_at
		FROM organizations
		WHERE id = $1
	`

	org, err := scanOrganization(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("organization_id", id.String()).Msg("organization not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("organization_id", id.String()).Msg("failed to query organization")
		return nil, fmt.Errorf("failed to query organization: %w", err)
	}

	return &org, nil
}

// List retrieves every organization ordered by name.
func (r *organizationRepository) List(ctx context.Context) ([]model.Organization, error) {
	query := `
		SELECT id, kind, name, address, contact_phone, opening_hours, description, created_at
		FROM organizations
		ORDER BY name, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query organizations")
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	orgs := []model.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan organization row")
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating organization rows")
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

func scanOrganization(row pgx.Row) (model.Organization, error) {
	var (
		org  model.Organization
		kind string
	)
	err := row.Scan(
		&org.ID,
		&kind,
		&org.Name,
		&org.Address,
		&org.ContactPhone,
		&org.OpeningHours,
		&org.Description,
		&org.CreatedAt,
	)
	org.Kind = model.ActorKind(kind)
	return org, err
}
