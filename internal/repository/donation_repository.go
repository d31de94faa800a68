package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const donationColumns = `id, establishment_id, food_bank_id, product_name, description,
	quantity, unit, expiration_date, photo_ref, status, reserved_at, completed_at,
	created_at, updated_at`

// donationRepository implements the DonationRepository interface using PostgreSQL.
type donationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDonationRepository creates a new PostgreSQL-backed donation repository.
func NewDonationRepository(pool *pgxpool.Pool, logger zerolog.Logger) DonationRepository {
	return &donationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "donation").Logger(),
	}
}

// Create inserts a new donation.
func (r *donationRepository) Create(ctx context.Context, d *model.Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.EstablishmentID, d.FoodBankID, d.ProductName, d.Description,
		d.Quantity, d.Unit, d.ExpirationDate, d.PhotoRef, string(d.Status),
		d.ReservedAt, d.CompletedAt, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("donation_id", d.ID.String()).
			Msg("failed to create donation")
		return fmt.Errorf("failed to create donation: %w", err)
	}

	r.logger.Debug().
		Str("donation_id", d.ID.String()).
		Msg("donation created successfully")

	return nil
}

// GetByID retrieves a donation by ID.
func (r *donationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`

	d, err := scanDonation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("donation_id", id.String()).Msg("donation not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("donation_id", id.String()).Msg("failed to query donation")
		return nil, fmt.Errorf("failed to query donation: %w", err)
	}

	return &d, nil
}

// List retrieves the donations matching filter.
func (r *donationRepository) List(ctx context.Context, filter model.DonationFilter) ([]model.Donation, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.EstablishmentID != nil {
		args = append(args, *filter.EstablishmentID)
		conditions = append(conditions, fmt.Sprintf("establishment_id = $%d", len(args)))
	}
	if filter.FoodBankID != nil {
		args = append(args, *filter.FoodBankID)
		conditions = append(conditions, fmt.Sprintf("food_bank_id = $%d", len(args)))
	}

	query := `SELECT ` + donationColumns + ` FROM donations`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query donations")
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	donations := []model.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan donation row")
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating donation rows")
		return nil, fmt.Errorf("error iterating donations: %w", err)
	}

	return donations, nil
}

// Update applies non-status changes while the donation is not COMPLETED.
func (r *donationRepository) Update(ctx context.Context, id uuid.UUID, c model.DonationChanges, at time.Time) (*model.Donation, error) {
	query := `
		UPDATE donations
		SET product_name = COALESCE($2, product_name),
			description = COALESCE($3, description),
			quantity = COALESCE($4, quantity),
			unit = COALESCE($5, unit),
			expiration_date = COALESCE($6, expiration_date),
			photo_ref = COALESCE($7, photo_ref),
			updated_at = $8
		WHERE id = $1 AND status <> 'COMPLETED'
		RETURNING ` + donationColumns

	d, err := scanDonation(r.pool.QueryRow(ctx, query,
		id, c.ProductName, c.Description, c.Quantity, c.Unit, c.ExpirationDate, c.PhotoRef, at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("donation_id", id.String()).Msg("donation missing or completed, update skipped")
			return nil, model.ErrStaleRecord
		}
		r.logger.Error().Err(err).Str("donation_id", id.String()).Msg("failed to update donation")
		return nil, fmt.Errorf("failed to update donation: %w", err)
	}

	return &d, nil
}

// Delete removes the donation while it is not COMPLETED.
func (r *donationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM donations WHERE id = $1 AND status <> 'COMPLETED'`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("donation_id", id.String()).Msg("failed to delete donation")
		return fmt.Errorf("failed to delete donation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("donation_id", id.String()).Msg("donation missing or completed, delete skipped")
		return model.ErrStaleRecord
	}

	return nil
}

// Transition writes a status change if the stored status and holder still
// match the expected values. The WHERE clause is the compare-and-set: of two
// racing writers with the same precondition only one matches the row.
func (r *donationRepository) Transition(ctx context.Context, t model.Transition) (*model.Donation, error) {
	query := `
		UPDATE donations
		SET status = $2,
			food_bank_id = $3,
			reserved_at = $4,
			completed_at = $5,
			updated_at = $6
		WHERE id = $1
			AND status = $7
			AND food_bank_id IS NOT DISTINCT FROM $8
		RETURNING ` + donationColumns

	d, err := scanDonation(r.pool.QueryRow(ctx, query,
		t.DonationID, string(t.ToStatus), t.ToFoodBank, t.ReservedAt, t.CompletedAt, t.At,
		string(t.FromStatus), t.FromFoodBank,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("donation_id", t.DonationID.String()).
				Str("from", string(t.FromStatus)).
				Str("to", string(t.ToStatus)).
				Msg("transition precondition no longer holds")
			return nil, model.ErrStaleRecord
		}
		r.logger.Error().
			Err(err).
			Str("donation_id", t.DonationID.String()).
			Msg("failed to transition donation")
		return nil, fmt.Errorf("failed to transition donation: %w", err)
	}

	r.logger.Debug().
		Str("donation_id", d.ID.String()).
		Str("status", string(d.Status)).
		Msg("donation transitioned")

	return &d, nil
}

// scanDonation reads one donation from a row produced with donationColumns.
func scanDonation(row pgx.Row) (model.Donation, error) {
	var (
		d      model.Donation
		status string
	)
	err := row.Scan(
		&d.ID,
		&d.EstablishmentID,
		&d.FoodBankID,
		&d.ProductName,
		&d.Description,
		&d.Quantity,
		&d.Unit,
		&d.ExpirationDate,
		&d.PhotoRef,
		&status,
		&d.ReservedAt,
		&d.CompletedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	d.Status = model.Status(status)
	return d, err
}
