package repository

import (
	"context"
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
)

// OrganizationRepository defines data access for establishments and food banks.
type OrganizationRepository interface {
	// Upsert inserts the organization or replaces its profile fields.
	Upsert(ctx context.Context, org *model.Organization) error

	// GetByID retrieves an organization by ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)

	// List retrieves every organization ordered by name.
	List(ctx context.Context) ([]model.Organization, error)
}

// DonationRepository defines data access for donation records. It is the only
// path to persisted donation state.
type DonationRepository interface {
	// Create inserts a new donation.
	Create(ctx context.Context, donation *model.Donation) error

	// GetByID retrieves a donation by ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error)

	// List retrieves the donations matching filter ordered by creation time.
	List(ctx context.Context, filter model.DonationFilter) ([]model.Donation, error)

	// Update applies non-status changes while the donation is not COMPLETED.
	// Returns model.ErrStaleRecord when no such donation exists.
	Update(ctx context.Context, id uuid.UUID, changes model.DonationChanges, at time.Time) (*model.Donation, error)

	// Delete removes the donation while it is not COMPLETED.
	// Returns model.ErrStaleRecord when no such donation exists.
	Delete(ctx context.Context, id uuid.UUID) error

	// Transition writes a status change only if the stored status and holder
	// still equal the transition's From values (compare-and-set).
	// Returns model.ErrStaleRecord when the precondition no longer holds.
	Transition(ctx context.Context, t model.Transition) (*model.Donation, error)
}
