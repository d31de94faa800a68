package service

import (
	"context"
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
)

// DonationService defines the donation registry: creation, edits and removal
// of offers by their owning establishment, plus reads.
type DonationService interface {
	// Create publishes a new AVAILABLE donation owned by the acting establishment.
	Create(ctx context.Context, actor model.Actor, req *model.CreateDonationRequest) (*model.Donation, error)

	// Edit changes non-status fields of a donation that is not yet completed.
	Edit(ctx context.Context, id uuid.UUID, actor model.Actor, req *model.EditDonationRequest) (*model.Donation, error)

	// Delete permanently removes a donation that is not yet completed.
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error

	// Get retrieves a single donation.
	Get(ctx context.Context, id uuid.UUID) (*model.Donation, error)

	// List retrieves donations matching the filter ordered by creation time.
	List(ctx context.Context, filter model.DonationFilter) ([]model.Donation, error)
}

// ReservationService is the only writer of donation status and food bank.
type ReservationService interface {
	// Accept reserves an AVAILABLE donation for the acting food bank.
	Accept(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error)

	// Cancel releases a reservation held by the acting food bank.
	Cancel(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error)

	// Complete records pickup of a reserved donation by its owning establishment.
	Complete(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error)
}

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for timestamps and expiration checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
