package service

import (
	"context"
	"errors"
	"fmt"

	"zerowaste/internal/model"
	"zerowaste/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// donationService implements DonationService.
type donationService struct {
	donations repository.DonationRepository
	orgs      repository.OrganizationRepository
	opts      options
	logger    zerolog.Logger
}

// NewDonationService creates a new donation registry.
func NewDonationService(
	donations repository.DonationRepository,
	orgs repository.OrganizationRepository,
	logger zerolog.Logger,
	opts ...Option,
) DonationService {
	return &donationService{
		donations: donations,
		orgs:      orgs,
		opts:      buildOptions(opts),
		logger:    logger.With().Str("service", "donation").Logger(),
	}
}

// Create publishes a new donation for the acting establishment.
func (s *donationService) Create(ctx context.Context, actor model.Actor, req *model.CreateDonationRequest) (*model.Donation, error) {
	if err := requireOrganization(ctx, s.orgs, actor, model.KindEstablishment); err != nil {
		s.logger.Warn().Err(err).Str("actor", actor.String()).Msg("create rejected")
		return nil, err
	}

	now := s.opts.now().UTC()
	d, err := validateCreate(req, now)
	if err != nil {
		s.logger.Debug().Err(err).Str("actor", actor.String()).Msg("invalid donation")
		return nil, err
	}

	d.ID = uuid.New()
	d.EstablishmentID = actor.ID
	d.Status = model.StatusAvailable
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := s.donations.Create(ctx, &d); err != nil {
		s.logger.Error().Err(err).Str("donation_id", d.ID.String()).Msg("failed to create donation")
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	s.logger.Info().
		Str("donation_id", d.ID.String()).
		Str("establishment_id", actor.ID.String()).
		Msg("donation created successfully")

	return &d, nil
}

// Edit applies a partial update owned by the acting establishment.
func (s *donationService) Edit(ctx context.Context, id uuid.UUID, actor model.Actor, req *model.EditDonationRequest) (*model.Donation, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkMutable(current, actor); err != nil {
		return nil, err
	}

	changes, err := validateEdit(req)
	if err != nil {
		return nil, err
	}

	updated, err := s.donations.Update(ctx, id, changes, s.opts.now().UTC())
	if errors.Is(err, model.ErrStaleRecord) {
		return nil, s.staleError(ctx, id)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("donation_id", id.String()).Msg("failed to update donation")
		return nil, fmt.Errorf("failed to update donation: %w", err)
	}

	s.logger.Info().Str("donation_id", id.String()).Msg("donation updated")
	return updated, nil
}

// Delete removes a donation owned by the acting establishment.
func (s *donationService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkMutable(current, actor); err != nil {
		return err
	}

	err = s.donations.Delete(ctx, id)
	if errors.Is(err, model.ErrStaleRecord) {
		return s.staleError(ctx, id)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("donation_id", id.String()).Msg("failed to delete donation")
		return fmt.Errorf("failed to delete donation: %w", err)
	}

	s.logger.Info().Str("donation_id", id.String()).Msg("donation deleted")
	return nil
}

// Get retrieves a single donation.
func (s *donationService) Get(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	return s.load(ctx, id)
}

// List retrieves donations matching the filter.
func (s *donationService) List(ctx context.Context, filter model.DonationFilter) ([]model.Donation, error) {
	donations, err := s.donations.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list donations")
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}

	s.logger.Debug().Int("count", len(donations)).Msg("retrieved donations")
	return donations, nil
}

func (s *donationService) load(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	d, err := s.donations.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("donation_id", id.String()).Msg("failed to get donation")
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return d, nil
}

// checkMutable enforces that only the owner touches a donation that is not
// yet completed.
func (s *donationService) checkMutable(d *model.Donation, actor model.Actor) error {
	if d.Status == model.StatusCompleted {
		s.logger.Warn().Str("donation_id", d.ID.String()).Msg("completed donation cannot be modified")
		return fmt.Errorf("%w: donation %s is completed", model.ErrInvalidState, d.ID)
	}
	if !actor.IsEstablishment(d.EstablishmentID) {
		s.logger.Warn().
			Str("donation_id", d.ID.String()).
			Str("actor", actor.String()).
			Msg("actor does not own donation")
		return fmt.Errorf("%w: only the owning establishment may modify donation %s", model.ErrForbidden, d.ID)
	}
	return nil
}

// staleError explains a conditional write that matched nothing: either the
// donation disappeared or it was completed in the meantime.
func (s *donationService) staleError(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: donation %s was completed concurrently", model.ErrInvalidState, id)
}
