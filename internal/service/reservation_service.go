package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zerowaste/internal/model"
	"zerowaste/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// reservationService implements ReservationService. Every transition is a
// conditional write against the state that was read, so concurrent callers
// never both succeed.
type reservationService struct {
	donations repository.DonationRepository
	orgs      repository.OrganizationRepository
	opts      options
	logger    zerolog.Logger
}

// NewReservationService creates a new reservation coordinator.
func NewReservationService(
	donations repository.DonationRepository,
	orgs repository.OrganizationRepository,
	logger zerolog.Logger,
	opts ...Option,
) ReservationService {
	return &reservationService{
		donations: donations,
		orgs:      orgs,
		opts:      buildOptions(opts),
		logger:    logger.With().Str("service", "reservation").Logger(),
	}
}

// Accept moves an AVAILABLE donation to RESERVED for the acting food bank.
func (s *reservationService) Accept(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch d.Status {
	case model.StatusAvailable:
	case model.StatusReserved:
		s.reject(d, actor, "accept", "already reserved")
		return nil, fmt.Errorf("%w: donation %s is already reserved", model.ErrConflict, id)
	default:
		s.reject(d, actor, "accept", "not available")
		return nil, fmt.Errorf("%w: cannot accept a %s donation", model.ErrInvalidTransition, d.Status)
	}

	if err := requireOrganization(ctx, s.orgs, actor, model.KindFoodBank); err != nil {
		s.reject(d, actor, "accept", "actor is not a food bank")
		return nil, err
	}

	now := s.now()
	return s.apply(ctx, "accept", actor, model.Transition{
		DonationID: id,
		FromStatus: model.StatusAvailable,
		ToStatus:   model.StatusReserved,
		ToFoodBank: &actor.ID,
		ReservedAt: &now,
		At:         now,
	})
}

// Cancel releases a reservation held by the acting food bank.
func (s *reservationService) Cancel(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.Status != model.StatusReserved {
		s.reject(d, actor, "cancel", "not reserved")
		return nil, fmt.Errorf("%w: cannot cancel a %s donation", model.ErrInvalidTransition, d.Status)
	}
	if actor.Kind != model.KindFoodBank || !d.HeldBy(actor.ID) {
		s.reject(d, actor, "cancel", "actor does not hold the reservation")
		return nil, fmt.Errorf("%w: only the reserving food bank may cancel donation %s", model.ErrForbidden, id)
	}

	return s.apply(ctx, "cancel", actor, model.Transition{
		DonationID:   id,
		FromStatus:   model.StatusReserved,
		FromFoodBank: d.FoodBankID,
		ToStatus:     model.StatusAvailable,
		At:           s.now(),
	})
}

// Complete marks a reserved donation as picked up. Only the owning
// establishment confirms the hand-over.
func (s *reservationService) Complete(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.Status != model.StatusReserved {
		s.reject(d, actor, "complete", "not reserved")
		return nil, fmt.Errorf("%w: cannot complete a %s donation", model.ErrInvalidTransition, d.Status)
	}
	if !actor.IsEstablishment(d.EstablishmentID) {
		s.reject(d, actor, "complete", "actor does not own the donation")
		return nil, fmt.Errorf("%w: only the owning establishment may complete donation %s", model.ErrForbidden, id)
	}

	now := s.now()
	return s.apply(ctx, "complete", actor, model.Transition{
		DonationID:   id,
		FromStatus:   model.StatusReserved,
		FromFoodBank: d.FoodBankID,
		ToStatus:     model.StatusCompleted,
		ToFoodBank:   d.FoodBankID,
		ReservedAt:   d.ReservedAt,
		CompletedAt:  &now,
		At:           now,
	})
}

func (s *reservationService) apply(ctx context.Context, op string, actor model.Actor, t model.Transition) (*model.Donation, error) {
	d, err := s.donations.Transition(ctx, t)
	if errors.Is(err, model.ErrStaleRecord) {
		s.logger.Warn().
			Str("donation_id", t.DonationID.String()).
			Str("actor", actor.String()).
			Str("operation", op).
			Msg("lost concurrent transition")
		return nil, fmt.Errorf("%w: donation %s", model.ErrConflict, t.DonationID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("donation_id", t.DonationID.String()).Str("operation", op).Msg("failed to transition donation")
		return nil, fmt.Errorf("failed to %s donation: %w", op, err)
	}

	s.logger.Info().
		Str("donation_id", d.ID.String()).
		Str("actor", actor.String()).
		Str("from", string(t.FromStatus)).
		Str("to", string(t.ToStatus)).
		Msg("donation transitioned")

	return d, nil
}

func (s *reservationService) load(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
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

func (s *reservationService) reject(d *model.Donation, actor model.Actor, op, reason string) {
	s.logger.Warn().
		Str("donation_id", d.ID.String()).
		Str("status", string(d.Status)).
		Str("actor", actor.String()).
		Str("operation", op).
		Msg(reason)
}

func (s *reservationService) now() time.Time {
	return s.opts.now().UTC()
}
