package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"zerowaste/internal/listing"
	"zerowaste/internal/model"
	"zerowaste/internal/projection"
	"zerowaste/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Board is one actor's working copy of the dashboard. Transitions are applied
// to the local copy first and then reconciled with the coordinator's answer.
type Board struct {
	actor       model.Actor
	loader      *Loader
	coordinator service.ReservationService
	logger      zerolog.Logger

	mu        sync.Mutex
	donations []model.Donation
	tentative map[uuid.UUID]model.Donation // id -> record before the tentative change
	dir       model.Directory
	opts      projection.Options
	state     listing.State
}

// NewBoard creates an empty board. Call Refresh to populate it.
func NewBoard(actor model.Actor, loader *Loader, coordinator service.ReservationService, pageSize int, logger zerolog.Logger) *Board {
	return &Board{
		actor:       actor,
		loader:      loader,
		coordinator: coordinator,
		logger:      logger.With().Str("component", "board").Str("actor", actor.String()).Logger(),
		tentative:   make(map[uuid.UUID]model.Donation),
		dir:         model.Directory{},
		state:       listing.NewState("", pageSize),
	}
}

// Refresh replaces the local copy with the authoritative donations.
func (b *Board) Refresh(ctx context.Context) error {
	donations, err := b.loader.Donations(ctx, b.actor)
	if err != nil {
		return fmt.Errorf("failed to refresh board: %w", err)
	}
	dir, err := b.loader.Directory(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh board: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.donations = donations
	b.dir = dir
	clear(b.tentative)

	b.logger.Debug().Int("count", len(donations)).Msg("board refreshed")
	return nil
}

// Accept reserves a donation for the board's food bank.
func (b *Board) Accept(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	return b.transition(ctx, id, func(d *model.Donation) {
		bank := b.actor.ID
		d.Status = model.StatusReserved
		d.FoodBankID = &bank
	}, b.coordinator.Accept)
}

// Cancel releases the board's reservation.
func (b *Board) Cancel(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	return b.transition(ctx, id, func(d *model.Donation) {
		d.Status = model.StatusAvailable
		d.FoodBankID = nil
		d.ReservedAt = nil
	}, b.coordinator.Cancel)
}

// Complete confirms pickup of a reserved donation.
func (b *Board) Complete(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	return b.transition(ctx, id, func(d *model.Donation) {
		d.Status = model.StatusCompleted
	}, b.coordinator.Complete)
}

type callFunc func(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error)

func (b *Board) transition(ctx context.Context, id uuid.UUID, tentative func(*model.Donation), call callFunc) (*model.Donation, error) {
	b.mu.Lock()
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is not on the board", model.ErrNotFound, id)
	}
	if _, busy := b.tentative[id]; busy {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: a change to %s is already in flight", model.ErrConflict, id)
	}
	b.tentative[id] = b.donations[idx]
	tentative(&b.donations[idx])
	b.mu.Unlock()

	result, err := call(ctx, id, b.actor)

	switch {
	case err == nil:
		b.mu.Lock()
		delete(b.tentative, id)
		if i := b.indexOf(id); i >= 0 {
			b.donations[i] = *result
		}
		b.mu.Unlock()
		return result, nil

	case errors.Is(err, model.ErrConflict):
		b.logger.Info().Str("donation_id", id.String()).Msg("discarding tentative change after conflict")
		b.rollback(id)
		if rerr := b.Refresh(ctx); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err

	default:
		b.logger.Warn().Err(err).Str("donation_id", id.String()).Msg("rolling back tentative change")
		b.rollback(id)
		return nil, err
	}
}

func (b *Board) rollback(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, ok := b.tentative[id]
	if !ok {
		return
	}
	delete(b.tentative, id)
	if i := b.indexOf(id); i >= 0 {
		b.donations[i] = prev
	}
}

func (b *Board) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(b.donations, func(d model.Donation) bool { return d.ID == id })
}

// Pending reports whether a tentative change to id awaits confirmation.
func (b *Board) Pending(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tentative[id]
	return ok
}

// Donations returns a copy of the local donations.
func (b *Board) Donations() []model.Donation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.donations)
}

// SetOptions sets projection options such as caller-supplied distances.
func (b *Board) SetOptions(opts projection.Options) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts = opts
}

// View projects the local copy for the board's actor.
func (b *Board) View() (projection.View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return projection.Project(b.actor, b.donations, b.dir, b.opts)
}

// State returns the current presentation state.
func (b *Board) State() listing.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SelectTab switches the visible tab.
func (b *Board) SelectTab(tab projection.Tab) {
	b.update(func(s listing.State) listing.State { return s.WithTab(tab) })
}

// SortBy activates or toggles a sort key.
func (b *Board) SortBy(key listing.SortKey) {
	b.update(func(s listing.State) listing.State { return s.WithSort(key) })
}

// Search sets the free-text filter.
func (b *Board) Search(q string) {
	b.update(func(s listing.State) listing.State { return s.WithQuery(q) })
}

// GoTo requests a page.
func (b *Board) GoTo(page int) {
	b.update(func(s listing.State) listing.State { return s.WithPage(page) })
}

func (b *Board) update(fn func(listing.State) listing.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = fn(b.state)
}

// Page returns the visible page of the selected tab. The default tab of the
// view is used until one is selected.
func (b *Board) Page() (listing.Page, error) {
	view, err := b.View()
	if err != nil {
		return listing.Page{}, err
	}

	b.mu.Lock()
	state := b.state
	b.mu.Unlock()

	return Paginate(view, state)
}

// Paginate applies state to the tab it selects in view.
func Paginate(view projection.View, state listing.State) (listing.Page, error) {
	if state.Tab == "" {
		state.Tab = view.DefaultTab()
	}
	cards, ok := view.Section(state.Tab)
	if !ok {
		return listing.Page{}, fmt.Errorf("%w: tab %q is not available for %s", model.ErrValidation, state.Tab, view.Actor.Kind)
	}
	return listing.Apply(cards, state), nil
}
