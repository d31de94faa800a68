package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MemoryStore keeps organizations and donations in process memory. Every
// operation runs inside one critical section, which gives Transition the same
// compare-and-set semantics as the conditional UPDATE of the PostgreSQL
// driver.
type MemoryStore struct {
	mu            sync.Mutex
	organizations map[uuid.UUID]model.Organization
	donations     map[uuid.UUID]model.Donation
	logger        zerolog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		organizations: make(map[uuid.UUID]model.Organization),
		donations:     make(map[uuid.UUID]model.Donation),
		logger:        logger.With().Str("repository", "memory").Logger(),
	}
}

// Organizations returns the store as an OrganizationRepository.
func (s *MemoryStore) Organizations() OrganizationRepository {
	return memoryOrganizations{s}
}

// Donations returns the store as a DonationRepository.
func (s *MemoryStore) Donations() DonationRepository {
	return memoryDonations{s}
}

type memoryOrganizations struct{ s *MemoryStore }

func (m memoryOrganizations) Upsert(ctx context.Context, org *model.Organization) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if existing, ok := m.s.organizations[org.ID]; ok {
		if existing.Kind != org.Kind {
			return fmt.Errorf("organization %s already exists with a different kind", org.ID)
		}
		org.CreatedAt = existing.CreatedAt
	}
	m.s.organizations[org.ID] = *org
	return nil
}

func (m memoryOrganizations) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	org, ok := m.s.organizations[id]
	if !ok {
		return nil, nil
	}
	return &org, nil
}

func (m memoryOrganizations) List(ctx context.Context) ([]model.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.mu.Lock()
	orgs := make([]model.Organization, 0, len(m.s.organizations))
	for _, org := range m.s.organizations {
		orgs = append(orgs, org)
	}
	m.s.mu.Unlock()

	sort.Slice(orgs, func(i, j int) bool {
		if orgs[i].Name != orgs[j].Name {
			return orgs[i].Name < orgs[j].Name
		}
		return orgs[i].ID.String() < orgs[j].ID.String()
	})
	return orgs, nil
}

type memoryDonations struct{ s *MemoryStore }

func (m memoryDonations) Create(ctx context.Context, d *model.Donation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.donations[d.ID]; ok {
		return fmt.Errorf("failed to create donation: duplicate id %s", d.ID)
	}
	if _, ok := m.s.organizations[d.EstablishmentID]; !ok {
		return fmt.Errorf("failed to create donation: unknown establishment %s", d.EstablishmentID)
	}
	m.s.donations[d.ID] = cloneDonation(*d)

	m.s.logger.Debug().Str("donation_id", d.ID.String()).Msg("donation created successfully")
	return nil
}

func (m memoryDonations) GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.donations[id]
	if !ok {
		return nil, nil
	}
	d = cloneDonation(d)
	return &d, nil
}

func (m memoryDonations) List(ctx context.Context, filter model.DonationFilter) ([]model.Donation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.mu.Lock()
	out := []model.Donation{}
	for _, d := range m.s.donations {
		if filter.Matches(&d) {
			out = append(out, cloneDonation(d))
		}
	}
	m.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m memoryDonations) Update(ctx context.Context, id uuid.UUID, changes model.DonationChanges, at time.Time) (*model.Donation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.donations[id]
	if !ok || d.Status == model.StatusCompleted {
		return nil, model.ErrStaleRecord
	}
	changes.Apply(&d)
	d.UpdatedAt = at
	m.s.donations[id] = d

	d = cloneDonation(d)
	return &d, nil
}

func (m memoryDonations) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.donations[id]
	if !ok || d.Status == model.StatusCompleted {
		return model.ErrStaleRecord
	}
	delete(m.s.donations, id)
	return nil
}

func (m memoryDonations) Transition(ctx context.Context, t model.Transition) (*model.Donation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	d, ok := m.s.donations[t.DonationID]
	if !ok || d.Status != t.FromStatus || !sameHolder(d.FoodBankID, t.FromFoodBank) {
		m.s.logger.Debug().
			Str("donation_id", t.DonationID.String()).
			Str("from", string(t.FromStatus)).
			Str("to", string(t.ToStatus)).
			Msg("transition precondition no longer holds")
		return nil, model.ErrStaleRecord
	}

	d.Status = t.ToStatus
	d.FoodBankID = copyID(t.ToFoodBank)
	d.ReservedAt = copyTime(t.ReservedAt)
	d.CompletedAt = copyTime(t.CompletedAt)
	d.UpdatedAt = t.At
	m.s.donations[d.ID] = d

	d = cloneDonation(d)
	return &d, nil
}

func sameHolder(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// cloneDonation detaches the pointer fields so callers never share state with the store.
func cloneDonation(d model.Donation) model.Donation {
	d.FoodBankID = copyID(d.FoodBankID)
	d.ReservedAt = copyTime(d.ReservedAt)
	d.CompletedAt = copyTime(d.CompletedAt)
	return d
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
