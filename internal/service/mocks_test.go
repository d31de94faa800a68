package service

import (
	"context"
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDonationRepository is a mock implementation of DonationRepository.
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, d *model.Donation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) List(ctx context.Context, filter model.DonationFilter) ([]model.Donation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Donation), args.Error(1)
}

func (m *MockDonationRepository) Update(ctx context.Context, id uuid.UUID, changes model.DonationChanges, at time.Time) (*model.Donation, error) {
	args := m.Called(ctx, id, changes, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDonationRepository) Transition(ctx context.Context, t model.Transition) (*model.Donation, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

// MockOrganizationRepository is a mock implementation of OrganizationRepository.
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) Upsert(ctx context.Context, org *model.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) List(ctx context.Context) ([]model.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Organization), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func availableDonation(establishmentID uuid.UUID) *model.Donation {
	return &model.Donation{
		ID:              uuid.New(),
		EstablishmentID: establishmentID,
		ProductName:     "Bread",
		Quantity:        10,
		Unit:            model.UnitKilogram,
		ExpirationDate:  fixedNow.Add(24 * time.Hour),
		Status:          model.StatusAvailable,
		CreatedAt:       fixedNow.Add(-time.Hour),
		UpdatedAt:       fixedNow.Add(-time.Hour),
	}
}

func reservedDonation(establishmentID, foodBankID uuid.UUID) *model.Donation {
	d := availableDonation(establishmentID)
	reservedAt := fixedNow.Add(-30 * time.Minute)
	d.Status = model.StatusReserved
	d.FoodBankID = &foodBankID
	d.ReservedAt = &reservedAt
	return d
}
