package model

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a donation.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusCompleted:
		return true
	}
	return false
}

// Well-known quantity units. Any other non-empty label is accepted as free text.
const (
	UnitUnits      = "units"
	UnitKilogram   = "kg"
	UnitGram       = "g"
	UnitLiter      = "l"
	UnitMilliliter = "ml"
	UnitPortions   = "portions"
)

// Donation represents a single offer of surplus food.
type Donation struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	EstablishmentID uuid.UUID  `json:"establishmentId" db:"establishment_id"`
	FoodBankID      *uuid.UUID `json:"foodBankId,omitempty" db:"food_bank_id"`
	ProductName     string     `json:"productName" db:"product_name"`
	Description     string     `json:"description,omitempty" db:"description"`
	Quantity        float64    `json:"quantity" db:"quantity"`
	Unit            string     `json:"unit" db:"unit"`
	ExpirationDate  time.Time  `json:"expirationDate" db:"expiration_date"`
	PhotoRef        string     `json:"photoRef,omitempty" db:"photo_ref"`
	Status          Status     `json:"status" db:"status"`
	ReservedAt      *time.Time `json:"reservedAt,omitempty" db:"reserved_at"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// HeldBy reports whether the donation is currently held by the given food bank.
func (d *Donation) HeldBy(foodBankID uuid.UUID) bool {
	return d.FoodBankID != nil && *d.FoodBankID == foodBankID
}

// Consistent reports whether the status and the food bank reference agree:
// a donation is AVAILABLE exactly when no food bank holds it.
func (d *Donation) Consistent() bool {
	return (d.Status == StatusAvailable) == (d.FoodBankID == nil)
}

// DonationFilter narrows a donation listing. Nil fields are not applied.
type DonationFilter struct {
	Status          *Status
	EstablishmentID *uuid.UUID
	FoodBankID      *uuid.UUID
}

// Matches reports whether d satisfies every set field of the filter.
func (f DonationFilter) Matches(d *Donation) bool {
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if f.EstablishmentID != nil && d.EstablishmentID != *f.EstablishmentID {
		return false
	}
	if f.FoodBankID != nil && !d.HeldBy(*f.FoodBankID) {
		return false
	}
	return true
}

// Transition describes a conditional status write: the store applies To only
// while the record still has the From status and holder.
type Transition struct {
	DonationID   uuid.UUID
	FromStatus   Status
	FromFoodBank *uuid.UUID
	ToStatus     Status
	ToFoodBank   *uuid.UUID
	ReservedAt   *time.Time
	CompletedAt  *time.Time
	At           time.Time
}

// DonationChanges holds the editable, non-status fields of a donation.
type DonationChanges struct {
	ProductName    *string
	Description    *string
	Quantity       *float64
	Unit           *string
	ExpirationDate *time.Time
	PhotoRef       *string
}

// Apply copies every set field onto d.
func (c DonationChanges) Apply(d *Donation) {
	if c.ProductName != nil {
		d.ProductName = *c.ProductName
	}
	if c.Description != nil {
		d.Description = *c.Description
	}
	if c.Quantity != nil {
		d.Quantity = *c.Quantity
	}
	if c.Unit != nil {
		d.Unit = *c.Unit
	}
	if c.ExpirationDate != nil {
		d.ExpirationDate = *c.ExpirationDate
	}
	if c.PhotoRef != nil {
		d.PhotoRef = *c.PhotoRef
	}
}

// CreateDonationRequest represents the request payload for publishing a donation.
// ExpirationDate is kept as text so that a malformed date is reported together
// with every other field violation.
type CreateDonationRequest struct {
	ProductName    string  `json:"productName"`
	Description    string  `json:"description,omitempty"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	ExpirationDate string  `json:"expirationDate"`
	PhotoRef       string  `json:"photoRef,omitempty"`
}

// EditDonationRequest represents a partial update. Absent fields are left unchanged.
type EditDonationRequest struct {
	ProductName    *string  `json:"productName,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Quantity       *float64 `json:"quantity,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	ExpirationDate *string  `json:"expirationDate,omitempty"`
	PhotoRef       *string  `json:"photoRef,omitempty"`
}
