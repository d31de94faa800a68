// Package seed loads fixture organizations and donations from gzipped JSON
// lines files and imports them through the services.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
)

// Record discriminators.
const (
	RecordOrganization = "organization"
	RecordDonation     = "donation"
)

// Loader defines the interface for loading seed files.
type Loader interface {
	// Load reads a gzipped seed file and returns its records.
	Load(ctx context.Context, path string) (*Batch, error)
}

// Batch holds the records of one or more seed files in file order.
type Batch struct {
	Organizations []Organization
	Donations     []Donation
}

// Append adds the records of other to b.
func (b *Batch) Append(other *Batch) {
	b.Organizations = append(b.Organizations, other.Organizations...)
	b.Donations = append(b.Donations, other.Donations...)
}

// Organization is a seed record for an establishment or food bank.
type Organization struct {
	ID           uuid.UUID       `json:"id"`
	Kind         model.ActorKind `json:"kind"`
	Name         string          `json:"name"`
	Address      string          `json:"address,omitempty"`
	ContactPhone string          `json:"contactPhone,omitempty"`
	OpeningHours string          `json:"openingHours,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// Donation is a seed record for a donation. ExpiresIn is relative to the
// import time. ReservedBy and Completed replay coordinator transitions.
type Donation struct {
	EstablishmentID uuid.UUID  `json:"establishmentId"`
	ProductName     string     `json:"productName"`
	Description     string     `json:"description,omitempty"`
	Quantity        float64    `json:"quantity"`
	Unit            string     `json:"unit,omitempty"`
	ExpiresIn       Duration   `json:"expiresIn"`
	PhotoRef        string     `json:"photoRef,omitempty"`
	ReservedBy      *uuid.UUID `json:"reservedBy,omitempty"`
	Completed       bool       `json:"completed,omitempty"`
}

// Duration is a time.Duration written as a Go duration string such as "36h".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
