package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActorKind discriminates the two kinds of organization.
type ActorKind string

const (
	KindEstablishment ActorKind = "ESTABLISHMENT"
	KindFoodBank      ActorKind = "FOOD_BANK"
)

// ParseActorKind parses a kind case-insensitively.
func ParseActorKind(s string) (ActorKind, error) {
	switch ActorKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindEstablishment:
		return KindEstablishment, nil
	case KindFoodBank:
		return KindFoodBank, nil
	}
	return "", fmt.Errorf("unknown actor kind %q", s)
}

// Actor is the identity invoking an operation. It is passed explicitly to every
// service call.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// Establishment returns an establishment actor.
func Establishment(id uuid.UUID) Actor {
	return Actor{Kind: KindEstablishment, ID: id}
}

// FoodBank returns a food bank actor.
func FoodBank(id uuid.UUID) Actor {
	return Actor{Kind: KindFoodBank, ID: id}
}

// IsEstablishment reports whether the actor is the given establishment.
func (a Actor) IsEstablishment(id uuid.UUID) bool {
	return a.Kind == KindEstablishment && a.ID == id
}

func (a Actor) String() string {
	return string(a.Kind) + ":" + a.ID.String()
}

// Organization is either an establishment (donor) or a food bank (recipient).
type Organization struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Kind         ActorKind `json:"kind" db:"kind"`
	Name         string    `json:"name" db:"name"`
	Address      string    `json:"address,omitempty" db:"address"`
	ContactPhone string    `json:"contactPhone,omitempty" db:"contact_phone"`
	OpeningHours string    `json:"openingHours,omitempty" db:"opening_hours"`
	Description  string    `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Actor returns the actor identity of the organization.
func (o *Organization) Actor() Actor {
	return Actor{Kind: o.Kind, ID: o.ID}
}

// Directory resolves organizations by id.
type Directory map[uuid.UUID]Organization

// NewDirectory indexes the given organizations by id.
func NewDirectory(orgs []Organization) Directory {
	dir := make(Directory, len(orgs))
	for _, o := range orgs {
		dir[o.ID] = o
	}
	return dir
}

// Name returns the organization name for id, or "" when unknown.
func (d Directory) Name(id uuid.UUID) string {
	return d[id].Name
}
