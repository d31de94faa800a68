// Package projection derives the role-specific views of a donation
// collection. Projections are pure: they never touch a store.
package projection

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"zerowaste/internal/model"

	"github.com/google/uuid"
)

// Tab names one section of a role view.
type Tab string

const (
	// Establishment tabs.
	TabActive    Tab = "active"
	TabCompleted Tab = "completed"

	// Food bank tabs.
	TabAvailable    Tab = "available"
	TabReservations Tab = "reservations"
	TabHistory      Tab = "history"
)

// Card is a donation as shown to one actor, together with the organization on
// the other side of the exchange.
type Card struct {
	model.Donation
	CounterpartID   *uuid.UUID `json:"counterpartId,omitempty"`
	CounterpartName string     `json:"counterpartName,omitempty"`
	Distance        *float64   `json:"distance,omitempty"`
}

// Section is an ordered list of cards under one tab.
type Section struct {
	Tab   Tab    `json:"tab"`
	Cards []Card `json:"cards"`
}

// View is the projection of a donation collection for one actor.
type View struct {
	Actor    model.Actor `json:"actor"`
	Sections []Section   `json:"sections"`
}

// Section returns the cards of tab and whether the view has that tab.
func (v View) Section(tab Tab) ([]Card, bool) {
	for _, s := range v.Sections {
		if s.Tab == tab {
			return s.Cards, true
		}
	}
	return nil, false
}

// DefaultTab is the first tab of the view.
func (v View) DefaultTab() Tab {
	if len(v.Sections) == 0 {
		return ""
	}
	return v.Sections[0].Tab
}

// Options tune a projection.
type Options struct {
	// IncludeHistory adds the completed pickups of a food bank.
	IncludeHistory bool
	// Distances holds caller-supplied distances keyed by donation id.
	Distances map[uuid.UUID]float64
}

// ParseDistances reads a comma-separated list of id:km pairs, such as
// "3f0c...:1.5,9a1e...:4". An empty string yields a nil map.
func ParseDistances(raw string) (map[uuid.UUID]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	out := make(map[uuid.UUID]float64)
	for _, pair := range strings.Split(raw, ",") {
		idPart, kmPart, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("distance %q is not an id:km pair", pair)
		}
		id, err := uuid.Parse(idPart)
		if err != nil {
			return nil, fmt.Errorf("distance %q has an invalid donation id: %w", pair, err)
		}
		km, err := strconv.ParseFloat(kmPart, 64)
		if err != nil || km < 0 || math.IsNaN(km) || math.IsInf(km, 0) {
			return nil, fmt.Errorf("distance %q must be a non-negative number of kilometres", pair)
		}
		out[id] = km
	}
	return out, nil
}

// Project splits donations into the sections visible to actor. Input order is
// preserved within every section.
func Project(actor model.Actor, donations []model.Donation, dir model.Directory, opts Options) (View, error) {
	switch actor.Kind {
	case model.KindEstablishment:
		return projectEstablishment(actor, donations, dir, opts), nil
	case model.KindFoodBank:
		return projectFoodBank(actor, donations, dir, opts), nil
	default:
		return View{}, fmt.Errorf("cannot project donations for actor kind %q", actor.Kind)
	}
}

func projectEstablishment(actor model.Actor, donations []model.Donation, dir model.Directory, opts Options) View {
	active := []Card{}
	completed := []Card{}
	for _, d := range donations {
		if d.EstablishmentID != actor.ID {
			continue
		}
		card := newCard(d, opts)
		if d.FoodBankID != nil {
			id := *d.FoodBankID
			card.CounterpartID = &id
			card.CounterpartName = dir.Name(id)
		}
		switch d.Status {
		case model.StatusAvailable, model.StatusReserved:
			active = append(active, card)
		case model.StatusCompleted:
			completed = append(completed, card)
		}
	}

	return View{
		Actor: actor,
		Sections: []Section{
			{Tab: TabActive, Cards: active},
			{Tab: TabCompleted, Cards: completed},
		},
	}
}

func projectFoodBank(actor model.Actor, donations []model.Donation, dir model.Directory, opts Options) View {
	available := []Card{}
	reservations := []Card{}
	history := []Card{}
	for _, d := range donations {
		var target *[]Card
		switch {
		case d.Status == model.StatusAvailable:
			target = &available
		case d.Status == model.StatusReserved && d.HeldBy(actor.ID):
			target = &reservations
		case d.Status == model.StatusCompleted && d.HeldBy(actor.ID) && opts.IncludeHistory:
			target = &history
		default:
			continue
		}

		card := newCard(d, opts)
		estID := d.EstablishmentID
		card.CounterpartID = &estID
		card.CounterpartName = dir.Name(estID)
		*target = append(*target, card)
	}

	sections := []Section{
		{Tab: TabAvailable, Cards: available},
		{Tab: TabReservations, Cards: reservations},
	}
	if opts.IncludeHistory {
		sections = append(sections, Section{Tab: TabHistory, Cards: history})
	}
	return View{Actor: actor, Sections: sections}
}

func newCard(d model.Donation, opts Options) Card {
	if d.FoodBankID != nil {
		id := *d.FoodBankID
		d.FoodBankID = &id
	}
	card := Card{Donation: d}
	if dist, ok := opts.Distances[d.ID]; ok {
		card.Distance = &dist
	}
	return card
}
