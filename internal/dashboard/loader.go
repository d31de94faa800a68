// Package dashboard assembles role dashboards and keeps an actor's local copy
// of donations consistent with the reservation coordinator.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"zerowaste/internal/model"
	"zerowaste/internal/service"
)

// OrganizationLister lists every known organization.
type OrganizationLister interface {
	List(ctx context.Context) ([]model.Organization, error)
}

// Loader fetches the donations relevant to an actor plus the organization
// directory used to name counterparts.
type Loader struct {
	registry service.DonationService
	orgs     OrganizationLister
}

// NewLoader creates a new dashboard loader.
func NewLoader(registry service.DonationService, orgs OrganizationLister) *Loader {
	return &Loader{registry: registry, orgs: orgs}
}

// Donations returns what actor can see: its own offers for an establishment;
// open offers plus its own reservations and pickups for a food bank.
func (l *Loader) Donations(ctx context.Context, actor model.Actor) ([]model.Donation, error) {
	switch actor.Kind {
	case model.KindEstablishment:
		return l.registry.List(ctx, model.DonationFilter{EstablishmentID: &actor.ID})

	case model.KindFoodBank:
		available := model.StatusAvailable
		open, err := l.registry.List(ctx, model.DonationFilter{Status: &available})
		if err != nil {
			return nil, err
		}
		held, err := l.registry.List(ctx, model.DonationFilter{FoodBankID: &actor.ID})
		if err != nil {
			return nil, err
		}
		return merge(open, held), nil

	default:
		return nil, fmt.Errorf("unsupported actor kind %q", actor.Kind)
	}
}

// Directory returns every organization indexed by id.
func (l *Loader) Directory(ctx context.Context) (model.Directory, error) {
	orgs, err := l.orgs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizations: %w", err)
	}
	return model.NewDirectory(orgs), nil
}

// merge unions two donation lists by id, keeping creation order.
func merge(a, b []model.Donation) []model.Donation {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]model.Donation, 0, len(a)+len(b))
	for _, list := range [][]model.Donation{a, b} {
		for _, d := range list {
			key := d.ID.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
