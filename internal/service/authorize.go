package service

import (
	"context"
	"fmt"

	"zerowaste/internal/model"
	"zerowaste/internal/repository"
)

// requireOrganization checks that the actor is a registered organization of
// the given kind.
func requireOrganization(ctx context.Context, orgs repository.OrganizationRepository, actor model.Actor, kind model.ActorKind) error {
	if actor.Kind != kind {
		return fmt.Errorf("%w: %s actor required", model.ErrForbidden, kind)
	}

	org, err := orgs.GetByID(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve actor: %w", err)
	}
	if org == nil || org.Kind != kind {
		return fmt.Errorf("%w: unknown %s %s", model.ErrForbidden, kind, actor.ID)
	}
	return nil
}
