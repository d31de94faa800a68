package seed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"zerowaste/internal/model"
	"zerowaste/internal/repository"
	"zerowaste/internal/service"

	"github.com/rs/zerolog"
)

// Summary counts what an import wrote. Skipped counts donation records left
// out because the store already held donations.
type Summary struct {
	Organizations int `json:"organizations"`
	Donations     int `json:"donations"`
	Reserved      int `json:"reserved"`
	Completed     int `json:"completed"`
	Skipped       int `json:"skipped"`
}

// Importer loads seed files and writes their records through the services so
// that every donation passes the same validation as an API request.
type Importer struct {
	loader      Loader
	orgs        repository.OrganizationRepository
	registry    service.DonationService
	coordinator service.ReservationService
	now         func() time.Time
	logger      zerolog.Logger
}

// NewImporter creates a new seed importer.
func NewImporter(
	loader Loader,
	orgs repository.OrganizationRepository,
	registry service.DonationService,
	coordinator service.ReservationService,
	logger zerolog.Logger,
) *Importer {
	return &Importer{
		loader:      loader,
		orgs:        orgs,
		registry:    registry,
		coordinator: coordinator,
		now:         time.Now,
		logger:      logger.With().Str("component", "seed-importer").Logger(),
	}
}

// LoadAll reads every file concurrently and merges the batches in the order
// the files were given.
func (i *Importer) LoadAll(ctx context.Context, paths []string) (*Batch, error) {
	type loadResult struct {
		index int
		batch *Batch
		err   error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for idx, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			batch, err := i.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, batch: batch, err: err}
		}(idx, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	merged := &Batch{}
	for idx, result := range results {
		if result.err != nil {
			i.logger.Error().Err(result.err).Str("file", paths[idx]).Msg("failed to load seed file")
			return nil, fmt.Errorf("failed to load seed file %s: %w", paths[idx], result.err)
		}
		merged.Append(result.batch)
	}
	return merged, nil
}

// Import loads paths and applies them. Organizations are upserted before any
// donation is created.
func (i *Importer) Import(ctx context.Context, paths []string) (Summary, error) {
	batch, err := i.LoadAll(ctx, paths)
	if err != nil {
		return Summary{}, err
	}
	return i.Apply(ctx, batch)
}

// Apply writes the records of batch.
func (i *Importer) Apply(ctx context.Context, batch *Batch) (Summary, error) {
	var sum Summary
	now := i.now().UTC()

	for _, rec := range batch.Organizations {
		org := &model.Organization{
			ID:           rec.ID,
			Kind:         rec.Kind,
			Name:         strings.TrimSpace(rec.Name),
			Address:      rec.Address,
			ContactPhone: rec.ContactPhone,
			OpeningHours: rec.OpeningHours,
			Description:  rec.Description,
			CreatedAt:    now,
		}
		if org.Name == "" {
			return sum, fmt.Errorf("organization %s has no name", rec.ID)
		}
		kind, err := model.ParseActorKind(string(rec.Kind))
		if err != nil {
			return sum, fmt.Errorf("organization %s: %w", rec.ID, err)
		}
		org.Kind = kind

		if err := i.orgs.Upsert(ctx, org); err != nil {
			return sum, fmt.Errorf("failed to import organization %s: %w", rec.ID, err)
		}
		sum.Organizations++
	}

	donations := batch.Donations
	if len(donations) > 0 {
		existing, err := i.registry.List(ctx, model.DonationFilter{})
		if err != nil {
			return sum, fmt.Errorf("failed to check existing donations: %w", err)
		}
		if len(existing) > 0 {
			i.logger.Info().
				Int("existing", len(existing)).
				Int("skipped", len(donations)).
				Msg("donations already exist, skipping donation records")
			sum.Skipped = len(donations)
			donations = nil
		}
	}

	for n, rec := range donations {
		d, err := i.registry.Create(ctx, model.Establishment(rec.EstablishmentID), &model.CreateDonationRequest{
			ProductName:    rec.ProductName,
			Description:    rec.Description,
			Quantity:       rec.Quantity,
			Unit:           rec.Unit,
			ExpirationDate: now.Add(time.Duration(rec.ExpiresIn)).Format(time.RFC3339),
			PhotoRef:       rec.PhotoRef,
		})
		if err != nil {
			return sum, fmt.Errorf("failed to import donation #%d (%s): %w", n+1, rec.ProductName, err)
		}
		sum.Donations++

		if rec.ReservedBy == nil {
			if rec.Completed {
				return sum, fmt.Errorf("donation #%d (%s) is completed without a food bank", n+1, rec.ProductName)
			}
			continue
		}
		if _, err := i.coordinator.Accept(ctx, d.ID, model.FoodBank(*rec.ReservedBy)); err != nil {
			return sum, fmt.Errorf("failed to reserve donation #%d (%s): %w", n+1, rec.ProductName, err)
		}
		sum.Reserved++

		if rec.Completed {
			if _, err := i.coordinator.Complete(ctx, d.ID, model.Establishment(rec.EstablishmentID)); err != nil {
				return sum, fmt.Errorf("failed to complete donation #%d (%s): %w", n+1, rec.ProductName, err)
			}
			sum.Completed++
		}
	}

	i.logger.Info().
		Int("organizations", sum.Organizations).
		Int("donations", sum.Donations).
		Int("reserved", sum.Reserved).
		Int("completed", sum.Completed).
		Int("skipped", sum.Skipped).
		Msg("seed data imported")

	return sum, nil
}
