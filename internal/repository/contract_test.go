package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repos struct {
	orgs      OrganizationRepository
	donations DonationRepository
}

// runStoreContract exercises the behaviour shared by every store driver.
func runStoreContract(t *testing.T, newRepos func(t *testing.T) repos) {
	ctx := context.Background()

	t.Run("Organization upsert and lookup", func(t *testing.T) {
		r := newRepos(t)
		org := newOrganization(model.KindEstablishment, "Sunrise Bakery")
		require.NoError(t, r.orgs.Upsert(ctx, org))

		org.Name = "Sunrise Bakery & Cafe"
		require.NoError(t, r.orgs.Upsert(ctx, org))

		got, err := r.orgs.GetByID(ctx, org.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Sunrise Bakery & Cafe", got.Name)
		assert.Equal(t, model.KindEstablishment, got.Kind)

		missing, err := r.orgs.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Organization kind cannot change", func(t *testing.T) {
		r := newRepos(t)
		org := newOrganization(model.KindEstablishment, "Garden Grill")
		require.NoError(t, r.orgs.Upsert(ctx, org))

		org.Kind = model.KindFoodBank
		err := r.orgs.Upsert(ctx, org)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "different kind")
	})

	t.Run("Organization list is ordered by name", func(t *testing.T) {
		r := newRepos(t)
		require.NoError(t, r.orgs.Upsert(ctx, newOrganization(model.KindFoodBank, "Zeta Food Bank")))
		require.NoError(t, r.orgs.Upsert(ctx, newOrganization(model.KindEstablishment, "Alpha Deli")))

		orgs, err := r.orgs.List(ctx)
		require.NoError(t, err)
		require.Len(t, orgs, 2)
		assert.Equal(t, "Alpha Deli", orgs[0].Name)
		assert.Equal(t, "Zeta Food Bank", orgs[1].Name)
	})

	t.Run("Donation create and get", func(t *testing.T) {
		r := newRepos(t)
		est := newOrganization(model.KindEstablishment, "Metro Market")
		require.NoError(t, r.orgs.Upsert(ctx, est))

		d := newDonation(est.ID, "Canned Goods")
		d.Description = "Assorted cans"
		require.NoError(t, r.donations.Create(ctx, d))

		got, err := r.donations.GetByID(ctx, d.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Canned Goods", got.ProductName)
		assert.Equal(t, "Assorted cans", got.Description)
		assert.Equal(t, 10.0, got.Quantity)
		assert.Equal(t, model.StatusAvailable, got.Status)
		assert.Nil(t, got.FoodBankID)
		assert.WithinDuration(t, d.ExpirationDate, got.ExpirationDate, time.Millisecond)

		missing, err := r.donations.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Donation list filters", func(t *testing.T) {
		r := newRepos(t)
		estA := newOrganization(model.KindEstablishment, "A")
		estB := newOrganization(model.KindEstablishment, "B")
		bank := newOrganization(model.KindFoodBank, "Bank")
		for _, o := range []*model.Organization{estA, estB, bank} {
			require.NoError(t, r.orgs.Upsert(ctx, o))
		}

		d1 := newDonation(estA.ID, "Bread")
		d2 := newDonation(estA.ID, "Milk")
		d2.CreatedAt = d1.CreatedAt.Add(time.Second)
		d3 := newDonation(estB.ID, "Fruit")
		d3.CreatedAt = d1.CreatedAt.Add(2 * time.Second)
		for _, d := range []*model.Donation{d1, d2, d3} {
			require.NoError(t, r.donations.Create(ctx, d))
		}

		now := time.Now().UTC()
		_, err := r.donations.Transition(ctx, model.Transition{
			DonationID: d2.ID,
			FromStatus: model.StatusAvailable,
			ToStatus:   model.StatusReserved,
			ToFoodBank: &bank.ID,
			ReservedAt: &now,
			At:         now,
		})
		require.NoError(t, err)

		all, err := r.donations.List(ctx, model.DonationFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []uuid.UUID{d1.ID, d2.ID, d3.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

		byEst, err := r.donations.List(ctx, model.DonationFilter{EstablishmentID: &estA.ID})
		require.NoError(t, err)
		assert.Len(t, byEst, 2)

		available := model.StatusAvailable
		avail, err := r.donations.List(ctx, model.DonationFilter{Status: &available, EstablishmentID: &estA.ID})
		require.NoError(t, err)
		require.Len(t, avail, 1)
		assert.Equal(t, d1.ID, avail[0].ID)

		byBank, err := r.donations.List(ctx, model.DonationFilter{FoodBankID: &bank.ID})
		require.NoError(t, err)
		require.Len(t, byBank, 1)
		assert.Equal(t, d2.ID, byBank[0].ID)

		none, err := r.donations.List(ctx, model.DonationFilter{EstablishmentID: ptrID(uuid.New())})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Update changes only supplied fields", func(t *testing.T) {
		r := newRepos(t)
		est := newOrganization(model.KindEstablishment, "Deli")
		require.NoError(t, r.orgs.Upsert(ctx, est))
		d := newDonation(est.ID, "Soup")
		require.NoError(t, r.donations.Create(ctx, d))

		name := "Tomato Soup"
		qty := 4.5
		at := d.UpdatedAt.Add(time.Minute)
		got, err := r.donations.Update(ctx, d.ID, model.DonationChanges{ProductName: &name, Quantity: &qty}, at)
		require.NoError(t, err)
		assert.Equal(t, "Tomato Soup", got.ProductName)
		assert.Equal(t, 4.5, got.Quantity)
		assert.Equal(t, model.UnitKilogram, got.Unit)
		assert.Equal(t, model.StatusAvailable, got.Status)
		assert.WithinDuration(t, at, got.UpdatedAt, time.Millisecond)

		_, err = r.donations.Update(ctx, uuid.New(), model.DonationChanges{ProductName: &name}, at)
		assert.ErrorIs(t, err, model.ErrStaleRecord)
	})

	t.Run("Completed donations cannot be updated or deleted", func(t *testing.T) {
		r := newRepos(t)
		est := newOrganization(model.KindEstablishment, "Deli")
		bank := newOrganization(model.KindFoodBank, "Bank")
		require.NoError(t, r.orgs.Upsert(ctx, est))
		require.NoError(t, r.orgs.Upsert(ctx, bank))
		d := newDonation(est.ID, "Rice")
		require.NoError(t, r.donations.Create(ctx, d))

		now := time.Now().UTC()
		_, err := r.donations.Transition(ctx, model.Transition{
			DonationID: d.ID, FromStatus: model.StatusAvailable,
			ToStatus: model.StatusReserved, ToFoodBank: &bank.ID, ReservedAt: &now, At: now,
		})
		require.NoError(t, err)
		done, err := r.donations.Transition(ctx, model.Transition{
			DonationID: d.ID, FromStatus: model.StatusReserved, FromFoodBank: &bank.ID,
			ToStatus: model.StatusCompleted, ToFoodBank: &bank.ID, ReservedAt: &now, CompletedAt: &now, At: now,
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, done.Status)
		require.NotNil(t, done.CompletedAt)

		name := "Brown Rice"
		_, err = r.donations.Update(ctx, d.ID, model.DonationChanges{ProductName: &name}, now)
		assert.ErrorIs(t, err, model.ErrStaleRecord)

		assert.ErrorIs(t, r.donations.Delete(ctx, d.ID), model.ErrStaleRecord)

		still, err := r.donations.GetByID(ctx, d.ID)
		require.NoError(t, err)
		require.NotNil(t, still)
		assert.Equal(t, "Rice", still.ProductName)
	})

	t.Run("Delete removes the record", func(t *testing.T) {
		r := newRepos(t)
		est := newOrganization(model.KindEstablishment, "Deli")
		require.NoError(t, r.orgs.Upsert(ctx, est))
		d := newDonation(est.ID, "Bagels")
		require.NoError(t, r.donations.Create(ctx, d))

		require.NoError(t, r.donations.Delete(ctx, d.ID))

		got, err := r.donations.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, r.donations.Delete(ctx, d.ID), model.ErrStaleRecord)
	})

	t.Run("Transition requires matching status and holder", func(t *testing.T) {
		r := newRepos(t)
		est := newOrganization(model.KindEstablishment, "Deli")
		bank1 := newOrganization(model.KindFoodBank, "Bank 1")
		bank2 := newOrganization(model.KindFoodBank, "Bank 2")
		for _, o := range []*model.Organization{est, bank1, bank2} {
			require.NoError(t, r.orgs.Upsert(ctx, o))
		}
		d := newDonation(est.ID, "Pasta")
		require.NoError(t, r.donations.Create(ctx, d))

		now := time.Now().UTC()
		reserved, err := r.donations.Transition(ctx, model.Transition{
			DonationID: d.ID, FromStatus: model.StatusAvailable,
			ToStatus: model.StatusReserved, ToFoodBank: &bank1.ID, ReservedAt: &now, At: now,
		})
		require.NoError(t, err)
		require.NotNil(t, reserved.FoodBankID)
		assert.Equal(t, bank1.ID, *reserved.FoodBankID)
		assert.True(t, reserved.Consistent())

		// Stale read: the donation is no longer AVAILABLE.
		_, err = r.donations.Transition(ctx, model.Transition{
			DonationID: d.ID, FromStatus: model.StatusAvailable,
			ToStatus: model.StatusReserved, ToFoodBank: &bank2.ID, ReservedAt: &now, At: now,
		})
		assert.ErrorIs(t, err, model.ErrStaleRecord)

		// Wrong holder.
		_, err = r.donations.Transition(ctx, model.Transition{
			DonationID: d.ID, FromStatus: model.StatusReserved, FromFoodBank: &bank2.ID,
			ToStatus: model.StatusAvailable, At: now,
		})
		assert.ErrorIs(t, err, model.ErrStaleRecord)

		released, err := r.donations.Transition(ctx, model.Transition{
			DonationID: d.ID, FromStatus: model.StatusReserved, FromFoodBank: &bank1.ID,
			ToStatus: model.StatusAvailable, At: now,
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusAvailable, released.Status)
		assert.Nil(t, released.FoodBankID)
		assert.Nil(t, released.ReservedAt)

		_, err = r.donations.Transition(ctx, model.Transition{
			DonationID: uuid.New(), FromStatus: model.StatusAvailable,
			ToStatus: model.StatusReserved, ToFoodBank: &bank1.ID, At: now,
		})
		assert.ErrorIs(t, err, model.ErrStaleRecord)
	})

	t.Run("Concurrent transitions have exactly one winner", func(t *testing.T) {
		r := newRepos(t)
		est := newOrganization(model.KindEstablishment, "Deli")
		require.NoError(t, r.orgs.Upsert(ctx, est))

		const contenders = 8
		banks := make([]*model.Organization, contenders)
		for i := range banks {
			banks[i] = newOrganization(model.KindFoodBank, "Bank")
			require.NoError(t, r.orgs.Upsert(ctx, banks[i]))
		}

		d := newDonation(est.ID, "Vegetables")
		require.NoError(t, r.donations.Create(ctx, d))

		var (
			wg      sync.WaitGroup
			wins    atomic.Int32
			stale   atomic.Int32
			start   = make(chan struct{})
			winners = make(chan uuid.UUID, contenders)
		)
		for _, bank := range banks {
			wg.Add(1)
			go func(bankID uuid.UUID) {
				defer wg.Done()
				<-start
				now := time.Now().UTC()
				_, err := r.donations.Transition(ctx, model.Transition{
					DonationID: d.ID, FromStatus: model.StatusAvailable,
					ToStatus: model.StatusReserved, ToFoodBank: &bankID, ReservedAt: &now, At: now,
				})
				switch {
				case err == nil:
					wins.Add(1)
					winners <- bankID
				case assert.ErrorIs(t, err, model.ErrStaleRecord):
					stale.Add(1)
				}
			}(bank.ID)
		}
		close(start)
		wg.Wait()
		close(winners)

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(contenders-1), stale.Load())

		got, err := r.donations.GetByID(ctx, d.ID)
		require.NoError(t, err)
		require.NotNil(t, got.FoodBankID)
		assert.Equal(t, <-winners, *got.FoodBankID)
	})
}

func ptrID(id uuid.UUID) *uuid.UUID {
	return &id
}
