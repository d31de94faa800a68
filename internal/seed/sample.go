package seed

import (
	"time"

	"zerowaste/internal/model"

	"github.com/google/uuid"
)

// StableID derives a fixed id from a name so regenerated samples upsert the
// same organizations.
func StableID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("zerowaste:"+name))
}

// Sample returns a small demo data set with two establishments, two food
// banks and donations in every status.
func Sample() *Batch {
	bistro := StableID("green-bistro")
	bakery := StableID("sunrise-bakery")
	north := StableID("north-food-bank")
	south := StableID("south-food-bank")

	hours := func(h int) Duration { return Duration(time.Duration(h) * time.Hour) }

	return &Batch{
		Organizations: []Organization{
			{ID: bistro, Kind: model.KindEstablishment, Name: "Green Bistro", Address: "12 Harbor Road", ContactPhone: "+1 555 0101", OpeningHours: "11:00-23:00"},
			{ID: bakery, Kind: model.KindEstablishment, Name: "Sunrise Bakery", Address: "3 Mill Lane", ContactPhone: "+1 555 0102", OpeningHours: "06:00-15:00"},
			{ID: north, Kind: model.KindFoodBank, Name: "North Food Bank", Address: "80 Depot Street", ContactPhone: "+1 555 0201", Description: "Serves the northern districts"},
			{ID: south, Kind: model.KindFoodBank, Name: "South Food Bank", Address: "5 Church Square", ContactPhone: "+1 555 0202"},
		},
		Donations: []Donation{
			{EstablishmentID: bistro, ProductName: "Vegetable soup", Quantity: 12, Unit: model.UnitLiter, ExpiresIn: hours(24)},
			{EstablishmentID: bistro, ProductName: "Grilled chicken", Quantity: 30, Unit: model.UnitPortions, ExpiresIn: hours(12), ReservedBy: &north},
			{EstablishmentID: bistro, ProductName: "Crème brûlée", Quantity: 18, Unit: model.UnitUnits, ExpiresIn: hours(36)},
			{EstablishmentID: bistro, ProductName: "Rice", Quantity: 5, Unit: model.UnitKilogram, ExpiresIn: hours(72), ReservedBy: &south, Completed: true},
			{EstablishmentID: bakery, ProductName: "Sourdough bread", Quantity: 25, Unit: model.UnitUnits, ExpiresIn: hours(20)},
			{EstablishmentID: bakery, ProductName: "Croissants", Quantity: 40, Unit: model.UnitUnits, ExpiresIn: hours(10), ReservedBy: &south},
			{EstablishmentID: bakery, ProductName: "Flour", Quantity: 8.5, Unit: model.UnitKilogram, ExpiresIn: hours(24 * 30), Description: "Unopened bags"},
			{EstablishmentID: bakery, ProductName: "Milk", Quantity: 6, Unit: model.UnitLiter, ExpiresIn: hours(48), ReservedBy: &north, Completed: true},
		},
	}
}
