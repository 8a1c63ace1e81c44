package model

import "time"

// Restaurant represents a venue owned by a user.  A restaurant
// contains tables and defines business hours per weekday.  This
// struct corresponds to a row in the `restaurants` table.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the restaurant owner.
//  Name      – name of the restaurant.
//  CreatedAt – timestamp when the restaurant was created.
//  UpdatedAt – timestamp of last update.
type Restaurant struct {
	ID        uint64    // restaurants.id
	OwnerID   uint64    // restaurants.owner_id
	Name      string    // restaurants.name
	CreatedAt time.Time // restaurants.created_at
	UpdatedAt time.Time // restaurants.updated_at
}

// Address represents the postal address of a restaurant.  Every
// restaurant has exactly one address; replacing a restaurant's
// address replaces the row.  Corresponds to the `addresses` table.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant the address belongs to.
//  StreetName   – street name.
//  HouseNumber  – house number (kept as text, e.g. "12a").
//  PostalCode   – numeric postal code.
//  City         – city name.
//  CountryCode  – ISO country code such as "DE".
type Address struct {
	ID           uint64 // addresses.id
	RestaurantID uint64 // addresses.restaurant_id
	StreetName   string // addresses.street_name
	HouseNumber  string // addresses.house_number
	PostalCode   uint32 // addresses.postal_code
	City         string // addresses.city
	CountryCode  string // addresses.country_code
}
