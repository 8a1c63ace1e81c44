package model

import "time"

// Table represents a bookable table inside a restaurant.  A table
// can hold at most Seats guests and may only be reserved when the
// party size reaches MinGuests, which keeps small parties from
// monopolizing large tables.  Corresponds to the `tables` table.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant the table belongs to.
//  Name         – display name of the table (e.g. "Window 2").
//  Seats        – seat capacity of the table.
//  MinGuests    – minimum party size required for a reservation.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Table struct {
	ID           uint64    // tables.id
	RestaurantID uint64    // tables.restaurant_id
	Name         string    // tables.name
	Seats        uint32    // tables.seats
	MinGuests    uint32    // tables.min_guests
	CreatedAt    time.Time // tables.created_at
	UpdatedAt    time.Time // tables.updated_at
}
