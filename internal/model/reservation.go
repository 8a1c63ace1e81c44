package model

import "time"

// Reservation records a confirmed booking of a table for a time
// window.  The window is half-open: a reservation ending at 19:00
// does not conflict with one starting at 19:00.  All timestamps
// are stored in UTC.  Corresponds to the `reservations` table.
//
// Fields:
//  ID             – primary key identifier.
//  TableID        – table the reservation occupies.
//  CustomerName   – name of the guest who booked.
//  CustomerEmail  – contact email of the guest.
//  CustomerPhone  – optional contact phone number.
//  AdditionalInfo – optional free-text note (e.g. "high chair please").
//  ReservedFrom   – start of the reserved window (inclusive).
//  ReservedUntil  – end of the reserved window (exclusive).
//  GuestAmount    – party size.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             uint64    // reservations.id
	TableID        uint64    // reservations.table_id
	CustomerName   string    // reservations.customer_name
	CustomerEmail  string    // reservations.customer_email
	CustomerPhone  *string   // reservations.customer_phone (nullable)
	AdditionalInfo *string   // reservations.additional_information (nullable)
	ReservedFrom   time.Time // reservations.reserved_from
	ReservedUntil  time.Time // reservations.reserved_until
	GuestAmount    uint32    // reservations.guest_amount
	CreatedAt      time.Time // reservations.created_at
	UpdatedAt      time.Time // reservations.updated_at
}
