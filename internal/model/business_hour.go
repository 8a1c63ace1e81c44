package model

// BusinessHour represents one opening block of a restaurant on a
// given weekday.  A restaurant may have several blocks on the same
// weekday (split shifts, e.g. lunch and dinner service).  The time
// columns are MySQL TIME values; they are scanned as "HH:MM:SS"
// strings and parsed by the booking package.
//
// Weekday numbering follows the original schema: 0 is Monday and
// 6 is Sunday.
//
// Fields:
//  ID                       – primary key identifier.
//  RestaurantID             – restaurant the block belongs to.
//  Weekday                  – day of week (0=Monday … 6=Sunday).
//  OpenTime                 – time the restaurant opens.
//  OpenForReservationUntil  – latest start time for new reservations.
//  CloseTime                – time the restaurant closes.
type BusinessHour struct {
	ID                      uint64 // business_hours.id
	RestaurantID            uint64 // business_hours.restaurant_id
	Weekday                 uint8  // business_hours.weekday
	OpenTime                string // business_hours.open_time
	OpenForReservationUntil string // business_hours.open_for_reservation_until
	CloseTime               string // business_hours.close_time
}
