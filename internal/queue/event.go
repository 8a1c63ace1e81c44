// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation has been
// validated and committed. It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID  uint64 `json:"reservation_id"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	TableID        uint64 `json:"table_id"`
	TableName      string `json:"table_name"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	ReservedFrom   string `json:"reserved_from"`
	ReservedUntil  string `json:"reserved_until"`
	GuestAmount    uint32 `json:"guest_amount"`
	ConfirmedAt    string `json:"confirmed_at"`
}
