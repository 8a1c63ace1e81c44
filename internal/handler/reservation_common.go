package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/tischplan/restaurant-reservation/internal/booking"
	"github.com/tischplan/restaurant-reservation/internal/model"
	"github.com/tischplan/restaurant-reservation/internal/repository"
)

// sqlTx wraps a transaction with the commit flag used to roll back on
// every early return of a handler.
type sqlTx struct {
	tx        *sql.Tx
	committed bool
}

func beginTx(ctx context.Context, db *sql.DB) (*sqlTx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (t *sqlTx) commit() error {
	if err := t.tx.Commit(); err != nil {
		return err
	}
	t.committed = true
	return nil
}

func (t *sqlTx) rollbackUnlessCommitted() {
	if !t.committed {
		_ = t.tx.Rollback()
	}
}

// ReservationHandler bundles the repositories the reservation
// endpoints need. Creation and update run the booking validator
// inside a transaction that locks the affected table rows, so two
// concurrent requests can never both validate against the same
// stale conflict set and both win the slot.
type ReservationHandler struct {
	RestaurantRepo  *repository.RestaurantRepo
	HourRepo        *repository.BusinessHourRepo
	TableRepo       *repository.TableRepo
	ReservationRepo *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler with the
// provided repositories. All dependencies must be non-nil.
func NewReservationHandler(restaurantRepo *repository.RestaurantRepo, hourRepo *repository.BusinessHourRepo, tableRepo *repository.TableRepo, reservationRepo *repository.ReservationRepo) *ReservationHandler {
	if restaurantRepo == nil || hourRepo == nil || tableRepo == nil || reservationRepo == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{
		RestaurantRepo:  restaurantRepo,
		HourRepo:        hourRepo,
		TableRepo:       tableRepo,
		ReservationRepo: reservationRepo,
	}
}

// reservationReq is the request body of a single candidate
// reservation. Timestamps are RFC 3339 and interpreted in UTC.
type reservationReq struct {
	CustomerName   string    `json:"customer_name" validate:"required"`
	CustomerEmail  string    `json:"customer_email" validate:"required,email"`
	CustomerPhone  *string   `json:"customer_phone"`
	AdditionalInfo *string   `json:"additional_information"`
	ReservedFrom   time.Time `json:"reserved_from" validate:"required"`
	ReservedUntil  time.Time `json:"reserved_until" validate:"required"`
	GuestAmount    uint32    `json:"guest_amount" validate:"required,gt=0"`
}

func (r reservationReq) candidate() booking.Candidate {
	return booking.Candidate{
		From:   r.ReservedFrom.UTC(),
		Until:  r.ReservedUntil.UTC(),
		Guests: r.GuestAmount,
	}
}

func (r reservationReq) toModel(tableID uint64) *model.Reservation {
	return &model.Reservation{
		TableID:        tableID,
		CustomerName:   r.CustomerName,
		CustomerEmail:  r.CustomerEmail,
		CustomerPhone:  r.CustomerPhone,
		AdditionalInfo: r.AdditionalInfo,
		ReservedFrom:   r.ReservedFrom.UTC(),
		ReservedUntil:  r.ReservedUntil.UTC(),
		GuestAmount:    r.GuestAmount,
	}
}

type reservationResp struct {
	ID             uint64    `json:"id"`
	TableID        uint64    `json:"table_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email"`
	CustomerPhone  *string   `json:"customer_phone,omitempty"`
	AdditionalInfo *string   `json:"additional_information,omitempty"`
	ReservedFrom   time.Time `json:"reserved_from"`
	ReservedUntil  time.Time `json:"reserved_until"`
	GuestAmount    uint32    `json:"guest_amount"`
}

func toReservationResp(res *model.Reservation) reservationResp {
	return reservationResp{
		ID:             res.ID,
		TableID:        res.TableID,
		CustomerName:   res.CustomerName,
		CustomerEmail:  res.CustomerEmail,
		CustomerPhone:  res.CustomerPhone,
		AdditionalInfo: res.AdditionalInfo,
		ReservedFrom:   res.ReservedFrom,
		ReservedUntil:  res.ReservedUntil,
		GuestAmount:    res.GuestAmount,
	}
}

// hoursView parses stored business hour rows into the validator's
// representation. Rows that fail to parse would be a data bug; the
// error is surfaced rather than skipped.
func hoursView(rows []model.BusinessHour) ([]booking.Hours, error) {
	out := make([]booking.Hours, 0, len(rows))
	for _, row := range rows {
		open, err := booking.ParseTimeOfDay(row.OpenTime)
		if err != nil {
			return nil, err
		}
		until, err := booking.ParseTimeOfDay(row.OpenForReservationUntil)
		if err != nil {
			return nil, err
		}
		closeAt, err := booking.ParseTimeOfDay(row.CloseTime)
		if err != nil {
			return nil, err
		}
		out = append(out, booking.Hours{
			Weekday:         row.Weekday,
			Open:            open,
			ReservableUntil: until,
			Close:           closeAt,
		})
	}
	return out, nil
}

func capacityView(t *model.Table) booking.Table {
	return booking.Table{ID: t.ID, Seats: t.Seats, MinGuests: t.MinGuests}
}

func intervalsView(rows []model.Reservation) []booking.Interval {
	out := make([]booking.Interval, 0, len(rows))
	for _, r := range rows {
		out = append(out, booking.Interval{ID: r.ID, From: r.ReservedFrom, Until: r.ReservedUntil})
	}
	return out
}

// conflictReason maps a validation outcome to the reason string
// reported in 409 responses.
func conflictReason(err error) string {
	switch err {
	case booking.ErrOutsideHours:
		return "reservation is outside of the restaurant's reservable business hours"
	case booking.ErrNoCapacity:
		return "no table seats the requested party size"
	case booking.ErrConflicting:
		return "all suitable tables are already reserved in that time window"
	default:
		return "reservation is not possible"
	}
}
