// Package booking implements the reservation feasibility check and
// table assignment used by the reservation endpoints.  It is pure:
// all functions operate on snapshots of business hours, tables and
// already-booked intervals supplied by the caller and never touch
// storage themselves.  The caller persists a reservation only after
// a successful validation.
package booking

import (
	"errors"
	"sort"
	"time"
)

// Validation outcomes.  All three are recoverable, caller-visible
// results that handlers map to a 409 response with a reason; they are
// never wrapped in additional context by this package.
var (
	// ErrOutsideHours means the candidate window does not fit into any
	// open-and-reservable business hour block on its weekday.
	ErrOutsideHours = errors.New("reservation is outside business hours")
	// ErrNoCapacity means no table satisfies the party size, either
	// because the party exceeds the seats or falls below the table's
	// minimum guest requirement.
	ErrNoCapacity = errors.New("no table fits the party size")
	// ErrConflicting means tables with enough capacity exist but every
	// one of them overlaps an existing reservation.
	ErrConflicting = errors.New("all fitting tables are already reserved")

	// ErrBadCandidate flags a malformed candidate (empty or inverted
	// window, zero guests).  Handlers reject these as 400 before any
	// scheduling logic runs.
	ErrBadCandidate = errors.New("invalid reservation window or guest amount")
)

// Candidate is a reservation request that has not been persisted
// yet.  The window [From, Until) is half-open: touching boundaries
// do not conflict.
type Candidate struct {
	From   time.Time
	Until  time.Time
	Guests uint32
}

// Check validates the candidate's own invariants.
func (c Candidate) Check() error {
	if !c.From.Before(c.Until) || c.Guests == 0 {
		return ErrBadCandidate
	}
	return nil
}

// Hours is one business hour block of a restaurant.  Weekday uses
// the storage numbering (0=Monday).  Open ≤ ReservableUntil ≤ Close
// is enforced when the block is created.
type Hours struct {
	Weekday         uint8
	Open            TimeOfDay
	ReservableUntil TimeOfDay
	Close           TimeOfDay
}

// Table is the capacity view of a restaurant table.
type Table struct {
	ID        uint64
	Seats     uint32
	MinGuests uint32
}

// Fits reports whether the table can legally seat the party:
// at least MinGuests, at most Seats.
func (t Table) Fits(guests uint32) bool {
	return t.MinGuests <= guests && guests <= t.Seats
}

// Interval is an already-booked slot on a table.  ID is the
// reservation's identifier and is used to exclude a reservation's
// old state when re-validating an update.
type Interval struct {
	ID    uint64
	From  time.Time
	Until time.Time
}

// WithinHours reports whether the candidate window fits a business
// hour block on its start weekday: the block must open at or before
// the start, close at or after the end, and still accept new
// reservations at the start time.  Any one matching block is enough
// (split shifts).  Only the clock portion of the window is compared;
// same-day confinement is the overlap check's concern.
func WithinHours(c Candidate, hours []Hours) bool {
	wd := WeekdayOf(c.From)
	from, until := At(c.From), At(c.Until)
	for _, h := range hours {
		if h.Weekday != wd {
			continue
		}
		if h.Open <= from && until <= h.Close && from <= h.ReservableUntil {
			return true
		}
	}
	return false
}

// Conflicts reports whether the candidate overlaps any interval
// booked on the same calendar day as its start.  existing must be
// sorted ascending by From and mutually non-overlapping; under that
// assumption only the immediate neighbours of the candidate's
// insertion point can overlap it.
//
// The candidate is placed after all intervals sharing its exact
// start time (upper-bound insertion), which pins the order for
// equal starts.  For any positive-length window an equal start is a
// conflict on either side, so the rule only makes the walk
// deterministic.
func Conflicts(c Candidate, existing []Interval) bool {
	sameDay := existing[:0:0]
	for _, iv := range existing {
		if SameDay(iv.From, c.From) {
			sameDay = append(sameDay, iv)
		}
	}
	if len(sameDay) == 0 {
		return false
	}
	idx := sort.Search(len(sameDay), func(i int) bool {
		return sameDay[i].From.After(c.From)
	})
	if idx < len(sameDay) && c.Until.After(sameDay[idx].From) {
		return true
	}
	if idx > 0 && c.From.Before(sameDay[idx-1].Until) {
		return true
	}
	return false
}

// ExcludeID returns existing without the interval carrying the given
// reservation ID.  It is how updates are re-validated as if the old
// reservation did not exist: the stored data is never modified, the
// conflict set is just viewed through this filter.
func ExcludeID(existing []Interval, id uint64) []Interval {
	out := make([]Interval, 0, len(existing))
	for _, iv := range existing {
		if iv.ID != id {
			out = append(out, iv)
		}
	}
	return out
}

// ValidateForTable decides whether the candidate can be booked on
// one specific table.  hours are the blocks of the table's
// restaurant; existing are the table's booked intervals sorted
// ascending by From.  On success the table's own ID is returned.
func ValidateForTable(c Candidate, t Table, hours []Hours, existing []Interval) (uint64, error) {
	if err := c.Check(); err != nil {
		return 0, err
	}
	if !WithinHours(c, hours) {
		return 0, ErrOutsideHours
	}
	if !t.Fits(c.Guests) {
		return 0, ErrNoCapacity
	}
	if Conflicts(c, existing) {
		return 0, ErrConflicting
	}
	return t.ID, nil
}

// ValidateForRestaurant decides whether the candidate can be booked
// anywhere in a restaurant and, if so, on which table.  existingOf
// supplies the booked intervals of a table, sorted ascending by
// From.  Among the capacity-eligible, conflict-free tables the one
// wasting the fewest seats wins; ties go to the lowest table ID, so
// the choice is deterministic for a given snapshot.
func ValidateForRestaurant(c Candidate, hours []Hours, tables []Table, existingOf func(tableID uint64) []Interval) (uint64, error) {
	if err := c.Check(); err != nil {
		return 0, err
	}
	if !WithinHours(c, hours) {
		return 0, ErrOutsideHours
	}
	fitting := make([]Table, 0, len(tables))
	for _, t := range tables {
		if t.Fits(c.Guests) {
			fitting = append(fitting, t)
		}
	}
	if len(fitting) == 0 {
		return 0, ErrNoCapacity
	}
	best := Table{}
	found := false
	for _, t := range fitting {
		if Conflicts(c, existingOf(t.ID)) {
			continue
		}
		if !found {
			best, found = t, true
			continue
		}
		slack, bestSlack := t.Seats-c.Guests, best.Seats-c.Guests
		if slack < bestSlack || (slack == bestSlack && t.ID < best.ID) {
			best = t
		}
	}
	if !found {
		return 0, ErrConflicting
	}
	return best.ID, nil
}
