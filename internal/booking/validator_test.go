package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a fixed Monday used across the tests (2023-05-08 was a Monday).
var monday = time.Date(2023, 5, 8, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
}

func candidate(fromH, fromM, untilH, untilM int, guests uint32) Candidate {
	return Candidate{From: at(monday, fromH, fromM), Until: at(monday, untilH, untilM), Guests: guests}
}

func clock(t *testing.T, s string) TimeOfDay {
	t.Helper()
	v, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func mondayHours(t *testing.T) []Hours {
	return []Hours{{
		Weekday:         0, // Monday in storage numbering
		Open:            clock(t, "17:00:00"),
		ReservableUntil: clock(t, "20:00:00"),
		Close:           clock(t, "23:00:00"),
	}}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "17:00:00", want: 17 * 3600},
		{in: "9:30", want: 9*3600 + 30*60},
		{in: "00:00:00", want: 0},
		{in: "23:59:59", want: 23*3600 + 59*60 + 59},
		{in: "24:00:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "lunch", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, uint8(0), WeekdayOf(monday))
	assert.Equal(t, uint8(6), WeekdayOf(monday.AddDate(0, 0, 6))) // Sunday
	assert.Equal(t, uint8(3), WeekdayOf(monday.AddDate(0, 0, 3))) // Thursday
}

func TestWithinHours(t *testing.T) {
	hours := mondayHours(t)
	tests := []struct {
		name string
		c    Candidate
		want bool
	}{
		{"inside block", candidate(18, 0, 19, 30, 4), true},
		{"starts at open", candidate(17, 0, 18, 0, 2), true},
		{"ends at close", candidate(19, 0, 23, 0, 2), true},
		{"starts exactly at reservable-until", candidate(20, 0, 21, 0, 2), true},
		{"past reservable-until though still open", candidate(21, 0, 22, 0, 2), false},
		{"before opening", candidate(16, 0, 18, 0, 2), false},
		{"runs past closing", candidate(22, 0, 23, 30, 2), false},
		{"wrong weekday", Candidate{From: at(monday.AddDate(0, 0, 1), 18, 0), Until: at(monday.AddDate(0, 0, 1), 19, 0), Guests: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinHours(tt.c, hours))
		})
	}
}

func TestWithinHoursSplitShifts(t *testing.T) {
	hours := []Hours{
		{Weekday: 0, Open: clock(t, "11:30"), ReservableUntil: clock(t, "13:30"), Close: clock(t, "14:30")},
		{Weekday: 0, Open: clock(t, "17:00"), ReservableUntil: clock(t, "20:00"), Close: clock(t, "23:00")},
	}
	assert.True(t, WithinHours(candidate(12, 0, 13, 30, 2), hours), "lunch block")
	assert.True(t, WithinHours(candidate(18, 0, 20, 0, 2), hours), "dinner block")
	assert.False(t, WithinHours(candidate(15, 0, 16, 0, 2), hours), "between shifts")
	assert.False(t, WithinHours(candidate(13, 0, 17, 30, 2), hours), "spans the gap")
}

func TestConflicts(t *testing.T) {
	booked := []Interval{
		{ID: 1, From: at(monday, 17, 0), Until: at(monday, 18, 0)},
		{ID: 2, From: at(monday, 19, 0), Until: at(monday, 20, 30)},
	}
	tests := []struct {
		name string
		c    Candidate
		want bool
	}{
		{"empty gap between bookings", candidate(18, 0, 19, 0, 2), false},
		{"overlaps tail of first", candidate(17, 30, 18, 30, 2), true},
		{"overlaps head of second", candidate(18, 30, 19, 30, 2), true},
		{"swallows second", candidate(18, 30, 21, 0, 2), true},
		{"inside first", candidate(17, 15, 17, 45, 2), true},
		{"before all", candidate(16, 0, 17, 0, 2), false},
		{"after all", candidate(20, 30, 22, 0, 2), false},
		{"touching boundaries is free (half-open)", candidate(18, 0, 19, 0, 2), false},
		{"identical start conflicts", candidate(17, 0, 17, 30, 2), true},
		{"identical window conflicts", candidate(19, 0, 20, 30, 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conflicts(tt.c, booked))
		})
	}
}

func TestConflictsEmptyAndOtherDays(t *testing.T) {
	assert.False(t, Conflicts(candidate(18, 0, 19, 0, 2), nil))

	// A booking on another calendar day never conflicts even when the
	// clock windows overlap.
	tuesday := monday.AddDate(0, 0, 1)
	booked := []Interval{{ID: 1, From: at(tuesday, 18, 0), Until: at(tuesday, 19, 0)}}
	assert.False(t, Conflicts(candidate(18, 0, 19, 0, 2), booked))
}

func TestExcludeID(t *testing.T) {
	booked := []Interval{
		{ID: 1, From: at(monday, 17, 0), Until: at(monday, 18, 0)},
		{ID: 2, From: at(monday, 18, 0), Until: at(monday, 19, 0)},
	}
	view := ExcludeID(booked, 2)
	require.Len(t, view, 1)
	assert.Equal(t, uint64(1), view[0].ID)
	assert.Len(t, booked, 2, "input must stay untouched")
}

func TestValidateForTable(t *testing.T) {
	hours := mondayHours(t)
	table := Table{ID: 7, Seats: 4, MinGuests: 2}
	booked := []Interval{{ID: 1, From: at(monday, 18, 0), Until: at(monday, 19, 0)}}

	tests := []struct {
		name    string
		c       Candidate
		wantID  uint64
		wantErr error
	}{
		{"accepted", candidate(19, 0, 20, 0, 4), 7, nil},
		{"outside hours", candidate(21, 0, 22, 0, 4), 0, ErrOutsideHours},
		{"party too large", candidate(19, 0, 20, 0, 6), 0, ErrNoCapacity},
		{"party below table minimum", candidate(19, 0, 20, 0, 1), 0, ErrNoCapacity},
		{"overlapping", candidate(18, 30, 19, 30, 4), 0, ErrConflicting},
		{"inverted window", Candidate{From: at(monday, 19, 0), Until: at(monday, 18, 0), Guests: 2}, 0, ErrBadCandidate},
		{"zero guests", candidate(19, 0, 20, 0, 0), 0, ErrBadCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ValidateForTable(tt.c, table, hours, booked)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestValidateForTableIdempotent(t *testing.T) {
	hours := mondayHours(t)
	table := Table{ID: 3, Seats: 6, MinGuests: 1}
	booked := []Interval{{ID: 9, From: at(monday, 17, 0), Until: at(monday, 18, 0)}}
	c := candidate(18, 0, 19, 30, 4)

	first, err1 := ValidateForTable(c, table, hours, booked)
	second, err2 := ValidateForTable(c, table, hours, booked)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

// A reservation accepted and persisted must validate to the same
// table again when its own row is excluded from the conflict set.
// This is the neutrality the update flow relies on.
func TestValidateUpdateRoundTrip(t *testing.T) {
	hours := mondayHours(t)
	table := Table{ID: 3, Seats: 6, MinGuests: 1}
	c := candidate(18, 0, 19, 30, 4)

	id, err := ValidateForTable(c, table, hours, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(3), id)

	persisted := []Interval{{ID: 42, From: c.From, Until: c.Until}}

	// Validating the same window again without exclusion conflicts
	// with itself; with the row excluded it is accepted unchanged.
	_, err = ValidateForTable(c, table, hours, persisted)
	assert.ErrorIs(t, err, ErrConflicting)

	again, err := ValidateForTable(c, table, hours, ExcludeID(persisted, 42))
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestValidateForRestaurant(t *testing.T) {
	hours := mondayHours(t)
	tables := []Table{
		{ID: 1, Seats: 2, MinGuests: 1},
		{ID: 2, Seats: 6, MinGuests: 2},
		{ID: 3, Seats: 4, MinGuests: 2},
	}
	empty := func(uint64) []Interval { return nil }

	t.Run("tightest fit wins", func(t *testing.T) {
		// Party of 2: table 1 (slack 0) beats tables 2 and 3.
		id, err := ValidateForRestaurant(candidate(18, 0, 19, 30, 2), hours, tables, empty)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)
	})

	t.Run("slack tie broken by lowest id", func(t *testing.T) {
		tied := []Table{
			{ID: 5, Seats: 4, MinGuests: 2},
			{ID: 4, Seats: 4, MinGuests: 2},
		}
		id, err := ValidateForRestaurant(candidate(18, 0, 19, 30, 4), hours, tied, empty)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), id)
	})

	t.Run("outside hours reported before capacity", func(t *testing.T) {
		_, err := ValidateForRestaurant(candidate(21, 0, 22, 0, 50), hours, tables, empty)
		assert.ErrorIs(t, err, ErrOutsideHours)
	})

	t.Run("no capacity", func(t *testing.T) {
		_, err := ValidateForRestaurant(candidate(18, 0, 19, 0, 10), hours, tables, empty)
		assert.ErrorIs(t, err, ErrNoCapacity)
	})

	t.Run("falls back to a looser table when tight one is booked", func(t *testing.T) {
		booked := map[uint64][]Interval{
			1: {{ID: 11, From: at(monday, 18, 0), Until: at(monday, 20, 0)}},
		}
		id, err := ValidateForRestaurant(candidate(18, 0, 19, 30, 2), hours, tables, func(tid uint64) []Interval {
			return booked[tid]
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), id, "4-seater is the next tightest fit")
	})

	t.Run("all fitting tables conflicting", func(t *testing.T) {
		window := []Interval{{ID: 12, From: at(monday, 18, 0), Until: at(monday, 20, 0)}}
		_, err := ValidateForRestaurant(candidate(18, 30, 19, 30, 2), hours, tables, func(uint64) []Interval {
			return window
		})
		assert.ErrorIs(t, err, ErrConflicting)
	})
}
