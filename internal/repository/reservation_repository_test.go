package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tischplan/restaurant-reservation/internal/model"
)

var reservationRowCols = []string{
	"id", "table_id", "customer_name", "customer_email", "customer_phone",
	"additional_information", "reserved_from", "reserved_until", "guest_amount",
	"created_at", "updated_at",
}

func reservationRow(mockRows *sqlmock.Rows, id, tableID uint64, name string, from, until time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return mockRows.AddRow(id, tableID, name, name+"@example.com", nil, nil, from, until, 2, now, now)
}

func TestCreateTxPopulatesIDAndTimestamps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	from := time.Date(2023, 5, 8, 18, 0, 0, 0, time.UTC)
	until := from.Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WithArgs(uint64(4), "Ada Lovelace", "ada@example.com", nil, nil, from, until, uint32(3)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM reservations WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewReservationRepo(db)
	res := &model.Reservation{
		TableID:       4,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		ReservedFrom:  from,
		ReservedUntil: until,
		GuestAmount:   3,
	}
	require.NoError(t, repo.CreateTx(ctx, tx, res))
	assert.Equal(t, uint64(11), res.ID)
	assert.Equal(t, now, res.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForTableOnDateTxOrdersByStart(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2023, 5, 8, 0, 0, 0, 0, time.UTC)
	early := day.Add(17 * time.Hour)
	late := day.Add(19 * time.Hour)

	rows := sqlmock.NewRows(reservationRowCols)
	rows = reservationRow(rows, 1, 4, "first", early, early.Add(time.Hour))
	rows = reservationRow(rows, 2, 4, "second", late, late.Add(time.Hour))

	mock.ExpectBegin()
	mock.ExpectQuery(`DATE\(reserved_from\) = DATE\(\?\)\s+ORDER BY reserved_from ASC, id ASC`).
		WithArgs(uint64(4), day).
		WillReturnRows(rows)

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	out, err := NewReservationRepo(db).ListForTableOnDateTx(ctx, tx, 4, day)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].CustomerName)
	assert.Equal(t, "second", out[1].CustomerName)
	assert.True(t, out[0].ReservedFrom.Before(out[1].ReservedFrom))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchBuildsFiltersInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(reservationRowCols)
	now := time.Now().UTC()
	rows = reservationRow(rows, 7, 2, "match", now, now.Add(time.Hour))

	mock.ExpectQuery(`t\.restaurant_id = \? AND LOWER\(res\.customer_name\) LIKE \? AND res\.guest_amount >= \?`).
		WithArgs(uint64(3), "%ada%", uint32(2)).
		WillReturnRows(rows)

	out, err := NewReservationRepo(db).Search(context.Background(), SearchQuery{
		RestaurantID:   3,
		CustomerName:   "Ada",
		MinGuestAmount: 2,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(7), out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithoutFiltersListsEverything(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows(reservationRowCols))

	out, err := NewReservationRepo(db).Search(context.Background(), SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchTimeWindowFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2023, 5, 8, 17, 0, 0, 0, time.UTC)
	until := time.Date(2023, 5, 8, 22, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`res\.reserved_from >= \? AND res\.reserved_until <= \?`).
		WithArgs(from, until).
		WillReturnRows(sqlmock.NewRows(reservationRowCols))

	_, err = NewReservationRepo(db).Search(context.Background(), SearchQuery{
		StartingFrom: &from,
		EndingBefore: &until,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM reservations WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(reservationRowCols))

	_, err = NewReservationRepo(db).GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservations WHERE id = ?")).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewReservationRepo(db).DeleteByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTxNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2023, 5, 8, 18, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	err = NewReservationRepo(db).UpdateTx(ctx, tx, &model.Reservation{
		ID:            123,
		TableID:       4,
		CustomerName:  "gone",
		CustomerEmail: "gone@example.com",
		ReservedFrom:  from,
		ReservedUntil: from.Add(time.Hour),
		GuestAmount:   2,
	})
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
