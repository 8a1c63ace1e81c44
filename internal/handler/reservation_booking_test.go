package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tischplan/restaurant-reservation/internal/repository"
)

var (
	tableCols       = []string{"id", "restaurant_id", "name", "seats", "min_guests", "created_at", "updated_at"}
	hourCols        = []string{"id", "restaurant_id", "weekday", "open_time", "open_for_reservation_until", "close_time"}
	restaurantCols  = []string{"id", "owner_id", "name", "created_at", "updated_at"}
	reservationCols = []string{
		"id", "table_id", "customer_name", "customer_email", "customer_phone",
		"additional_information", "reserved_from", "reserved_until", "guest_amount",
		"created_at", "updated_at",
	}
)

func newBookingEnv(t *testing.T) (*echo.Echo, *ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := echo.New()
	e.Validator = NewRequestValidator()
	h := NewReservationHandler(
		repository.NewRestaurantRepo(db),
		repository.NewBusinessHourRepo(db),
		repository.NewTableRepo(db),
		repository.NewReservationRepo(db),
	)
	return e, h, mock
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// mondayHourRows returns one Monday block 17:00-21:00, last seating
// at 20:00. 2023-05-08 is a Monday.
func mondayHourRows(restaurantID uint64) *sqlmock.Rows {
	return sqlmock.NewRows(hourCols).AddRow(1, restaurantID, 0, "17:00:00", "20:00:00", "21:00:00")
}

const singleCandidate = `{
	"customer_name": "Ada Lovelace",
	"customer_email": "ada@example.com",
	"reserved_from": "2023-05-08T18:00:00Z",
	"reserved_until": "2023-05-08T19:00:00Z",
	"guest_amount": 2
}`

func TestValidateForTableAccepts(t *testing.T) {
	e, h, mock := newBookingEnv(t)
	e.POST("/v1/tables/:id/validate-reservation", h.ValidateForTable)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM tables WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(9, 3, "window", 4, 1, now, now))
	mock.ExpectQuery(`FROM business_hours WHERE restaurant_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(mondayHourRows(3))
	mock.ExpectQuery(`DATE\(reserved_from\) = DATE\(\?\)`).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	rec := doJSON(e, http.MethodPost, "/v1/tables/9/validate-reservation", singleCandidate)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)
	assert.Contains(t, rec.Body.String(), `"table_id":9`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateForTableReportsConflict(t *testing.T) {
	e, h, mock := newBookingEnv(t)
	e.POST("/v1/tables/:id/validate-reservation", h.ValidateForTable)

	now := time.Now().UTC()
	booked := sqlmock.NewRows(reservationCols).AddRow(
		5, 9, "Early Bird", "early@example.com", nil, nil,
		time.Date(2023, 5, 8, 18, 30, 0, 0, time.UTC),
		time.Date(2023, 5, 8, 19, 30, 0, 0, time.UTC),
		2, now, now)

	mock.ExpectQuery(`FROM tables WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(9, 3, "window", 4, 1, now, now))
	mock.ExpectQuery(`FROM business_hours WHERE restaurant_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(mondayHourRows(3))
	mock.ExpectQuery(`DATE\(reserved_from\) = DATE\(\?\)`).
		WillReturnRows(booked)

	rec := doJSON(e, http.MethodPost, "/v1/tables/9/validate-reservation", singleCandidate)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateForTableRejectsInvertedWindow(t *testing.T) {
	e, h, _ := newBookingEnv(t)
	e.POST("/v1/tables/:id/validate-reservation", h.ValidateForTable)

	body := strings.Replace(singleCandidate, `"2023-05-08T19:00:00Z"`, `"2023-05-08T17:00:00Z"`, 1)
	rec := doJSON(e, http.MethodPost, "/v1/tables/9/validate-reservation", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateForTableBatchCommits(t *testing.T) {
	e, h, mock := newBookingEnv(t)
	e.POST("/v1/tables/:id/reservations", h.CreateForTable)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tables WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(9, 3, "window", 4, 1, now, now))
	mock.ExpectQuery(`FROM business_hours WHERE restaurant_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(mondayHourRows(3))
	// Both candidates share the calendar day, so the conflict snapshot
	// is loaded once.
	mock.ExpectQuery(`DATE\(reserved_from\) = DATE\(\?\)`).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM reservations WHERE id = ?")).
		WithArgs(uint64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(22, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM reservations WHERE id = ?")).
		WithArgs(uint64(22)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM restaurants WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(restaurantCols).AddRow(3, 1, "Trattoria", now, now))

	body := `[
		{"customer_name": "Ada", "customer_email": "ada@example.com",
		 "reserved_from": "2023-05-08T17:00:00Z", "reserved_until": "2023-05-08T18:00:00Z",
		 "guest_amount": 2},
		{"customer_name": "Grace", "customer_email": "grace@example.com",
		 "reserved_from": "2023-05-08T18:00:00Z", "reserved_until": "2023-05-08T19:00:00Z",
		 "guest_amount": 3}
	]`
	rec := doJSON(e, http.MethodPost, "/v1/tables/9/reservations", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":21`)
	assert.Contains(t, rec.Body.String(), `"id":22`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForTableBatchRejectsAtomically(t *testing.T) {
	e, h, mock := newBookingEnv(t)
	e.POST("/v1/tables/:id/reservations", h.CreateForTable)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tables WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(9, 3, "window", 4, 1, now, now))
	mock.ExpectQuery(`FROM business_hours WHERE restaurant_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(mondayHourRows(3))
	mock.ExpectQuery(`DATE\(reserved_from\) = DATE\(\?\)`).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectRollback()

	// The second candidate overlaps the first, which is only staged;
	// nothing may be inserted.
	body := `[
		{"customer_name": "Ada", "customer_email": "ada@example.com",
		 "reserved_from": "2023-05-08T18:00:00Z", "reserved_until": "2023-05-08T19:00:00Z",
		 "guest_amount": 2},
		{"customer_name": "Grace", "customer_email": "grace@example.com",
		 "reserved_from": "2023-05-08T18:30:00Z", "reserved_until": "2023-05-08T19:30:00Z",
		 "guest_amount": 2}
	]`
	rec := doJSON(e, http.MethodPost, "/v1/tables/9/reservations", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"index":1`)
	assert.Contains(t, rec.Body.String(), "invalid_reservations")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForRestaurantPicksTightestTable(t *testing.T) {
	e, h, mock := newBookingEnv(t)
	e.POST("/v1/restaurants/:id/reservations", h.CreateForRestaurant)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM restaurants WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(restaurantCols).AddRow(3, 1, "Trattoria", now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tables WHERE restaurant_id = \? ORDER BY id FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(tableCols).
			AddRow(1, 3, "banquet", 8, 1, now, now).
			AddRow(2, 3, "duo", 2, 1, now, now))
	mock.ExpectQuery(`FROM business_hours WHERE restaurant_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(mondayHourRows(3))
	// Conflict snapshots for both candidate tables.
	mock.ExpectQuery(`DATE\(reserved_from\) = DATE\(\?\)`).
		WithArgs(uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectQuery(`DATE\(reserved_from\) = DATE\(\?\)`).
		WithArgs(uint64(2), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WithArgs(uint64(2), "Ada Lovelace", "ada@example.com", nil, nil,
			time.Date(2023, 5, 8, 18, 0, 0, 0, time.UTC),
			time.Date(2023, 5, 8, 19, 0, 0, 0, time.UTC), uint32(2)).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM reservations WHERE id = ?")).
		WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	rec := doJSON(e, http.MethodPost, "/v1/restaurants/3/reservations", "["+singleCandidate+"]")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"table_id":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForRestaurantOutsideHours(t *testing.T) {
	e, h, mock := newBookingEnv(t)
	e.POST("/v1/restaurants/:id/reservations", h.CreateForRestaurant)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM restaurants WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(restaurantCols).AddRow(3, 1, "Trattoria", now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tables WHERE restaurant_id = \? ORDER BY id FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(1, 3, "banquet", 8, 1, now, now))
	mock.ExpectQuery(`FROM business_hours WHERE restaurant_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(mondayHourRows(3))
	mock.ExpectRollback()

	// 22:00 start is past closing.
	body := strings.NewReplacer(
		"2023-05-08T18:00:00Z", "2023-05-08T22:00:00Z",
		"2023-05-08T19:00:00Z", "2023-05-08T23:00:00Z",
	).Replace("[" + singleCandidate + "]")
	rec := doJSON(e, http.MethodPost, "/v1/restaurants/3/reservations", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "business hours")
	assert.NoError(t, mock.ExpectationsWereMet())
}
