package repository

import (
	"context"
	"database/sql"

	"github.com/tischplan/restaurant-reservation/internal/model"
)

// BusinessHourRepo provides access to the 'business_hours' table.
// A restaurant can have several blocks per weekday (split shifts);
// the whole set is replaced at once rather than edited row by row.
type BusinessHourRepo struct {
	db *sql.DB
}

func NewBusinessHourRepo(db *sql.DB) *BusinessHourRepo {
	return &BusinessHourRepo{db: db}
}

const hourCols = "id, restaurant_id, weekday, open_time, open_for_reservation_until, close_time"

// ListForRestaurant returns all business hour blocks of a restaurant
// ordered by weekday, then opening time.
func (r *BusinessHourRepo) ListForRestaurant(ctx context.Context, restaurantID uint64) ([]model.BusinessHour, error) {
	const q = "SELECT " + hourCols + " FROM business_hours WHERE restaurant_id = ? ORDER BY weekday, open_time"
	return r.list(ctx, r.db.QueryContext, q, restaurantID)
}

// ListForRestaurantTx is ListForRestaurant inside an open transaction,
// used by the reservation flow so the hours snapshot and the insert
// see the same state.
func (r *BusinessHourRepo) ListForRestaurantTx(ctx context.Context, tx *sql.Tx, restaurantID uint64) ([]model.BusinessHour, error) {
	const q = "SELECT " + hourCols + " FROM business_hours WHERE restaurant_id = ? ORDER BY weekday, open_time"
	return r.list(ctx, tx.QueryContext, q, restaurantID)
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (r *BusinessHourRepo) list(ctx context.Context, query queryFunc, q string, args ...any) ([]model.BusinessHour, error) {
	rows, err := query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BusinessHour
	for rows.Next() {
		var h model.BusinessHour
		if err := rows.Scan(&h.ID, &h.RestaurantID, &h.Weekday, &h.OpenTime, &h.OpenForReservationUntil, &h.CloseTime); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ReplaceForRestaurant swaps the complete business hour set of a
// restaurant in one transaction.
func (r *BusinessHourRepo) ReplaceForRestaurant(ctx context.Context, restaurantID uint64, hours []model.BusinessHour) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM business_hours WHERE restaurant_id = ?", restaurantID); err != nil {
		return err
	}
	for i := range hours {
		h := &hours[i]
		h.RestaurantID = restaurantID
		res, err := tx.ExecContext(ctx,
			"INSERT INTO business_hours (restaurant_id, weekday, open_time, open_for_reservation_until, close_time) VALUES (?, ?, ?, ?, ?)",
			h.RestaurantID, h.Weekday, h.OpenTime, h.OpenForReservationUntil, h.CloseTime)
		if err != nil {
			return err
		}
		if id, err := res.LastInsertId(); err == nil {
			h.ID = uint64(id)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
