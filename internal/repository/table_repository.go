package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tischplan/restaurant-reservation/internal/model"
)

// ErrTableNotFound is returned when a table cannot be found.
var ErrTableNotFound = errors.New("table not found")

// TableRepo encapsulates queries on the 'tables' table. Ownership
// checks go through the owning restaurant, so several methods join
// against 'restaurants'.
type TableRepo struct {
	db *sql.DB
}

func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

const tableCols = "id, restaurant_id, name, seats, min_guests, created_at, updated_at"

// Create inserts a table and populates its ID and timestamps.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tables (restaurant_id, name, seats, min_guests) VALUES (?, ?, ?, ?)",
		t.RestaurantID, t.Name, t.Seats, t.MinGuests)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM tables WHERE id = ?", t.ID).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a table by its ID.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = "SELECT " + tableCols + " FROM tables WHERE id = ?"
	var t model.Table
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Seats, &t.MinGuests, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByIDAndOwner fetches a table only when its restaurant belongs
// to the given owner.
func (r *TableRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Table, error) {
	const q = `SELECT t.id, t.restaurant_id, t.name, t.seats, t.min_guests, t.created_at, t.updated_at
	           FROM tables t JOIN restaurants r ON r.id = t.restaurant_id
	           WHERE t.id = ? AND r.owner_id = ?`
	var t model.Table
	if err := r.db.QueryRowContext(ctx, q, id, ownerID).Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Seats, &t.MinGuests, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByRestaurant returns all tables of a restaurant ordered by id.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	const q = "SELECT " + tableCols + " FROM tables WHERE restaurant_id = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Seats, &t.MinGuests, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner updates a table's attributes when its
// restaurant belongs to the owner. Returns sql.ErrNoRows when no
// row matched.
func (r *TableRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, name string, seats, minGuests uint32) error {
	const q = `UPDATE tables t JOIN restaurants r ON r.id = t.restaurant_id
	           SET t.name = ?, t.seats = ?, t.min_guests = ?, t.updated_at = CURRENT_TIMESTAMP
	           WHERE t.id = ? AND r.owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, seats, minGuests, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDAndOwner removes a table and its reservations in one
// transaction, but only when the owner matches.
func (r *TableRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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
	var got uint64
	err = tx.QueryRowContext(ctx,
		"SELECT t.id FROM tables t JOIN restaurants r ON r.id = t.restaurant_id WHERE t.id = ? AND r.owner_id = ?",
		id, ownerID).Scan(&got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTableNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE table_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tables WHERE id = ?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// LockTx locks a single table row with SELECT ... FOR UPDATE and
// returns it. Concurrent reservation requests for the same table
// block here until the holding transaction commits, which serializes
// the read-validate-insert sequence per table.
func (r *TableRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Table, error) {
	const q = "SELECT " + tableCols + " FROM tables WHERE id = ? FOR UPDATE"
	var t model.Table
	if err := tx.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Seats, &t.MinGuests, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// LockByRestaurantTx locks every table of a restaurant FOR UPDATE
// and returns them ordered by id. Used by the restaurant-level
// reservation flow, where the validator may pick any table.
func (r *TableRepo) LockByRestaurantTx(ctx context.Context, tx *sql.Tx, restaurantID uint64) ([]model.Table, error) {
	const q = "SELECT " + tableCols + " FROM tables WHERE restaurant_id = ? ORDER BY id FOR UPDATE"
	rows, err := tx.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Seats, &t.MinGuests, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
