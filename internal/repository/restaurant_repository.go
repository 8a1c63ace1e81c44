package repository

// A restaurant belongs to a single owner and carries exactly one
// address; the address row is replaced whenever the restaurant is
// updated with a new one.

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tischplan/restaurant-reservation/internal/model"
)

// ErrRestaurantNotFound is returned when a restaurant cannot be found.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// RestaurantRepo encapsulates all database queries related to
// restaurants and addresses. It depends on a sql.DB connection
// configured at startup.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo constructs a RestaurantRepo with the provided DB
// handle, allowing dependency injection in tests and at startup.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

// DB exposes the underlying handle so handlers can begin
// transactions spanning multiple repositories.
func (r *RestaurantRepo) DB() *sql.DB { return r.db }

// Create inserts a new restaurant together with its address. On
// success the ID and timestamp fields are populated from the
// database.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant, addr *model.Address) error {
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

	res, err := tx.ExecContext(ctx, "INSERT INTO restaurants (owner_id, name) VALUES (?, ?)", rest.OwnerID, rest.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = uint64(id)

	addr.RestaurantID = rest.ID
	res, err = tx.ExecContext(ctx,
		"INSERT INTO addresses (restaurant_id, street_name, house_number, postal_code, city, country_code) VALUES (?, ?, ?, ?, ?, ?)",
		addr.RestaurantID, addr.StreetName, addr.HouseNumber, addr.PostalCode, addr.City, addr.CountryCode)
	if err != nil {
		return err
	}
	if aid, err := res.LastInsertId(); err == nil {
		addr.ID = uint64(aid)
	}

	if err := tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM restaurants WHERE id = ?", rest.ID).
		Scan(&rest.CreatedAt, &rest.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a restaurant by its ID regardless of owner. It
// returns ErrRestaurantNotFound if no row is found.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = "SELECT id, owner_id, name, created_at, updated_at FROM restaurants WHERE id = ?"
	var rest model.Restaurant
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &rest, nil
}

// GetByIDAndOwner fetches a restaurant by id but only if it belongs
// to the specified owner; otherwise ErrRestaurantNotFound.
func (r *RestaurantRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Restaurant, error) {
	const q = "SELECT id, owner_id, name, created_at, updated_at FROM restaurants WHERE id = ? AND owner_id = ?"
	var rest model.Restaurant
	if err := r.db.QueryRowContext(ctx, q, id, ownerID).Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &rest, nil
}

// ListByOwner returns all restaurants for a specific owner ordered by id.
func (r *RestaurantRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Restaurant, error) {
	const q = `SELECT id, owner_id, name, created_at, updated_at
	           FROM restaurants WHERE owner_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Restaurant
	for rows.Next() {
		rest := new(model.Restaurant)
		if err := rows.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// ListAll returns all restaurants regardless of owner. Used by the
// public browsing endpoints; only ID and Name are selected to avoid
// exposing owner or timestamp fields.
func (r *RestaurantRepo) ListAll(ctx context.Context) ([]*model.Restaurant, error) {
	const q = `SELECT id, name FROM restaurants ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Restaurant
	for rows.Next() {
		rest := new(model.Restaurant)
		if err := rows.Scan(&rest.ID, &rest.Name); err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// UpdateName renames the restaurant if it belongs to the provided
// owner. Returns sql.ErrNoRows when no row is affected.
func (r *RestaurantRepo) UpdateName(ctx context.Context, id, ownerID uint64, name string) error {
	const q = `UPDATE restaurants
	           SET name = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDAndOwner removes a restaurant and its dependent rows
// (address, business hours, tables, reservations). The cascade is
// done explicitly in one transaction so partially deleted venues can
// never be observed.
func (r *RestaurantRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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
	if err := tx.QueryRowContext(ctx, "SELECT id FROM restaurants WHERE id = ? AND owner_id = ?", id, ownerID).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRestaurantNotFound
		}
		return err
	}
	steps := []string{
		"DELETE r FROM reservations r JOIN tables t ON t.id = r.table_id WHERE t.restaurant_id = ?",
		"DELETE FROM tables WHERE restaurant_id = ?",
		"DELETE FROM business_hours WHERE restaurant_id = ?",
		"DELETE FROM addresses WHERE restaurant_id = ?",
		"DELETE FROM restaurants WHERE id = ?",
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetAddress returns the address of a restaurant.
func (r *RestaurantRepo) GetAddress(ctx context.Context, restaurantID uint64) (*model.Address, error) {
	const q = `SELECT id, restaurant_id, street_name, house_number, postal_code, city, country_code
	           FROM addresses WHERE restaurant_id = ? LIMIT 1`
	var a model.Address
	if err := r.db.QueryRowContext(ctx, q, restaurantID).Scan(
		&a.ID, &a.RestaurantID, &a.StreetName, &a.HouseNumber, &a.PostalCode, &a.City, &a.CountryCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ReplaceAddress swaps the restaurant's address for a new one.
func (r *RestaurantRepo) ReplaceAddress(ctx context.Context, addr *model.Address) error {
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
	if _, err := tx.ExecContext(ctx, "DELETE FROM addresses WHERE restaurant_id = ?", addr.RestaurantID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO addresses (restaurant_id, street_name, house_number, postal_code, city, country_code) VALUES (?, ?, ?, ?, ?, ?)",
		addr.RestaurantID, addr.StreetName, addr.HouseNumber, addr.PostalCode, addr.City, addr.CountryCode)
	if err != nil {
		return err
	}
	if aid, err := res.LastInsertId(); err == nil {
		addr.ID = uint64(aid)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
