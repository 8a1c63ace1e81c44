package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tischplan/restaurant-reservation/internal/model"
)

// ErrReservationNotFound is returned when a reservation cannot be found.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides CRUD operations for reservations. All
// timestamp fields are stored in UTC. Mutations that belong to a
// validate-then-apply flow come in ...Tx variants so the handler can
// run them under the same transaction (and table lock) as the
// validation reads.
type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

// DB exposes the underlying handle for handlers that begin
// transactions spanning several repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, table_id, customer_name, customer_email, customer_phone,
	additional_information, reserved_from, reserved_until, guest_amount, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var (
		res   model.Reservation
		phone sql.NullString
		info  sql.NullString
	)
	err := row.Scan(&res.ID, &res.TableID, &res.CustomerName, &res.CustomerEmail, &phone,
		&info, &res.ReservedFrom, &res.ReservedUntil, &res.GuestAmount, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		p := phone.String
		res.CustomerPhone = &p
	}
	if info.Valid {
		i := info.String
		res.AdditionalInfo = &i
	}
	return &res, nil
}

// CreateTx inserts a reservation within an existing transaction and
// populates the generated ID and timestamps. The caller commits or
// rolls back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(table_id, customer_name, customer_email, customer_phone, additional_information, reserved_from, reserved_until, guest_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	out, err := tx.ExecContext(ctx, q, res.TableID, res.CustomerName, res.CustomerEmail,
		res.CustomerPhone, res.AdditionalInfo, res.ReservedFrom.UTC(), res.ReservedUntil.UTC(), res.GuestAmount)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM reservations WHERE id = ?", res.ID).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

// UpdateTx rewrites the mutable fields of a reservation within an
// existing transaction. The table assignment may change when the
// validator picked a different table.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `UPDATE reservations SET
		table_id = ?, customer_name = ?, customer_email = ?, customer_phone = ?,
		additional_information = ?, reserved_from = ?, reserved_until = ?, guest_amount = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	out, err := tx.ExecContext(ctx, q, res.TableID, res.CustomerName, res.CustomerEmail,
		res.CustomerPhone, res.AdditionalInfo, res.ReservedFrom.UTC(), res.ReservedUntil.UTC(), res.GuestAmount, res.ID)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// GetByID fetches one reservation.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = "SELECT " + reservationCols + " FROM reservations WHERE id = ?"
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// DeleteByID removes a reservation without re-validation; freeing a
// slot can never make a schedule invalid.
func (r *ReservationRepo) DeleteByID(ctx context.Context, id uint64) error {
	out, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListForTableOnDateTx returns the reservations of one table on one
// calendar date, ordered ascending by reserved_from. It runs inside
// the caller's transaction so the conflict snapshot and the
// subsequent insert observe the same state.
func (r *ReservationRepo) ListForTableOnDateTx(ctx context.Context, tx *sql.Tx, tableID uint64, date time.Time) ([]model.Reservation, error) {
	const q = "SELECT " + reservationCols + ` FROM reservations
		WHERE table_id = ? AND DATE(reserved_from) = DATE(?)
		ORDER BY reserved_from ASC, id ASC`
	rows, err := tx.QueryContext(ctx, q, tableID, date.UTC())
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListForTableOnDate is the non-transactional variant used by the
// dry-run validation endpoints, which must not take locks or leave
// any persisted trace.
func (r *ReservationRepo) ListForTableOnDate(ctx context.Context, tableID uint64, date time.Time) ([]model.Reservation, error) {
	const q = "SELECT " + reservationCols + ` FROM reservations
		WHERE table_id = ? AND DATE(reserved_from) = DATE(?)
		ORDER BY reserved_from ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, tableID, date.UTC())
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// SearchQuery defines the optional filters of GET /v1/reservations.
// Zero values mean "not filtered". It mirrors the query surface of
// the reservation listing endpoint.
type SearchQuery struct {
	RestaurantID   uint64
	TableID        uint64
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	StartingFrom   *time.Time
	StartingAt     *time.Time
	EndingBefore   *time.Time
	EndingAt       *time.Time
	GuestAmount    uint32
	MinGuestAmount uint32
	MaxGuestAmount uint32
}

// Search returns reservations matching all provided filters,
// ordered by start time. The WHERE clause is assembled dynamically
// from the non-zero filters.
func (r *ReservationRepo) Search(ctx context.Context, q SearchQuery) ([]model.Reservation, error) {
	where := []string{}
	args := []any{}

	if q.RestaurantID != 0 {
		where = append(where, "t.restaurant_id = ?")
		args = append(args, q.RestaurantID)
	}
	if q.TableID != 0 {
		where = append(where, "res.table_id = ?")
		args = append(args, q.TableID)
	}
	if q.CustomerName != "" {
		where = append(where, "LOWER(res.customer_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.CustomerName)+"%")
	}
	if q.CustomerEmail != "" {
		where = append(where, "LOWER(res.customer_email) = ?")
		args = append(args, strings.ToLower(q.CustomerEmail))
	}
	if q.CustomerPhone != "" {
		where = append(where, "res.customer_phone = ?")
		args = append(args, q.CustomerPhone)
	}
	if q.StartingFrom != nil {
		where = append(where, "res.reserved_from >= ?")
		args = append(args, q.StartingFrom.UTC())
	}
	if q.StartingAt != nil {
		where = append(where, "res.reserved_from = ?")
		args = append(args, q.StartingAt.UTC())
	}
	if q.EndingBefore != nil {
		where = append(where, "res.reserved_until <= ?")
		args = append(args, q.EndingBefore.UTC())
	}
	if q.EndingAt != nil {
		where = append(where, "res.reserved_until = ?")
		args = append(args, q.EndingAt.UTC())
	}
	if q.GuestAmount != 0 {
		where = append(where, "res.guest_amount = ?")
		args = append(args, q.GuestAmount)
	}
	if q.MinGuestAmount != 0 {
		where = append(where, "res.guest_amount >= ?")
		args = append(args, q.MinGuestAmount)
	}
	if q.MaxGuestAmount != 0 {
		where = append(where, "res.guest_amount <= ?")
		args = append(args, q.MaxGuestAmount)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	sqlText := `SELECT res.id, res.table_id, res.customer_name, res.customer_email, res.customer_phone,
			res.additional_information, res.reserved_from, res.reserved_until, res.guest_amount,
			res.created_at, res.updated_at
		FROM reservations res
		JOIN tables t ON t.id = res.table_id
		WHERE ` + cond + `
		ORDER BY res.reserved_from ASC, res.id ASC`

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
