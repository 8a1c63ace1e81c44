package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/booking"
	"github.com/tischplan/restaurant-reservation/internal/model"
	"github.com/tischplan/restaurant-reservation/internal/queue"
	"github.com/tischplan/restaurant-reservation/internal/repository"
	queue_publisher "github.com/tischplan/restaurant-reservation/internal/service"
)

// invalidReservation is one rejected entry of a batch request. The
// whole batch is reported, not just the first failure.
type invalidReservation struct {
	Index       int            `json:"index"`
	Reservation reservationReq `json:"reservation"`
	Reason      string         `json:"reason"`
}

// bindBatch reads and validates the request body of a batch
// reservation endpoint. Malformed candidates (inverted window, zero
// guests) are rejected here, before any scheduling logic runs.
func bindBatch(c echo.Context) ([]reservationReq, error) {
	var reqs []reservationReq
	if err := c.Bind(&reqs); err != nil {
		return nil, errors.New("invalid request body")
	}
	if len(reqs) == 0 {
		return nil, errors.New("reservation list must not be empty")
	}
	for i := range reqs {
		if err := c.Validate(&reqs[i]); err != nil {
			return nil, fmt.Errorf("reservation %d: %s", i, err.Error())
		}
		if err := reqs[i].candidate().Check(); err != nil {
			return nil, fmt.Errorf("reservation %d: %s", i, err.Error())
		}
	}
	return reqs, nil
}

// intervalLoader fetches the persisted same-day intervals of a table,
// caching per table and calendar day so a batch touching the same day
// repeatedly queries once. The first fetch error sticks and makes all
// further loads return nil; callers check err after validating.
type intervalLoader struct {
	fetch func(tableID uint64, day time.Time) ([]model.Reservation, error)
	cache map[string][]booking.Interval
	err   error
}

func newIntervalLoader(fetch func(tableID uint64, day time.Time) ([]model.Reservation, error)) *intervalLoader {
	return &intervalLoader{fetch: fetch, cache: make(map[string][]booking.Interval)}
}

func (l *intervalLoader) load(tableID uint64, day time.Time) []booking.Interval {
	if l.err != nil {
		return nil
	}
	key := fmt.Sprintf("%d|%s", tableID, day.UTC().Format("2006-01-02"))
	if iv, ok := l.cache[key]; ok {
		return iv
	}
	rows, err := l.fetch(tableID, day)
	if err != nil {
		l.err = err
		return nil
	}
	iv := intervalsView(rows)
	l.cache[key] = iv
	return iv
}

// CreateForRestaurant handles POST /v1/restaurants/:id/reservations.
// The body is a list of candidate reservations, processed strictly in
// order; each accepted candidate is visible to the ones after it. The
// batch commits all-or-nothing: if any candidate cannot be placed the
// response lists every rejected entry and nothing is persisted. All
// tables of the restaurant are locked for the duration so concurrent
// requests serialize.
func (h *ReservationHandler) CreateForRestaurant(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	reqs, err := bindBatch(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	rest, err := h.RestaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := beginTx(ctx, h.ReservationRepo.DB())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	defer tx.rollbackUnlessCommitted()

	tables, err := h.TableRepo.LockByRestaurantTx(ctx, tx.tx, restaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hourRows, err := h.HourRepo.ListForRestaurantTx(ctx, tx.tx, restaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := hoursView(hourRows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid business hours data"})
	}

	views := make([]booking.Table, 0, len(tables))
	byID := make(map[uint64]*model.Table, len(tables))
	for i := range tables {
		views = append(views, capacityView(&tables[i]))
		byID[tables[i].ID] = &tables[i]
	}

	loader := newIntervalLoader(func(tableID uint64, day time.Time) ([]model.Reservation, error) {
		return h.ReservationRepo.ListForTableOnDateTx(ctx, tx.tx, tableID, day)
	})
	stage := booking.NewStage()
	assigned := make([]uint64, len(reqs))
	var invalid []invalidReservation

	for i := range reqs {
		cand := reqs[i].candidate()
		tableID, err := booking.ValidateForRestaurant(cand, hours, views, func(id uint64) []booking.Interval {
			return stage.View(id, loader.load(id, cand.From))
		})
		if loader.err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err != nil {
			invalid = append(invalid, invalidReservation{Index: i, Reservation: reqs[i], Reason: conflictReason(err)})
			continue
		}
		stage.Add(tableID, cand)
		assigned[i] = tableID
	}
	if len(invalid) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                "one or more reservations cannot be placed",
			"invalid_reservations": invalid,
		})
	}

	created := make([]*model.Reservation, 0, len(reqs))
	for i := range reqs {
		res := reqs[i].toModel(assigned[i])
		if err := h.ReservationRepo.CreateTx(ctx, tx.tx, res); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
		}
		created = append(created, res)
	}
	if err := tx.commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	go publishConfirmed(rest, byID, created)

	out := make([]reservationResp, 0, len(created))
	for _, res := range created {
		out = append(out, toReservationResp(res))
	}
	return c.JSON(http.StatusCreated, out)
}

// CreateForTable handles POST /v1/tables/:id/reservations. Same batch
// semantics as the restaurant-level endpoint, but every candidate must
// fit this one table; only its row is locked.
func (h *ReservationHandler) CreateForTable(c echo.Context) error {
	tableID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	reqs, err := bindBatch(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	tx, err := beginTx(ctx, h.ReservationRepo.DB())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	defer tx.rollbackUnlessCommitted()

	table, err := h.TableRepo.LockTx(ctx, tx.tx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hourRows, err := h.HourRepo.ListForRestaurantTx(ctx, tx.tx, table.RestaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := hoursView(hourRows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid business hours data"})
	}

	loader := newIntervalLoader(func(tableID uint64, day time.Time) ([]model.Reservation, error) {
		return h.ReservationRepo.ListForTableOnDateTx(ctx, tx.tx, tableID, day)
	})
	stage := booking.NewStage()
	var invalid []invalidReservation

	for i := range reqs {
		cand := reqs[i].candidate()
		view := stage.View(table.ID, loader.load(table.ID, cand.From))
		if loader.err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if _, err := booking.ValidateForTable(cand, capacityView(table), hours, view); err != nil {
			invalid = append(invalid, invalidReservation{Index: i, Reservation: reqs[i], Reason: conflictReason(err)})
			continue
		}
		stage.Add(table.ID, cand)
	}
	if len(invalid) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                "one or more reservations cannot be placed",
			"invalid_reservations": invalid,
		})
	}

	created := make([]*model.Reservation, 0, len(reqs))
	for i := range reqs {
		res := reqs[i].toModel(table.ID)
		if err := h.ReservationRepo.CreateTx(ctx, tx.tx, res); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
		}
		created = append(created, res)
	}
	if err := tx.commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	rest, err := h.RestaurantRepo.GetByID(ctx, table.RestaurantID)
	if err == nil {
		go publishConfirmed(rest, map[uint64]*model.Table{table.ID: table}, created)
	}

	out := make([]reservationResp, 0, len(created))
	for _, res := range created {
		out = append(out, toReservationResp(res))
	}
	return c.JSON(http.StatusCreated, out)
}

// ValidateForRestaurant handles POST /v1/restaurants/:id/validate-reservation.
// It answers whether a single candidate could be booked right now and
// which table it would land on. Nothing is locked or written, so a
// later create may still fail if the slot is taken in between.
func (h *ReservationHandler) ValidateForRestaurant(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	cand := req.candidate()
	if err := cand.Check(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if _, err := h.RestaurantRepo.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	tables, err := h.TableRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hourRows, err := h.HourRepo.ListForRestaurant(ctx, restaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := hoursView(hourRows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid business hours data"})
	}

	views := make([]booking.Table, 0, len(tables))
	for i := range tables {
		views = append(views, capacityView(&tables[i]))
	}
	var loadErr error
	cache := make(map[uint64][]booking.Interval)
	tableID, err := booking.ValidateForRestaurant(cand, hours, views, func(id uint64) []booking.Interval {
		if iv, ok := cache[id]; ok {
			return iv
		}
		rows, err := h.ReservationRepo.ListForTableOnDate(ctx, id, cand.From)
		if err != nil {
			loadErr = err
			return nil
		}
		iv := intervalsView(rows)
		cache[id] = iv
		return iv
	})
	if loadErr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"valid": false, "error": conflictReason(err)})
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "table_id": tableID})
}

// ValidateForTable handles POST /v1/tables/:id/validate-reservation,
// the single-table dry run.
func (h *ReservationHandler) ValidateForTable(c echo.Context) error {
	tableID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	cand := req.candidate()
	if err := cand.Check(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	table, err := h.TableRepo.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hourRows, err := h.HourRepo.ListForRestaurant(ctx, table.RestaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := hoursView(hourRows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid business hours data"})
	}
	rows, err := h.ReservationRepo.ListForTableOnDate(ctx, tableID, cand.From)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if _, err := booking.ValidateForTable(cand, capacityView(table), hours, intervalsView(rows)); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"valid": false, "error": conflictReason(err)})
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "table_id": table.ID})
}

// publishConfirmed emits a reservation.confirmed event per created
// reservation. Runs detached from the request; a broker outage never
// affects the already-committed reservations.
func publishConfirmed(rest *model.Restaurant, tables map[uint64]*model.Table, created []*model.Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, res := range created {
		tableName := ""
		if t, ok := tables[res.TableID]; ok {
			tableName = t.Name
		}
		_ = queue_publisher.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
			ReservationID:  res.ID,
			RestaurantID:   rest.ID,
			RestaurantName: rest.Name,
			TableID:        res.TableID,
			TableName:      tableName,
			CustomerName:   res.CustomerName,
			CustomerEmail:  res.CustomerEmail,
			ReservedFrom:   res.ReservedFrom.UTC().Format(time.RFC3339),
			ReservedUntil:  res.ReservedUntil.UTC().Format(time.RFC3339),
			GuestAmount:    res.GuestAmount,
			ConfirmedAt:    now,
		})
	}
}
