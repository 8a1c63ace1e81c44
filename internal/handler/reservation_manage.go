package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/booking"
	"github.com/tischplan/restaurant-reservation/internal/repository"
)

// queryTime parses a timestamp query parameter. RFC 3339 is the
// canonical format; a plain "YYYY-MM-DD HH:MM:SS" or date-only value
// is accepted as UTC for convenience.
func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			u := t.UTC()
			return &u, nil
		}
	}
	return nil, errors.New("invalid timestamp in parameter " + name)
}

func queryUint(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid number in parameter " + name)
	}
	return n, nil
}

// queryUint32 bounds the parse at 32 bits so an oversized value is a
// 400 instead of silently truncating into a different filter.
func queryUint32(c echo.Context, name string) (uint32, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.New("invalid number in parameter " + name)
	}
	return uint32(n), nil
}

// Search handles GET /v1/reservations. Every query parameter is an
// optional filter; an unfiltered request lists everything.
func (h *ReservationHandler) Search(c echo.Context) error {
	var q repository.SearchQuery
	var err error

	if q.RestaurantID, err = queryUint(c, "restaurant_id"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if q.TableID, err = queryUint(c, "table_id"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	q.CustomerName = c.QueryParam("customer_name")
	q.CustomerEmail = c.QueryParam("customer_email")
	q.CustomerPhone = c.QueryParam("customer_phone")
	if q.StartingFrom, err = queryTime(c, "starting_from"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if q.StartingAt, err = queryTime(c, "starting_at"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if q.EndingBefore, err = queryTime(c, "ending_before"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if q.EndingAt, err = queryTime(c, "ending_at"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	for name, dst := range map[string]*uint32{
		"guest_amount":     &q.GuestAmount,
		"min_guest_amount": &q.MinGuestAmount,
		"max_guest_amount": &q.MaxGuestAmount,
	} {
		n, err := queryUint32(c, name)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		*dst = n
	}

	list, err := h.ReservationRepo.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]reservationResp, 0, len(list))
	for i := range list {
		out = append(out, toReservationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.ReservationRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Update handles PUT /v1/reservations/:id. The new window is
// re-validated on the reservation's current table with the old state
// ignored, so a reservation can always be moved within the slot it
// already holds. The table row is locked for the duration like on
// create.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
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
	existing, err := h.ReservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := beginTx(ctx, h.ReservationRepo.DB())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	defer tx.rollbackUnlessCommitted()

	table, err := h.TableRepo.LockTx(ctx, tx.tx, existing.TableID)
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
	rows, err := h.ReservationRepo.ListForTableOnDateTx(ctx, tx.tx, table.ID, cand.From)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	view := booking.ExcludeID(intervalsView(rows), existing.ID)
	if _, err := booking.ValidateForTable(cand, capacityView(table), hours, view); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": conflictReason(err)})
	}

	updated := req.toModel(table.ID)
	updated.ID = existing.ID
	if err := h.ReservationRepo.UpdateTx(ctx, tx.tx, updated); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toReservationResp(updated))
}

// Delete handles DELETE /v1/reservations/:id. Removing a reservation
// never requires re-validation; freeing a slot cannot make the
// remaining schedule invalid.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.ReservationRepo.DeleteByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
