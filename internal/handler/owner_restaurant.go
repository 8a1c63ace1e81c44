package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/booking"
	"github.com/tischplan/restaurant-reservation/internal/model"
	"github.com/tischplan/restaurant-reservation/internal/repository"
)

// ----- DTOs -----

type addressReq struct {
	StreetName  string `json:"street_name" validate:"required"`
	HouseNumber string `json:"house_number" validate:"required"`
	PostalCode  uint32 `json:"postal_code" validate:"required"`
	City        string `json:"city" validate:"required"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
}

type businessHourReq struct {
	Weekday                 uint8  `json:"weekday" validate:"lte=6"`
	OpenTime                string `json:"open_time" validate:"required"`
	OpenForReservationUntil string `json:"open_for_reservation_until" validate:"required"`
	CloseTime               string `json:"close_time" validate:"required"`
}

type createRestaurantReq struct {
	Name          string            `json:"name" validate:"required"`
	Address       addressReq        `json:"address" validate:"required"`
	BusinessHours []businessHourReq `json:"business_hours" validate:"dive"`
}

type updateRestaurantReq struct {
	Name    string      `json:"name" validate:"required"`
	Address *addressReq `json:"address"`
}

type addressResp struct {
	StreetName  string `json:"street_name"`
	HouseNumber string `json:"house_number"`
	PostalCode  uint32 `json:"postal_code"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
}

type businessHourResp struct {
	ID                      uint64 `json:"id"`
	Weekday                 uint8  `json:"weekday"`
	OpenTime                string `json:"open_time"`
	OpenForReservationUntil string `json:"open_for_reservation_until"`
	CloseTime               string `json:"close_time"`
}

type restaurantResp struct {
	ID            uint64             `json:"id"`
	Name          string             `json:"name"`
	Address       *addressResp       `json:"address,omitempty"`
	BusinessHours []businessHourResp `json:"business_hours,omitempty"`
}

func toHourResp(hours []model.BusinessHour) []businessHourResp {
	out := make([]businessHourResp, 0, len(hours))
	for _, h := range hours {
		out = append(out, businessHourResp{
			ID:                      h.ID,
			Weekday:                 h.Weekday,
			OpenTime:                h.OpenTime,
			OpenForReservationUntil: h.OpenForReservationUntil,
			CloseTime:               h.CloseTime,
		})
	}
	return out
}

// checkHourBlocks validates that every block parses and keeps
// open ≤ reservable-until ≤ close. Returns the model rows ready for
// storage.
func checkHourBlocks(reqs []businessHourReq) ([]model.BusinessHour, error) {
	out := make([]model.BusinessHour, 0, len(reqs))
	for _, hr := range reqs {
		open, err := booking.ParseTimeOfDay(hr.OpenTime)
		if err != nil {
			return nil, err
		}
		until, err := booking.ParseTimeOfDay(hr.OpenForReservationUntil)
		if err != nil {
			return nil, err
		}
		closeAt, err := booking.ParseTimeOfDay(hr.CloseTime)
		if err != nil {
			return nil, err
		}
		if !(open <= until && until <= closeAt) {
			return nil, errors.New("business hours must satisfy open <= open_for_reservation_until <= close")
		}
		out = append(out, model.BusinessHour{
			Weekday:                 hr.Weekday,
			OpenTime:                open.String(),
			OpenForReservationUntil: until.String(),
			CloseTime:               closeAt.String(),
		})
	}
	return out, nil
}

// CreateRestaurant handles POST /v1/restaurants. The body carries
// the restaurant name, its address and optionally the initial
// business hours.
func (h *OwnerHandler) CreateRestaurant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createRestaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	hours, err := checkHourBlocks(req.BusinessHours)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	rest := &model.Restaurant{OwnerID: ownerID, Name: req.Name}
	addr := &model.Address{
		StreetName:  req.Address.StreetName,
		HouseNumber: req.Address.HouseNumber,
		PostalCode:  req.Address.PostalCode,
		City:        req.Address.City,
		CountryCode: req.Address.CountryCode,
	}
	if err := h.RestaurantRepo.Create(ctx, rest, addr); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create restaurant failed"})
	}
	if len(hours) > 0 {
		if err := h.HourRepo.ReplaceForRestaurant(ctx, rest.ID, hours); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save business hours failed"})
		}
	}

	return c.JSON(http.StatusCreated, restaurantResp{
		ID:   rest.ID,
		Name: rest.Name,
		Address: &addressResp{
			StreetName:  addr.StreetName,
			HouseNumber: addr.HouseNumber,
			PostalCode:  addr.PostalCode,
			City:        addr.City,
			CountryCode: addr.CountryCode,
		},
		BusinessHours: toHourResp(hours),
	})
}

// ListMyRestaurants handles GET /v1/restaurants/mine.
func (h *OwnerHandler) ListMyRestaurants(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	list, err := h.RestaurantRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]restaurantResp, 0, len(list))
	for _, r := range list {
		out = append(out, restaurantResp{ID: r.ID, Name: r.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateRestaurant handles PUT /v1/restaurants/:id. The name is
// always replaced; the address only when present in the body.
func (h *OwnerHandler) UpdateRestaurant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req updateRestaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if err := h.RestaurantRepo.UpdateName(ctx, id, ownerID, req.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	resp := restaurantResp{ID: id, Name: req.Name}
	if req.Address != nil {
		addr := &model.Address{
			RestaurantID: id,
			StreetName:   req.Address.StreetName,
			HouseNumber:  req.Address.HouseNumber,
			PostalCode:   req.Address.PostalCode,
			City:         req.Address.City,
			CountryCode:  req.Address.CountryCode,
		}
		if err := h.RestaurantRepo.ReplaceAddress(ctx, addr); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update address failed"})
		}
		resp.Address = &addressResp{
			StreetName:  addr.StreetName,
			HouseNumber: addr.HouseNumber,
			PostalCode:  addr.PostalCode,
			City:        addr.City,
			CountryCode: addr.CountryCode,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteRestaurant handles DELETE /v1/restaurants/:id and removes
// the venue together with its hours, tables and reservations.
func (h *OwnerHandler) DeleteRestaurant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx := c.Request().Context()
	if err := h.RestaurantRepo.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ReplaceBusinessHours handles PUT /v1/restaurants/:id/hours. The
// complete set of blocks is swapped at once; sending an empty list
// clears the schedule (the restaurant stops accepting reservations).
func (h *OwnerHandler) ReplaceBusinessHours(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var reqs []businessHourReq
	if err := c.Bind(&reqs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	for i := range reqs {
		if err := c.Validate(&reqs[i]); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	hours, err := checkHourBlocks(reqs)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if _, err := h.RestaurantRepo.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.HourRepo.ReplaceForRestaurant(ctx, id, hours); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save business hours failed"})
	}
	return c.JSON(http.StatusOK, toHourResp(hours))
}
