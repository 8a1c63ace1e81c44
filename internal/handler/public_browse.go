package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browsing endpoints guests
// use before making a reservation. Responses never expose owner or
// timestamp fields.
type PublicHandler struct {
	RestaurantRepo *repository.RestaurantRepo
	HourRepo       *repository.BusinessHourRepo
	TableRepo      *repository.TableRepo
}

func NewPublicHandler(restaurantRepo *repository.RestaurantRepo, hourRepo *repository.BusinessHourRepo, tableRepo *repository.TableRepo) *PublicHandler {
	if restaurantRepo == nil || hourRepo == nil || tableRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{
		RestaurantRepo: restaurantRepo,
		HourRepo:       hourRepo,
		TableRepo:      tableRepo,
	}
}

// ListRestaurants handles GET /v1/restaurants.
func (h *PublicHandler) ListRestaurants(c echo.Context) error {
	list, err := h.RestaurantRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]restaurantResp, 0, len(list))
	for _, r := range list {
		out = append(out, restaurantResp{ID: r.ID, Name: r.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// GetRestaurant handles GET /v1/restaurants/:id and returns the venue
// together with its address and business hours.
func (h *PublicHandler) GetRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx := c.Request().Context()
	rest, err := h.RestaurantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := restaurantResp{ID: rest.ID, Name: rest.Name}
	if addr, err := h.RestaurantRepo.GetAddress(ctx, id); err == nil {
		resp.Address = &addressResp{
			StreetName:  addr.StreetName,
			HouseNumber: addr.HouseNumber,
			PostalCode:  addr.PostalCode,
			City:        addr.City,
			CountryCode: addr.CountryCode,
		}
	} else if !errors.Is(err, repository.ErrRestaurantNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := h.HourRepo.ListForRestaurant(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp.BusinessHours = toHourResp(hours)
	return c.JSON(http.StatusOK, resp)
}

// ListTables handles GET /v1/restaurants/:id/tables.
func (h *PublicHandler) ListTables(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx := c.Request().Context()
	if _, err := h.RestaurantRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	tables, err := h.TableRepo.ListByRestaurant(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]tableResp, 0, len(tables))
	for i := range tables {
		out = append(out, toTableResp(&tables[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// ListBusinessHours handles GET /v1/restaurants/:id/hours.
func (h *PublicHandler) ListBusinessHours(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx := c.Request().Context()
	if _, err := h.RestaurantRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hours, err := h.HourRepo.ListForRestaurant(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toHourResp(hours))
}
