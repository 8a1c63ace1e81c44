package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/repository"
)

// OwnerHandler bundles the repositories owners use to manage their
// restaurants, business hours and tables. JWT authentication and
// role validation are assumed to have been performed by middleware.
type OwnerHandler struct {
	RestaurantRepo *repository.RestaurantRepo
	HourRepo       *repository.BusinessHourRepo
	TableRepo      *repository.TableRepo
}

// NewOwnerHandler constructs an OwnerHandler and panics if any
// dependency is nil, which would be a wiring bug.
func NewOwnerHandler(restaurantRepo *repository.RestaurantRepo, hourRepo *repository.BusinessHourRepo, tableRepo *repository.TableRepo) *OwnerHandler {
	if restaurantRepo == nil || hourRepo == nil || tableRepo == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{
		RestaurantRepo: restaurantRepo,
		HourRepo:       hourRepo,
		TableRepo:      tableRepo,
	}
}

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
