package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/model"
	"github.com/tischplan/restaurant-reservation/internal/repository"
)

type tableReq struct {
	Name      string `json:"name" validate:"required"`
	Seats     uint32 `json:"seats" validate:"required,gt=0"`
	MinGuests uint32 `json:"min_guests" validate:"gte=1"`
}

type tableResp struct {
	ID           uint64 `json:"id"`
	RestaurantID uint64 `json:"restaurant_id"`
	Name         string `json:"name"`
	Seats        uint32 `json:"seats"`
	MinGuests    uint32 `json:"min_guests"`
}

func toTableResp(t *model.Table) tableResp {
	return tableResp{ID: t.ID, RestaurantID: t.RestaurantID, Name: t.Name, Seats: t.Seats, MinGuests: t.MinGuests}
}

// CreateTable handles POST /v1/restaurants/:id/tables. A table may
// only require at most as many guests as it seats.
func (h *OwnerHandler) CreateTable(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.MinGuests > req.Seats {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_guests cannot exceed seats"})
	}

	ctx := c.Request().Context()
	if _, err := h.RestaurantRepo.GetByIDAndOwner(ctx, restaurantID, ownerID); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	t := &model.Table{RestaurantID: restaurantID, Name: req.Name, Seats: req.Seats, MinGuests: req.MinGuests}
	if err := h.TableRepo.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create table failed"})
	}
	return c.JSON(http.StatusCreated, toTableResp(t))
}

// UpdateTable handles PUT /v1/tables/:id.
func (h *OwnerHandler) UpdateTable(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.MinGuests > req.Seats {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_guests cannot exceed seats"})
	}

	ctx := c.Request().Context()
	if err := h.TableRepo.UpdateByIDAndOwner(ctx, id, ownerID, req.Name, req.Seats, req.MinGuests); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	t, err := h.TableRepo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTableResp(t))
}

// DeleteTable handles DELETE /v1/tables/:id. Existing reservations
// on the table are deleted with it.
func (h *OwnerHandler) DeleteTable(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	ctx := c.Request().Context()
	if err := h.TableRepo.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
