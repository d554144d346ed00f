package availability

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	catalogsvc "github.com/DBnexlify/popndrop-sub001/service/catalog"
	schedulesvc "github.com/DBnexlify/popndrop-sub001/service/schedule"
)

type Controller struct {
	Catalog  catalogsvc.Service
	Schedule schedulesvc.Service
	Loc      *time.Location
	Log      *slog.Logger
}

// GET /v1/availability/slots?product=&date=
func (h *Controller) Slots(c echo.Context) error {
	slug := c.QueryParam("product")
	date, err := time.ParseInLocation("2006-01-02", c.QueryParam("date"), h.Loc)
	if slug == "" || err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "product and date (YYYY-MM-DD) are required"})
	}

	detail, err := h.Catalog.BySlug(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		h.Log.Error("availability product lookup", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	slots, err := h.Schedule.Slots(c.Request().Context(), detail.Product.ID, date)
	if err != nil {
		if errors.Is(err, schedulesvc.ErrWrongMode) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "product is not slot based"})
		}
		h.Log.Error("slot enumeration", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"product": slug, "date": c.QueryParam("date"), "slots": slots})
}

// GET /v1/availability/day-rental?product=&delivery=&pickup=
func (h *Controller) DayRental(c echo.Context) error {
	slug := c.QueryParam("product")
	delivery, dErr := time.ParseInLocation("2006-01-02", c.QueryParam("delivery"), h.Loc)
	pickupStr := c.QueryParam("pickup")
	if pickupStr == "" {
		pickupStr = c.QueryParam("delivery")
	}
	pickup, pErr := time.ParseInLocation("2006-01-02", pickupStr, h.Loc)
	if slug == "" || dErr != nil || pErr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "product and delivery (YYYY-MM-DD) are required"})
	}
	if pickup.Before(delivery) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "pickup precedes delivery"})
	}

	detail, err := h.Catalog.BySlug(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		h.Log.Error("availability product lookup", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	res, err := h.Schedule.ResolveDayRental(c.Request().Context(), detail.Product.ID, delivery, pickup)
	if err != nil {
		if errors.Is(err, schedulesvc.ErrWrongMode) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "product is not a day rental"})
		}
		h.Log.Error("day-rental resolution", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, res)
}
