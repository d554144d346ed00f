package reservation

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/DBnexlify/popndrop-sub001/model"
	catalogsvc "github.com/DBnexlify/popndrop-sub001/service/catalog"
	rs "github.com/DBnexlify/popndrop-sub001/service/reservation"
)

type Controller struct {
	Svc     rs.Service
	Catalog catalogsvc.Service
	V       *validator.Validate
	Loc     *time.Location
	Log     *slog.Logger
}

// POST /v1/reservations
func (h *Controller) Create(c echo.Context) error {
	var req CreateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	detail, err := h.Catalog.BySlug(c.Request().Context(), req.ProductSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		h.Log.Error("reservation product lookup", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	svcReq, err := h.toServiceReq(detail.Product.ID, &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	out, err := h.Svc.Create(c.Request().Context(), svcReq)
	if err != nil {
		return h.writeErr(c, "reservation create", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// POST /v1/reservations/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Cancel(c.Request().Context(), id); err != nil {
		return h.writeErr(c, "reservation cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cancelled"})
}

func (h *Controller) toServiceReq(productID int64, req *CreateReservationReq) (rs.CreateReq, error) {
	out := rs.CreateReq{
		ProductID:     productID,
		Type:          model.BookingType(req.BookingType),
		SlotID:        req.SlotID,
		PromoCode:     req.PromoCode,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	}
	parse := func(s string) (time.Time, error) {
		return time.ParseInLocation("2006-01-02", s, h.Loc)
	}
	var err error
	if req.EventDate != "" {
		if out.EventDate, err = parse(req.EventDate); err != nil {
			return out, errors.New("event_date must be YYYY-MM-DD")
		}
	}
	if req.DeliveryDate != "" {
		if out.DeliveryDate, err = parse(req.DeliveryDate); err != nil {
			return out, errors.New("delivery_date must be YYYY-MM-DD")
		}
	}
	if req.PickupDate != "" {
		if out.PickupDate, err = parse(req.PickupDate); err != nil {
			return out, errors.New("pickup_date must be YYYY-MM-DD")
		}
	} else {
		out.PickupDate = out.DeliveryDate
	}
	return out, nil
}

func (h *Controller) writeErr(c echo.Context, what string, err error) error {
	switch rs.Code(err) {
	case rs.ErrValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case rs.ErrLeadTime:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": err.Error()})
	case rs.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
	case rs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
	case rs.ErrDependency:
		h.Log.Error(what, "err", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "a downstream service failed, please retry"})
	case rs.ErrIntegrity:
		h.Log.Error(what, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	default:
		h.Log.Error(what, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
