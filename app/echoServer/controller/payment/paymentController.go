package payment

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	ps "github.com/DBnexlify/popndrop-sub001/service/payment"
)

type Controller struct {
	Svc ps.Service
	Log *slog.Logger
}

// POST /v1/payment/webhook
func (h *Controller) HandleCallback(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "unreadable body"})
	}
	sig := c.Request().Header.Get("X-Callback-Token")

	if err := h.Svc.HandleCallback(c.Request().Context(), sig, raw); err != nil {
		if errors.Is(err, ps.ErrBadSignature) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "bad signature"})
		}
		h.Log.Error("payment webhook", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}
