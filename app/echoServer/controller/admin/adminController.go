package admin

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	blockrepo "github.com/DBnexlify/popndrop-sub001/repository/block"
	rs "github.com/DBnexlify/popndrop-sub001/service/reservation"
)

type Controller struct {
	Blocks  blockrepo.Repo
	Cleaner rs.Cleaner
	Loc     *time.Location
	Log     *slog.Logger
}

// GET /v1/calendar?from=&to=
func (h *Controller) Calendar(c echo.Context) error {
	from, fErr := time.ParseInLocation("2006-01-02", c.QueryParam("from"), h.Loc)
	to, tErr := time.ParseInLocation("2006-01-02", c.QueryParam("to"), h.Loc)
	if fErr != nil || tErr != nil || to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "from and to (YYYY-MM-DD) are required"})
	}

	// Half-open on the day after "to", so the range is inclusive of it.
	rows, err := h.Blocks.Calendar(c.Request().Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		h.Log.Error("calendar query", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/maintenance/expire
func (h *Controller) Expire(c echo.Context) error {
	n, err := h.Cleaner.ReleaseExpired(c.Request().Context())
	if err != nil {
		h.Log.Error("manual expire sweep", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"released": n})
}
