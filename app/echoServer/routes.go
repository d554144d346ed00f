package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/admin"
	"github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/auth"
	"github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/availability"
	"github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/catalog"
	"github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/payment"
	"github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/reservation"
	"github.com/DBnexlify/popndrop-sub001/app/echoServer/jwtx"
)

type C struct {
	Auth         *auth.Controller
	Catalog      *catalog.Controller
	Availability *availability.Controller
	Reservation  *reservation.Controller
	Payment      *payment.Controller
	Admin        *admin.Controller
	JWTSecret    string
	ReserveRPS   float64
	ReserveBurst int
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.GET("/products", c.Catalog.List)
	pub.GET("/products/:slug", c.Catalog.Detail)
	pub.GET("/availability/slots", c.Availability.Slots)
	pub.GET("/availability/day-rental", c.Availability.DayRental)
	pub.POST("/reservations", c.Reservation.Create, RateLimit(rate.Limit(c.ReserveRPS), c.ReserveBurst))
	pub.POST("/staff/login", c.Auth.Login)

	// payment callback
	pub.POST("/payment/webhook", c.Payment.HandleCallback)

	// Staff
	staff := e.Group("/v1")
	staff.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	staff.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			reqID := ctx.Response().Header().Get(echo.HeaderXRequestID)

			staffID, err := jwtx.StaffIDFromContext(ctx)
			if err != nil {
				ctx.Logger().Warnf("[AUTH] %v req_id=%s ip=%s", err, reqID, ctx.RealIP())
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			role, err := jwtx.RoleFromContext(ctx)
			if err != nil {
				ctx.Logger().Warnf("[AUTH] %v req_id=%s ip=%s", err, reqID, ctx.RealIP())
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			ctx.Set("staff_id", staffID)
			ctx.Set("role", role)
			return next(ctx)
		}
	})

	staff.POST("/reservations/:id/cancel", c.Reservation.Cancel)
	staff.GET("/calendar", c.Admin.Calendar)
	staff.POST("/maintenance/expire", c.Admin.Expire)
}
