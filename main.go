// Package main pop-n-drop booking API.
//
// @title           Pop-n-Drop Booking API
// @version         1.0
// @description     Rental booking service (catalog, availability, reservations, payments).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/DBnexlify/popndrop-sub001/app/echoServer"
	adminctrl "github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/admin"
	authctrl "github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/auth"
	availctrl "github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/availability"
	catalogctrl "github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/catalog"
	paymentctrl "github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/payment"
	reservctrl "github.com/DBnexlify/popndrop-sub001/app/echoServer/controller/reservation"
	"github.com/DBnexlify/popndrop-sub001/app/echoServer/validation"
	"github.com/DBnexlify/popndrop-sub001/config"
	blockrepo "github.com/DBnexlify/popndrop-sub001/repository/block"
	bookingrepo "github.com/DBnexlify/popndrop-sub001/repository/booking"
	catalogrepo "github.com/DBnexlify/popndrop-sub001/repository/catalog"
	customerrepo "github.com/DBnexlify/popndrop-sub001/repository/customer"
	notifyrepo "github.com/DBnexlify/popndrop-sub001/repository/notify"
	paymentrepo "github.com/DBnexlify/popndrop-sub001/repository/payment"
	promorepo "github.com/DBnexlify/popndrop-sub001/repository/promo"
	registryrepo "github.com/DBnexlify/popndrop-sub001/repository/registry"
	staffrepo "github.com/DBnexlify/popndrop-sub001/repository/staff"
	authsvc "github.com/DBnexlify/popndrop-sub001/service/auth"
	catalogsvc "github.com/DBnexlify/popndrop-sub001/service/catalog"
	paymentsvc "github.com/DBnexlify/popndrop-sub001/service/payment"
	pricingsvc "github.com/DBnexlify/popndrop-sub001/service/pricing"
	reservationsvc "github.com/DBnexlify/popndrop-sub001/service/reservation"
	schedulesvc "github.com/DBnexlify/popndrop-sub001/service/schedule"
	"github.com/DBnexlify/popndrop-sub001/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("bad timezone", "tz", cfg.Timezone, "err", err)
		os.Exit(1)
	}

	// DB: *sql.DB
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	// repos
	catR := catalogrepo.New(db)
	regR := registryrepo.New(db)
	bookR := bookingrepo.New(db)
	blockR := blockrepo.New(db)
	custR := customerrepo.New(db)
	staffR := staffrepo.New(db)
	payR := paymentrepo.NewHTTP(cfg.PaymentAPIKey, cfg.PaymentBaseURL)
	promoR := promorepo.NewHTTP(cfg.PromoBaseURL)
	notifier := notifyrepo.NewHTTP(cfg.NotifyURL, log)

	// services
	catS := catalogsvc.New(catR)
	schedS := schedulesvc.New(catR, regR, bookR, blockR, cfg.LeadTimeHours, cfg.EveningStartMin, log)
	priceS := pricingsvc.New(promoR, cfg.DepositRate, log)
	resS := reservationsvc.New(db, bookR, blockR, custR, catR, schedS, priceS, payR, notifier,
		cfg.BookingCutoffHours, cfg.PaymentHoldMinutes, log)
	payS := paymentsvc.New(db, payR, bookR, blockR, notifier, log)
	authS := authsvc.New(staffR, cfg.JWTSecret)
	cleaner := reservationsvc.NewCleaner(bookR, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: authS, V: v, Log: log}
	catalogC := &catalogctrl.Controller{Svc: catS, Log: log}
	availC := &availctrl.Controller{Catalog: catS, Schedule: schedS, Loc: loc, Log: log}
	reservC := &reservctrl.Controller{Svc: resS, Catalog: catS, V: v, Loc: loc, Log: log}
	paymentC := &paymentctrl.Controller{Svc: payS, Log: log}
	adminC := &adminctrl.Controller{Blocks: blockR, Cleaner: cleaner, Loc: loc, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Catalog:      catalogC,
		Availability: availC,
		Reservation:  reservC,
		Payment:      paymentC,
		Admin:        adminC,

		JWTSecret:    cfg.JWTSecret,
		ReserveRPS:   1,
		ReserveBurst: 5,
	})

	// background release of pending bookings whose payment hold lapsed
	go cleaner.Run(ctx, 5*time.Minute)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
