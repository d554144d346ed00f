package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() App {
	// Missing .env is fine; real deployments use the process environment.
	_ = godotenv.Load()

	cfg := App{
		Port:               getenv("APP_PORT", "8080"),
		DatabaseURL:        must("DATABASE_URL"),
		JWTSecret:          getenv("JWT_SECRET", "local_dev_secret"),
		Env:                getenv("APP_ENV", "dev"),
		BookingCutoffHours: getint("BOOKING_CUTOFF_HOURS", 24),
		LeadTimeHours:      getint("LEAD_TIME_HOURS", 48),
		PaymentHoldMinutes: getint("PAYMENT_HOLD_MINUTES", 60),
		DepositRate:        getfloat("DEPOSIT_RATE", 0.25),
		EveningStartMin:    getint("EVENING_START_MIN", 1020),
		Timezone:           getenv("TIMEZONE", "UTC"),
		PaymentAPIKey:      os.Getenv("PAYMENT_API_KEY"),
		PaymentBaseURL:     getenv("PAYMENT_BASE_URL", "https://api.xendit.co"),
		PromoBaseURL:       os.Getenv("PROMO_BASE_URL"),
		NotifyURL:          os.Getenv("NOTIFY_WEBHOOK_URL"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid int env, using default", "key", k, "value", v)
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("invalid float env, using default", "key", k, "value", v)
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
