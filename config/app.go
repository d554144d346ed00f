package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	// Coarse global cutoff checked before any resolver runs.
	BookingCutoffHours int `env:"BOOKING_CUTOFF_HOURS" default:"24"`
	// Lead time applied to a booking's service start by the resolvers.
	LeadTimeHours int `env:"LEAD_TIME_HOURS" default:"48"`
	// How long a pending booking may wait for payment before it expires.
	PaymentHoldMinutes int `env:"PAYMENT_HOLD_MINUTES" default:"60"`
	// Share of the total collected as deposit at checkout.
	DepositRate float64 `env:"DEPOSIT_RATE" default:"0.25"`
	// Local time after which a booked evening forbids same-day pickup.
	EveningStartMin int `env:"EVENING_START_MIN" default:"1020"`

	Timezone string `env:"TIMEZONE" default:"UTC"`

	PaymentAPIKey  string `env:"PAYMENT_API_KEY"`
	PaymentBaseURL string `env:"PAYMENT_BASE_URL" default:"https://api.xendit.co"`
	PromoBaseURL   string `env:"PROMO_BASE_URL"`
	NotifyURL      string `env:"NOTIFY_WEBHOOK_URL"`
}
