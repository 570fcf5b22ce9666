package config

import "time"

type App struct {
	Port      string        `envconfig:"APP_PORT" default:"8080"`
	Env       string        `envconfig:"APP_ENV" default:"dev"`
	DSN       string        `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret string        `envconfig:"JWT_SECRET" default:"local_dev_secret"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	Provider Provider
}

// Provider configures the external fulfillment client. Disabled by default;
// orders routed to an external provider stay pending until it is enabled.
type Provider struct {
	Enabled bool   `envconfig:"PROVIDER_ENABLED" default:"false"`
	BaseURL string `envconfig:"PROVIDER_BASE_URL"`
	APIKey  string `envconfig:"PROVIDER_API_KEY"`
}
