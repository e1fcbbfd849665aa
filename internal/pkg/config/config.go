package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	RedisAddr   string `env:"REDIS_ADDR,required"`
	PostgresURL string `env:"POSTGRES_URL,required"`

	AdminAddr  string `env:"ADMIN_ADDR" envDefault:":9091"`
	AdminToken string `env:"ADMIN_TOKEN"`

	// Cadences and the cooldown default to the source system's behavior.
	CooldownWindow         time.Duration `env:"COOLDOWN_WINDOW" envDefault:"1h"`
	AlertCheckInterval     time.Duration `env:"ALERT_CHECK_INTERVAL" envDefault:"15m"`
	WeatherUpdateInterval  time.Duration `env:"WEATHER_UPDATE_INTERVAL" envDefault:"1h"`
	RecommendationInterval time.Duration `env:"RECOMMENDATION_INTERVAL" envDefault:"24h"`

	WeatherBaseURL  string        `env:"WEATHER_BASE_URL,required"`
	WeatherAPIKey   string        `env:"WEATHER_API_KEY"`
	WeatherTimeout  time.Duration `env:"WEATHER_TIMEOUT" envDefault:"10s"`
	WeatherCacheTTL time.Duration `env:"WEATHER_CACHE_TTL" envDefault:"10m"`

	QueueWorkersPerKind int           `env:"QUEUE_WORKERS_PER_KIND" envDefault:"4"`
	QueueMaxAttempts    int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	QueueRetryBackoff   time.Duration `env:"QUEUE_RETRY_BACKOFF" envDefault:"5s"`
	QueueHandlerTimeout time.Duration `env:"QUEUE_HANDLER_TIMEOUT" envDefault:"30s"`

	FarmCacheTTL time.Duration `env:"FARM_CACHE_TTL" envDefault:"5m"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Agro Alert"`

	SMSAccountSID string `env:"SMS_ACCOUNT_SID"`
	SMSAuthToken  string `env:"SMS_AUTH_TOKEN"`
	SMSFromNumber string `env:"SMS_FROM_NUMBER"`
	SMSBaseURL    string `env:"SMS_BASE_URL"`

	PushEndpoint  string `env:"PUSH_ENDPOINT"`
	PushServerKey string `env:"PUSH_SERVER_KEY"`

	AdvisorEndpoint string        `env:"ADVISOR_ENDPOINT"`
	AdvisorTimeout  time.Duration `env:"ADVISOR_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
