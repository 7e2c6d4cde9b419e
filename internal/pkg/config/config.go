package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, policy windows, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	Idempotency IdempotencyConfig
	Pricing     PricingConfig
	Concurrency ConcurrencyConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,If-Match,Idempotency-Key,Prefer"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,ETag,Retry-After,X-Cart-Version,X-Cart-Total"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// IdempotencyConfig carries the ledger policy windows. TTL and StaleAfter
// are policy values, not structural constants.
type IdempotencyConfig struct {
	TTL           time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"48h"`
	StaleAfter    time.Duration `envconfig:"IDEMPOTENCY_STALE_AFTER" default:"120s"`
	RetryAfter    time.Duration `envconfig:"IDEMPOTENCY_RETRY_AFTER" default:"5s"`
	SweepInterval time.Duration `envconfig:"IDEMPOTENCY_SWEEP_INTERVAL" default:"1h"`
}

type PricingConfig struct {
	// DefaultFreeThresholdCents applies when a location has no threshold of
	// its own. Zero means no free tier.
	DefaultFreeThresholdCents int64         `envconfig:"PRICING_DEFAULT_FREE_THRESHOLD_CENTS" default:"0"`
	PickupSurchargeCents      int64         `envconfig:"PRICING_PICKUP_SURCHARGE_CENTS" default:"0"`
	QuoteCacheTTL             time.Duration `envconfig:"PRICING_QUOTE_CACHE_TTL" default:"60s"`
}

type ConcurrencyConfig struct {
	// StrictPrecondition rejects writes that carry no If-Match/version.
	// The lenient default keeps compatibility with older clients.
	StrictPrecondition bool `envconfig:"PRECONDITION_STRICT" default:"false"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Addr: "localhost:16380",
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Idempotency: IdempotencyConfig{
			TTL:           48 * time.Hour,
			StaleAfter:    120 * time.Second,
			RetryAfter:    5 * time.Second,
			SweepInterval: time.Hour,
		},
		Pricing: PricingConfig{
			QuoteCacheTTL: 60 * time.Second,
		},
	}
}
