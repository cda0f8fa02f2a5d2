package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/davybookzone/server/pkg/config"
)

// Config holds all configuration for the bookzone server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Public URL of the frontend, used to build payment callback URLs.
	AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"bookzone"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"bookzone_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"bookzone_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (catalog cache)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`

	// JWT
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"24h"`

	// CinetPay payment gateway
	CinetPayAPIURL  string        `env:"CINETPAY_API_URL" envDefault:"https://api-checkout.cinetpay.com/v2/payment"`
	CinetPayAPIKey  string        `env:"CINETPAY_API_KEY"`
	CinetPaySiteID  string        `env:"CINETPAY_SITE_ID"`
	CinetPayTimeout time.Duration `env:"CINETPAY_TIMEOUT" envDefault:"30s"`

	// SMTP (transactional email)
	SMTPHost    string `env:"SMTP_HOST" envDefault:""`
	SMTPPort    int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser    string `env:"SMTP_USER" envDefault:""`
	SMTPPass    string `env:"SMTP_PASSWORD" envDefault:""`
	SMTPFrom    string `env:"SMTP_FROM" envDefault:"no-reply@bookzone.local"`
	AdminEmail  string `env:"ADMIN_EMAIL" envDefault:""`
	MailEnabled bool   `env:"MAIL_ENABLED" envDefault:"false"`

	// Rate limiting for auth endpoints (requests per second per IP)
	AuthRateLimitRPS   int `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// RedisAddr returns the Redis address string.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
