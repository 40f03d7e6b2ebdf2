package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Broker   BrokerConfig
	Auth     AuthConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string
	Environment string // "development", "staging", "production"
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// CacheConfig holds the Redis connection used for draft storage and the
// short-link resolution cache.
type CacheConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	TTL      time.Duration
}

// BrokerConfig holds the RabbitMQ connection used for click accounting.
// An empty URL disables the broker; clicks are then counted with a direct
// asynchronous database increment.
type BrokerConfig struct {
	URL        string
	ClickQueue string
}

// AuthConfig holds JWT and CSRF settings
type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CSRFTTL     time.Duration
	CSRFEnforce bool
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	BaseURL          string // Base URL for generating short links
	ShortCodeLen     int
	ShortCodeRetries int
	MonthlyQuota     int // events a user may create per calendar month
	DraftTTL         time.Duration
	OTLPEndpoint     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "punktual"),
			Password: getEnv("DB_PASSWORD", "punktual_secret"),
			DBName:   getEnv("DB_NAME", "punktual"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Cache: CacheConfig{
			Host:     getEnv("RDB_HOST", "localhost"),
			Port:     getEnv("RDB_PORT", "6379"),
			Password: getEnv("RDB_PASSWORD", ""),
			TTL:      getEnvDuration("CACHE_TTL", time.Hour),
		},
		Broker: BrokerConfig{
			URL:        getEnv("AMQP_URL", ""),
			ClickQueue: getEnv("CLICK_QUEUE", "shortlink.clicks"),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),
			CSRFTTL:     getEnvDuration("CSRF_TTL", time.Hour),
			CSRFEnforce: getEnvBool("CSRF_ENFORCE", false),
		},
		App: AppConfig{
			BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
			ShortCodeLen:     getEnvInt("SHORT_CODE_LENGTH", 6),
			ShortCodeRetries: getEnvInt("SHORT_CODE_MAX_RETRIES", 3),
			MonthlyQuota:     getEnvInt("MONTHLY_EVENT_QUOTA", 5),
			DraftTTL:         getEnvDuration("DRAFT_TTL", 24*time.Hour),
			OTLPEndpoint:     getEnv("OTLP_ENDPOINT", ""),
		},
	}, nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// ConnectionString returns the Redis connection string
func (c *CacheConfig) ConnectionString() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/0", c.User, c.Password, c.Host, c.Port)
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
