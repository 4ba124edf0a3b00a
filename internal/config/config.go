package config

import (
	"os"
	"strconv"
	"time"

	"parkhub/internal/database"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	JWTSecret     string
	JWTExpiration time.Duration

	// Reservation policy applied at the API boundary.
	MaxReservationHours int

	// Sweep scheduling.
	SweepInterval   time.Duration
	ReminderHorizon time.Duration

	Database database.Config
	Redis    RedisConfig
	NATS     NATSConfig
	Search   SearchConfig
}

// RedisConfig configures the Redis client used for the JWT blacklist and
// the lot-list cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig configures the NATS Streaming connection.
type NATSConfig struct {
	URL       string
	ClusterID string
	ClientID  string
}

// SearchConfig configures the optional Elasticsearch lot index.
type SearchConfig struct {
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

// Load reads configuration from the environment, honoring a local .env file.
func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiration: time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,

		MaxReservationHours: getEnvInt("MAX_RESERVATION_HOURS", 24),

		SweepInterval:   time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,
		ReminderHorizon: time.Duration(getEnvInt("REMINDER_HORIZON_MIN", 30)) * time.Minute,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "parkhub"),
			Password:           getEnv("DB_PASSWORD", "parkhub123"),
			DBName:             getEnv("DB_NAME", "parkhub"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		NATS: NATSConfig{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "parkhub"),
			ClientID:  getEnv("NATS_CLIENT_ID", "parkhub-api"),
		},

		Search: SearchConfig{
			URL:        getEnv("ELASTICSEARCH_URL", ""),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "parking-lots"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
