package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full service configuration. It is populated once at
// startup and handed to the components that need it; business logic never
// reads the environment directly.
type Config struct {
	Port   string
	LogEnv string

	// Call platform credentials
	StreamAPIKey      string
	StreamAPISecret   string
	StreamBaseURL     string
	StreamRealtimeURL string

	// OpenAI realtime voice
	OpenAIAPIKey string

	// Bearer tokens issued by the external auth provider are validated
	// against this shared secret.
	AuthSecret string

	// Redis (optional; the service degrades to no webhook dedup without it)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	Database DatabaseConfig
}

// DatabaseConfig holds the Postgres connection and pool settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadFromEnv builds a Config from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Port:   getEnvOrDefault("PORT", "8080"),
		LogEnv: os.Getenv("LOG_ENV"),

		StreamAPIKey:      os.Getenv("STREAM_API_KEY"),
		StreamAPISecret:   os.Getenv("STREAM_API_SECRET"),
		StreamBaseURL:     getEnvOrDefault("STREAM_BASE_URL", "https://video.stream-io-api.com"),
		StreamRealtimeURL: getEnvOrDefault("STREAM_REALTIME_URL", "wss://video.stream-io-api.com/video/connect"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),

		AuthSecret: os.Getenv("AUTH_SECRET"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", ""),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		Database: DatabaseConfig{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            getEnvIntOrDefault("DB_PORT", 5432),
			User:            getEnvOrDefault("DB_USER", "postgres"),
			Password:        os.Getenv("DB_PASSWORD"),
			DBName:          getEnvOrDefault("DB_NAME", "agentmeet"),
			SSLMode:         getEnvOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvIntOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			ConnMaxIdleTime: time.Duration(getEnvIntOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 5)) * time.Minute,
		},
	}
}

// Validate checks that the credentials the core cannot run without are set.
func (c *Config) Validate() error {
	if c.StreamAPIKey == "" || c.StreamAPISecret == "" {
		return fmt.Errorf("STREAM_API_KEY and STREAM_API_SECRET are required")
	}
	if c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
