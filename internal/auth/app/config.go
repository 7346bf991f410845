package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Issuer claim for minted access tokens

	DatabaseFile string // Path to SQLite database file (default: ./gatehouse.db)
	PepperFile   string // Path to password hashing pepper file (default: ./pepper)
	RedisURL     string // Optional: Redis URL for volatile records; empty runs in-process memory stores

	SMTPHost     string // Optional: SMTP relay host; empty logs codes instead of mailing them
	SMTPPort     int    // SMTP relay port (default: 587)
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string // Sender address for verification mail

	CodeTTL           time.Duration // MFA code lifetime (default: 15m)
	TicketTTL         time.Duration // Pending/accepted ticket lifetime (default: 10m)
	SessionTTL        time.Duration // Sliding session window (default: 1h)
	AuthorizeTokenTTL time.Duration // Authorization token + PKCE challenge lifetime (default: 10m)
	RegistrationTTL   time.Duration // Signup record lifetime (default: 30m)
	AccessTokenTTL    time.Duration // Minted JWT lifetime (default: 5m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Memory-store sweep interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("AUTH_ISSUER", "gatehouse"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "gatehouse.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		RedisURL:     os.Getenv("AUTH_REDIS_URL"),

		SMTPHost:     os.Getenv("AUTH_SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("AUTH_SMTP_PORT", 587),
		SMTPUsername: os.Getenv("AUTH_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("AUTH_SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("AUTH_SMTP_FROM", "no-reply@localhost"),

		CodeTTL:           getEnvDurationOrDefault("AUTH_CODE_TTL", 15*time.Minute),
		TicketTTL:         getEnvDurationOrDefault("AUTH_TICKET_TTL", 10*time.Minute),
		SessionTTL:        getEnvDurationOrDefault("AUTH_SESSION_TTL", time.Hour),
		AuthorizeTokenTTL: getEnvDurationOrDefault("AUTH_AUTHORIZE_TOKEN_TTL", 10*time.Minute),
		RegistrationTTL:   getEnvDurationOrDefault("AUTH_REGISTRATION_TTL", 30*time.Minute),
		AccessTokenTTL:    getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 5*time.Minute),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
