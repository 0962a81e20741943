package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database settings (postgres storage driver)
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSslMode string
	DbTz      string

	// Server settings
	Env      string
	Port     string
	AppUrl   string
	AppName  string
	LogLevel string
	WebDir   string

	// Remote rewards backend
	BackendURL     string
	BackendTimeout time.Duration

	// Persisted client storage
	StorageDriver string // postgres, file or memory
	StorageFile   string

	// Security settings
	PasetoSymmetricKey string
	CorsOrigins        []string
	AccessTokenTTL     int // minutes

	// Scheduler
	StatsRefreshSpec string
}

func LoadConfig() *Config {
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	accessTokenTTL, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_TTL"))
	if err != nil || accessTokenTTL <= 0 {
		accessTokenTTL = 12 * 60 // default 12 hours
	}

	backendTimeout, err := time.ParseDuration(os.Getenv("BACKEND_TIMEOUT"))
	if err != nil || backendTimeout <= 0 {
		backendTimeout = 15 * time.Second
	}

	return &Config{
		// Database settings
		DbHost:    getEnv("DB_HOST", "localhost"),
		DbPort:    getEnv("DB_PORT", "5432"),
		DbUser:    getEnv("DB_USER", "postgres"),
		DbPass:    getEnv("DB_PASSWORD", "password"),
		DbName:    getEnv("DB_NAME", "rewards_dashboard"),
		DbSslMode: getEnv("DB_SSLMODE", "disable"),
		DbTz:      getEnv("DB_TZ", "UTC"),

		// Server settings
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "3000"),
		AppUrl:   getEnv("APP_URL", "http://localhost:3000"),
		AppName:  getEnv("APP_NAME", "Rewards Dashboard"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		WebDir:   getEnv("WEB_DIR", "./web"),

		// Remote rewards backend
		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "https://anycode-sy.com/radar/api"), "/"),
		BackendTimeout: backendTimeout,

		// Persisted client storage
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
		StorageFile:   getEnv("STORAGE_FILE", "./client-storage.json"),

		// Security settings
		PasetoSymmetricKey: getEnv("PASETO_SYMMETRIC_KEY", "your-32-character-secret-key!!!!"), // Must be 32 chars
		CorsOrigins:        strings.Split(corsOrigins, ","),
		AccessTokenTTL:     accessTokenTTL,

		// Scheduler
		StatsRefreshSpec: getEnv("STATS_REFRESH_SPEC", "@every 5m"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
