package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Persistence (SQLite DSN backing the key-value store)
	StoreDSN string

	// Scoring collaborator
	ScoringURL     string
	ScoringAPIKey  string
	ScoringTimeout time.Duration
	HealthTimeout  time.Duration
	HealthInterval time.Duration

	// Client-side cooldown between accepted scoring calls
	PredictionCooldown time.Duration

	// History ledger cap
	HistoryLimit int

	// Password for the seeded bootstrap admin account
	BootstrapAdminPassword string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		StoreDSN: getEnv("STORE_DSN", "loanrisk.db"),

		ScoringURL:     getEnv("SCORING_URL", "http://localhost:8000"),
		ScoringAPIKey:  getEnv("SCORING_API_KEY", ""),
		ScoringTimeout: getDuration("SCORING_TIMEOUT", 30*time.Second),
		HealthTimeout:  getDuration("HEALTH_TIMEOUT", 5*time.Second),
		HealthInterval: getDuration("HEALTH_INTERVAL", 30*time.Second),

		PredictionCooldown: getDuration("PREDICTION_COOLDOWN", 3*time.Second),

		HistoryLimit: getInt("HISTORY_LIMIT", 20),

		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", "admin123"),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration environment variable, falling back to the
// default on absence or parse failure.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

// getInt parses an integer environment variable, falling back to the
// default on absence or parse failure.
func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
