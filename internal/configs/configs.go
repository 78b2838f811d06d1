/*
Package configs loads and validates the application's runtime configuration.

All settings come from environment variables (a local .env file is honored in
development). Defaults favor a local setup; anything security-sensitive is
mandatory outside development.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains every runtime setting the server needs.
type AppConfig struct {
	// General server settings.
	Environment string
	Port        int

	// Security settings.
	AllowedOrigins []string

	// IdentitySecret verifies tokens minted by the external identity provider.
	IdentitySecret string

	// Redis settings (the keyed store backing sessions, rooms, messages and
	// typing flags).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// S3-compatible object storage settings.
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string

	// Bill extraction service settings.
	ExtractorEndpoint string
	ExtractorAPIKey   string

	// Coordination tuning.
	SessionTTL       time.Duration
	TypingTTL        time.Duration
	MessageRetention time.Duration
	SweepInterval    time.Duration
	InactivityWindow time.Duration
}

// LoadConfig reads the configuration from the environment, applying defaults
// and validating required values. Returns the populated AppConfig or an error
// describing the first missing/invalid setting.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.Environment = getEnv("ENVIRONMENT", "development")
	isDev := cfg.Environment == "development"

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("PORT %d is outside the allowed range (1024-65535)", port)
	}
	cfg.Port = port

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	cfg.IdentitySecret = os.Getenv("IDENTITY_SECRET")
	if cfg.IdentitySecret == "" {
		if !isDev {
			return nil, fmt.Errorf("IDENTITY_SECRET is required in %s environment", cfg.Environment)
		}
		cfg.IdentitySecret = "insecure_dev_identity_secret_change_me"
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = redisDB

	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	if !isDev {
		for name, value := range map[string]string{
			"S3_BUCKET_NAME":       cfg.S3BucketName,
			"S3_ENDPOINT":          cfg.S3Endpoint,
			"S3_ACCESS_KEY_ID":     cfg.S3AccessKeyID,
			"S3_SECRET_ACCESS_KEY": cfg.S3SecretAccessKey,
		} {
			if value == "" {
				return nil, fmt.Errorf("%s is required in %s environment", name, cfg.Environment)
			}
		}
	}
	cfg.S3PublicBaseURL = os.Getenv("S3_PUBLIC_BASE_URL")
	if cfg.S3PublicBaseURL == "" && cfg.S3Endpoint != "" {
		cfg.S3PublicBaseURL = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3BucketName
	}

	cfg.ExtractorEndpoint = os.Getenv("EXTRACTOR_ENDPOINT")
	cfg.ExtractorAPIKey = os.Getenv("EXTRACTOR_API_KEY")

	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TypingTTL, err = getEnvDuration("TYPING_TTL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.MessageRetention, err = getEnvDuration("MESSAGE_RETENTION", 14*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.InactivityWindow, err = getEnvDuration("INACTIVITY_WINDOW", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval < time.Minute {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be at least one minute, got %s", cfg.SweepInterval)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return parsed, nil
}
