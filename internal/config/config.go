package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// Mautic (marketing automation) API
	MauticBaseURL  string
	MauticUsername string
	MauticPassword string
	MauticTimeout  time.Duration
	MauticPageSize int

	// Pipedrive (CRM) API
	PipedriveBaseURL  string
	PipedriveAPIToken string
	PipedriveTimeout  time.Duration

	// Journey cache
	JourneyCacheTTL time.Duration

	// Gemini-backed journey insights (optional; disabled when key is empty)
	GeminiAPIKey  string
	GeminiModelID string

	CORSAllowedOrigins string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		MauticBaseURL:  getEnv("MAUTIC_BASE_URL", ""),
		MauticUsername: getEnv("MAUTIC_USERNAME", ""),
		MauticPassword: getEnv("MAUTIC_PASSWORD", ""),
		MauticTimeout:  getEnvAsDuration("MAUTIC_TIMEOUT", 30*time.Second),
		MauticPageSize: getEnvAsInt("MAUTIC_PAGE_SIZE", 100),

		PipedriveBaseURL:  getEnv("PIPEDRIVE_BASE_URL", "https://api.pipedrive.com"),
		PipedriveAPIToken: getEnv("PIPEDRIVE_API_TOKEN", ""),
		PipedriveTimeout:  getEnvAsDuration("PIPEDRIVE_TIMEOUT", 20*time.Second),

		JourneyCacheTTL: getEnvAsDuration("JOURNEY_CACHE_TTL", 24*time.Hour),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
