package infra

import (
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	LogLevel    string
	Port        string
	DatabaseURL string
	GeoIPDBPath string
	StoragePath string

	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiImageModel string
	GeminiVideoModel string

	ComposeTimeout       time.Duration
	VideoPollInterval    time.Duration
	VideoPollMaxInterval time.Duration
	VideoPollMultiplier  float64
	VideoPollMaxAttempts int
	VideoPollMaxWait     time.Duration

	SessionTTL      time.Duration
	JanitorInterval time.Duration
	MaxUploadBytes  int64

	CORSOrigins      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownGrace    time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it the service
// runs with an env-only credential source and no event reporting.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),
		StoragePath: getEnv("STORAGE_PATH", "./data/artifacts"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel: getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-fast-generate-001"),

		ComposeTimeout:       time.Second * time.Duration(getEnvInt("COMPOSE_TIMEOUT_SECONDS", 120)),
		VideoPollInterval:    time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 5)),
		VideoPollMaxInterval: time.Second * time.Duration(getEnvInt("VIDEO_POLL_MAX_INTERVAL_SECONDS", 20)),
		VideoPollMultiplier:  getEnvFloat("VIDEO_POLL_MULTIPLIER", 1.5),
		VideoPollMaxAttempts: getEnvInt("VIDEO_POLL_MAX_ATTEMPTS", 60),
		VideoPollMaxWait:     time.Second * time.Duration(getEnvInt("VIDEO_POLL_MAX_WAIT_SECONDS", 360)),

		SessionTTL:      time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)),
		JanitorInterval: time.Minute * time.Duration(getEnvInt("JANITOR_INTERVAL_MINUTES", 5)),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_MB", 8)) << 20,

		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownGrace:    time.Second * time.Duration(getEnvInt("SHUTDOWN_GRACE_SECONDS", 20)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}
