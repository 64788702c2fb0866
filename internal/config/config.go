package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full runtime configuration tree.
type Config struct {
	App        AppConfig
	Buffer     BufferConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Cors       CORSConfig
	Monitoring MonitoringConfig
	Storage    StorageConfig
	Redis      RedisConfig
}

// AppConfig captures application-level settings.
type AppConfig struct {
	Name           string
	Env            string
	Version        string
	Port           string
	AllowedOrigins []string
}

// BufferConfig sizes the in-memory relay core. Capacity is fixed for
// the process lifetime.
type BufferConfig struct {
	Capacity     int
	StreamBuffer int
}

// AuthConfig stores JWT settings for the protected request endpoints.
type AuthConfig struct {
	Secret         string
	TokenIssuer    string
	AccessTokenTTL time.Duration
}

// RateLimitConfig manages ingest throttling parameters.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
	RedisPrefix       string
}

// CORSConfig declares cross-origin policy.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// MonitoringConfig adds observability tunables.
type MonitoringConfig struct {
	PrometheusEnabled bool
	SentryDSN         string
	SentrySampleRate  float64
}

// StorageConfig locates persisted device uploads.
type StorageConfig struct {
	UploadDir string
}

// RedisConfig stores redis connectivity info, only used for the
// distributed rate limiter when set.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      bool
}

// Load reads from environment (optionally .env) and builds Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:           getenv("APP_NAME", "app-log-service"),
			Env:            getenv("APP_ENV", "development"),
			Version:        getenv("APP_VERSION", "0.1.0"),
			Port:           getenv("PORT", "9006"),
			AllowedOrigins: splitAndTrim(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:9006")),
		},
		Buffer: BufferConfig{
			Capacity:     getInt("LOG_CAPACITY", 1000),
			StreamBuffer: getInt("STREAM_BUFFER", 100),
		},
		Auth: AuthConfig{
			Secret:         getenv("JWT_SECRET", "change-me"),
			TokenIssuer:    getenv("JWT_ISSUER", "app-log-service"),
			AccessTokenTTL: time.Duration(getInt("JWT_ACCESS_EXP_MIN", 60)) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getInt("RATE_LIMIT_PER_MIN", 600),
			Burst:             getInt("RATE_LIMIT_BURST", 100),
			RedisPrefix:       getenv("RATE_LIMIT_PREFIX", "ratelimit"),
		},
		Cors: CORSConfig{
			AllowedOrigins:   splitAndTrim(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:9006")),
			AllowedMethods:   splitAndTrim(getenv("CORS_METHODS", "GET,POST,DELETE,OPTIONS")),
			AllowedHeaders:   splitAndTrim(getenv("CORS_HEADERS", "Authorization,Content-Type,Accept,X-Requested-With")),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: getBool("PROMETHEUS_ENABLED", true),
			SentryDSN:         getenv("SENTRY_DSN", ""),
			SentrySampleRate:  getFloat("SENTRY_SAMPLE_RATE", 0.2),
		},
		Storage: StorageConfig{
			UploadDir: getenv("UPLOAD_DIR", "data/uploads"),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Username: getenv("REDIS_USER", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
			TLS:      getBool("REDIS_TLS", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Buffer.Capacity <= 0 {
		return fmt.Errorf("LOG_CAPACITY must be positive")
	}
	if c.Buffer.StreamBuffer <= 0 {
		return fmt.Errorf("STREAM_BUFFER must be positive")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}
	return nil
}

func getenv(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getInt(key string, def int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func getFloat(key string, def float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
