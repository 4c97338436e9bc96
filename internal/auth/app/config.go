package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/grimoire/pkg/cryptox"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
	"github.com/aussiebroadwan/grimoire/pkg/jwtx"
)

// Revocation backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

const (
	minBcryptCost = 10
	maxBcryptCost = 31
)

type Config struct {
	AccessSecret  string        // Required: HS256 secret for access tokens
	RefreshSecret string        // Required: HS256 secret for refresh tokens, distinct from AccessSecret
	AccessTTL     time.Duration // Access token lifetime (default: 15m)
	RefreshTTL    time.Duration // Refresh token lifetime (default: 7d)
	BcryptCost    int           // Password hashing cost (default: 12)
	PruneInterval time.Duration // Expired refresh record sweep interval (default: 1h)
	Issuer        string        // iss claim (default: grimoire)
	DatabaseFile  string        // SQLite database path (default: grimoire.db)

	RevocationBackend string // sqlite or redis (default: sqlite)
	RedisAddr         string // Comma separated for cluster/sentinel (default: localhost:6379)
	RedisPassword     string
	RedisDB           int
	RedisPrefix       string // Key namespace (default: grimoire:)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	RateLimits httpx.RateLimits
}

func LoadConfig() Config {
	return Config{
		AccessSecret:  os.Getenv("JWT_SECRET"),
		RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		AccessTTL:     getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:    getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		BcryptCost:    getEnvIntOrDefault("BCRYPT_COST", cryptox.DefaultBcryptCost),
		PruneInterval: getEnvDurationOrDefault("PRUNE_INTERVAL", time.Hour),
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "grimoire"),
		DatabaseFile:  getEnvOrDefault("AUTH_DATABASE_FILE", "grimoire.db"),

		RevocationBackend: strings.ToLower(getEnvOrDefault("REVOCATION_BACKEND", BackendSQLite)),
		RedisAddr:         getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvIntOrDefault("REDIS_DB", 0),
		RedisPrefix:       getEnvOrDefault("REDIS_PREFIX", "grimoire:"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		RateLimits: httpx.RateLimitsFromEnv(),
	}
}

// Validate reports every problem with cfg at once.
func (cfg Config) Validate() error {
	var errs []error

	if len(cfg.AccessSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", jwtx.MinSecretLength))
	}
	if len(cfg.RefreshSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters", jwtx.MinSecretLength))
	}
	if cfg.AccessSecret != "" && cfg.AccessSecret == cfg.RefreshSecret {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET"))
	}
	if cfg.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}
	if cfg.BcryptCost < minBcryptCost || cfg.BcryptCost > maxBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost))
	}
	if cfg.PruneInterval <= 0 {
		errs = append(errs, errors.New("PRUNE_INTERVAL must be positive"))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", cfg.Port))
	}
	if cfg.ShutdownGracePeriod <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_GRACE_PERIOD must be positive"))
	}

	switch cfg.RevocationBackend {
	case BackendSQLite:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when REVOCATION_BACKEND=redis"))
		}
		if cfg.RedisDB < 0 {
			errs = append(errs, errors.New("REDIS_DB must be a non-negative integer"))
		}
	default:
		errs = append(errs, fmt.Errorf("REVOCATION_BACKEND %q is not one of sqlite, redis", cfg.RevocationBackend))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault yields -1 for an unparsable value so Validate reports it.
func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return intValue
}

// getEnvDurationOrDefault accepts Go durations ("15m", "90s") and whole days
// ("7d"). An unparsable value yields -1 so Validate reports it rather than
// silently falling back.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := parseDuration(value)
	if err != nil {
		return -1
	}
	return d
}

func parseDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}
