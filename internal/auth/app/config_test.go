package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		AccessSecret:        "access-secret-0123456789abcdef",
		RefreshSecret:       "refresh-secret-0123456789abcdef",
		AccessTTL:           15 * time.Minute,
		RefreshTTL:          7 * 24 * time.Hour,
		BcryptCost:          12,
		PruneInterval:       time.Hour,
		RevocationBackend:   BackendSQLite,
		RedisAddr:           "localhost:6379",
		Port:                8080,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret-0123456789abcdef")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret-0123456789abcdef")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 12, cfg.BcryptCost)
	require.Equal(t, time.Hour, cfg.PruneInterval)
	require.Equal(t, "grimoire", cfg.Issuer)
	require.Equal(t, "grimoire.db", cfg.DatabaseFile)
	require.Equal(t, BackendSQLite, cfg.RevocationBackend)
	require.Equal(t, "grimoire:", cfg.RedisPrefix)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 5, cfg.RateLimits.Strict.RequestsPerWindow)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "30d")
	t.Setenv("PRUNE_INTERVAL", "90s")
	t.Setenv("REVOCATION_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "50")

	cfg := LoadConfig()
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 90*time.Second, cfg.PruneInterval)
	require.Equal(t, BackendRedis, cfg.RevocationBackend)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 50, cfg.RateLimits.Strict.RequestsPerWindow)
}

func TestLoadConfigRejectsGarbageDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret-0123456789abcdef")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret-0123456789abcdef")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	err := LoadConfig().Validate()
	require.ErrorContains(t, err, "ACCESS_TOKEN_TTL")
}

func TestLoadConfigRejectsGarbageNumbers(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret-0123456789abcdef")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret-0123456789abcdef")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "later")
	t.Setenv("REVOCATION_BACKEND", "redis")
	t.Setenv("REDIS_DB", "zero")
	t.Setenv("PORT", "http")

	err := LoadConfig().Validate()
	require.ErrorContains(t, err, "SHUTDOWN_GRACE_PERIOD")
	require.ErrorContains(t, err, "REDIS_DB")
	require.ErrorContains(t, err, "PORT")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short access secret", func(c *Config) { c.AccessSecret = "short" }, "JWT_SECRET must be"},
		{"short refresh secret", func(c *Config) { c.RefreshSecret = "short" }, "JWT_REFRESH_SECRET must be at least"},
		{"equal secrets", func(c *Config) { c.RefreshSecret = c.AccessSecret }, "must differ"},
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }, "ACCESS_TOKEN_TTL"},
		{"refresh not longer", func(c *Config) { c.RefreshTTL = c.AccessTTL }, "REFRESH_TOKEN_TTL"},
		{"bcrypt too low", func(c *Config) { c.BcryptCost = 4 }, "BCRYPT_COST"},
		{"bcrypt too high", func(c *Config) { c.BcryptCost = 32 }, "BCRYPT_COST"},
		{"prune interval", func(c *Config) { c.PruneInterval = 0 }, "PRUNE_INTERVAL"},
		{"port", func(c *Config) { c.Port = 70000 }, "PORT"},
		{"backend", func(c *Config) { c.RevocationBackend = "memcached" }, "REVOCATION_BACKEND"},
		{"shutdown grace period", func(c *Config) { c.ShutdownGracePeriod = -1 }, "SHUTDOWN_GRACE_PERIOD"},
		{"redis db", func(c *Config) {
			c.RevocationBackend = BackendRedis
			c.RedisDB = -1
		}, "REDIS_DB"},
		{"redis addr", func(c *Config) {
			c.RevocationBackend = BackendRedis
			c.RedisAddr = ""
		}, "REDIS_ADDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestConfigValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AccessSecret = ""
	cfg.BcryptCost = 1
	cfg.PruneInterval = -1

	err := cfg.Validate()
	require.ErrorContains(t, err, "JWT_SECRET")
	require.ErrorContains(t, err, "BCRYPT_COST")
	require.ErrorContains(t, err, "PRUNE_INTERVAL")
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	d, err := parseDuration("7d")
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, d)

	d, err = parseDuration("1h30m")
	require.NoError(t, err)
	require.Equal(t, 90*time.Minute, d)

	_, err = parseDuration("xd")
	require.Error(t, err)
}
