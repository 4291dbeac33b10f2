package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadBookingConfig_Defaults(t *testing.T) {
	t.Setenv("MAX_PETS_PER_DAY", "")
	t.Setenv("NIGHTLY_RATE_CENTS", "")
	t.Setenv("BOOKING_HORIZON_MONTHS", "")

	assert.Equal(t, BookingConfig{MaxPetsPerDay: 7, NightlyRateCents: 1800, HorizonMonths: 2}, LoadBookingConfig())
}

func TestLoadBookingConfig_Overrides(t *testing.T) {
	t.Setenv("MAX_PETS_PER_DAY", "10")
	t.Setenv("NIGHTLY_RATE_CENTS", "2500")
	t.Setenv("BOOKING_HORIZON_MONTHS", "0")

	assert.Equal(t, BookingConfig{MaxPetsPerDay: 10, NightlyRateCents: 2500, HorizonMonths: 2}, LoadBookingConfig())
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 50*time.Second, cfg.TTL)
	assert.False(t, cfg.Enabled)
}

func TestRateLimitWrites(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "60")
	t.Setenv("RATE_LIMIT_WRITE_CAPACITY", "5")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "3")
	t.Setenv("RATE_LIMIT_PREFIX", "rl")

	cfg := LoadRateLimitConfig()
	w := cfg.Writes()
	assert.Equal(t, 5, w.Capacity)
	assert.Equal(t, 1, w.RefillTokens)
	assert.Equal(t, "user_route", w.KeyStrategy)
	assert.Equal(t, "rl:w", w.Prefix)
	assert.Equal(t, 60, cfg.Capacity)

	t.Setenv("RATE_LIMIT_WRITE_CAPACITY", "500")
	assert.Equal(t, 60, LoadRateLimitConfig().Writes().Capacity)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "redis:6379", LoadRedisConfig().Addr)
}
