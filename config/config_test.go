package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "REDIS_ADDR", "ALLOWED_ORIGINS", "WS_PONG_WAIT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Empty(t, cfg.RedisAddr)
	assert.Nil(t, cfg.AllowedOrigins)
	assert.Equal(t, 50, cfg.HistoryDefaultLimit)
	assert.Equal(t, 60*time.Second, cfg.WS.PongWait)
	assert.Equal(t, 54*time.Second, cfg.WS.PingPeriod())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("MAX_MESSAGE_LENGTH", "12")
	t.Setenv("WS_RATE_LIMIT", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 12, cfg.MaxMessageLength)
	assert.Equal(t, 2.5, cfg.WS.RateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidIntegerFallsBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "soon")

	cfg := Load()

	assert.Equal(t, 24, cfg.JWTExpiry)
}

func TestLoad_NonPositiveTimeoutsFallBack(t *testing.T) {
	t.Setenv("WS_PONG_WAIT", "0")
	t.Setenv("WS_WRITE_WAIT", "-3")
	t.Setenv("MEMBERSHIP_CACHE_TTL", "0")

	cfg := Load()

	assert.Equal(t, 60*time.Second, cfg.WS.PongWait)
	assert.Equal(t, 10*time.Second, cfg.WS.WriteWait)
	assert.Equal(t, 30*time.Second, cfg.MembershipCacheTTL)
	assert.Equal(t, 54*time.Second, cfg.WS.PingPeriod())
}

func TestWSConfig_PingPeriodAlwaysPositive(t *testing.T) {
	for _, wait := range []time.Duration{0, -time.Second, time.Nanosecond} {
		assert.Positive(t, WSConfig{PongWait: wait}.PingPeriod(), "pong wait %v", wait)
	}
	assert.Equal(t, 9*time.Second, WSConfig{PongWait: 10 * time.Second}.PingPeriod())
}
