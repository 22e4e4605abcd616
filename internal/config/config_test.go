package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsForLocalDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "discovery-local-dev", cfg.JWTSecret)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadRequiresJWTSecretOutsideLocal(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDiscoveryConfig(t *testing.T) {
	t.Setenv("DISCOVERY_ORG_IDS", " 12, 7 ,,3")
	t.Setenv("DISCOVERY_TTL_FULL", "30m")
	t.Setenv("DISCOVERY_TTL_AVAILABILITY", "garbage")
	t.Setenv("DISCOVERY_ORG_CONCURRENCY", "0")

	cfg := LoadDiscoveryConfig()
	assert.Equal(t, []string{"12", "7", "3"}, cfg.OrgIDs)
	assert.Equal(t, 30*time.Minute, cfg.TTLFull)
	assert.Equal(t, time.Minute, cfg.TTLAvailability)
	assert.Equal(t, 3, cfg.OrgConcurrency)
	assert.Equal(t, 5, cfg.SessionConcurrency)
}

func TestLoadWarmerConfigCanBeDisabled(t *testing.T) {
	t.Setenv("DISCOVERY_WARM_CRON", "off")
	assert.Empty(t, LoadWarmerConfig().Schedule)

	t.Setenv("DISCOVERY_WARM_CRON", "*/5 * * * *")
	assert.Equal(t, "*/5 * * * *", LoadWarmerConfig().Schedule)
}

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}
