package cmd

import (
	"log/slog"
	"testing"
	"time"

	"freight/internal/adapters/out/carriers/gss"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Act
	cfg, err := LoadConfig(lookupFrom(nil))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, gss.DefaultBaseURL, cfg.GSSBaseURL)
	assert.Equal(t, 12*time.Second, cfg.CarrierTimeout)
	assert.Equal(t, 2, cfg.CarrierRetries)
	assert.Equal(t, 500, cfg.DefaultUnitWeightG)
	assert.Equal(t, 50, cfg.Allocator.MaxItemsPerBox)
	assert.True(t, cfg.Allocator.FragileSeparation)
	assert.Equal(t, 30*24*time.Hour, cfg.Jobs.IdempotencyRetention)
	assert.NotEmpty(t, cfg.Jobs.ProductSyncSchedule)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadConfig_Overrides(t *testing.T) {
	// Arrange
	env := map[string]string{
		"HTTP_PORT":                    "9090",
		"CARRIER_TIMEOUT":              "3s",
		"CARRIER_RETRIES":              "0",
		"ALLOCATOR_FRAGILE_SEPARATION": "false",
		"PRODUCT_SYNC_SCHEDULE":        "",
		"IDEMPOTENCY_RETENTION":        "72h",
		"LOG_LEVEL":                    "debug",
	}

	// Act
	cfg, err := LoadConfig(lookupFrom(env))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.CarrierTimeout)
	assert.Equal(t, 0, cfg.Retry().Retries)
	assert.False(t, cfg.Allocator.FragileSeparation)
	assert.Empty(t, cfg.Jobs.ProductSyncSchedule, "an empty schedule disables the job")
	assert.Equal(t, 72*time.Hour, cfg.Jobs.IdempotencyRetention)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"CARRIER_TIMEOUT": "soon"}, "CARRIER_TIMEOUT"},
		{"bad integer", map[string]string{"CARRIER_RETRIES": "two"}, "CARRIER_RETRIES"},
		{"negative retries", map[string]string{"CARRIER_RETRIES": "-1"}, "CARRIER_RETRIES"},
		{"bad bool", map[string]string{"ALLOCATOR_CONSOLIDATE": "maybe"}, "ALLOCATOR_CONSOLIDATE"},
		{"zero unit weight", map[string]string{"DEFAULT_UNIT_WEIGHT_G": "0"}, "DEFAULT_UNIT_WEIGHT_G"},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(lookupFrom(tt.env))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "freight", DBSslMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=freight sslmode=disable", cfg.DSN())
}
