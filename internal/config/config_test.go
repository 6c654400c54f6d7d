package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "tickets.db", cfg.Database.Path)
	assert.True(t, cfg.Epsilon().Equal(decimal.RequireFromString("0.01")))
	assert.True(t, cfg.ThresholdPct().Equal(decimal.NewFromInt(15)))
	assert.True(t, cfg.SeasonalThresholdPct().Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 3, cfg.Alerts.MinSamples)
	assert.False(t, cfg.AI.Enabled)
}

func TestInitializeConfig_EnvOverride(t *testing.T) {
	t.Setenv("TICKET_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("TICKET_ALERTS_THRESHOLD_PCT", "10")
	t.Setenv("TICKET_LOG_LEVEL", "debug")

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.True(t, cfg.ThresholdPct().Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitializeConfig_Invalid(t *testing.T) {
	t.Setenv("TICKET_LOG_LEVEL", "loud")
	_, err := InitializeConfig()
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg, err := InitializeConfig()
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Reconcile.Epsilon = 0
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Alerts.MinSamples = 0
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.AI.Enabled = true
	cfg.AI.Model = ""
	assert.Error(t, validateConfig(cfg))
}
