package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundwatch/pkg/config"
)

const sample = `
meta:
  strategy_id: cautious
  version: "2"
calibration:
  smoothing: 0.9
signals:
  buy_threshold: -3
  strong_buy_threshold: -5
  strong_buy_multiplier: 3
  sell_threshold: 4
  sell_benchmark_offset: 2
  sell_fraction: 0.5
schedule:
  close_window:
    start: "15:00"
    end: "16:00"
  nightly_start: "20:30"
  nightly_deadline: "23:00"
`

func TestLoadAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
	assert.Equal(t, "cautious", cfg.Meta.StrategyID)

	c := &config.Config{}
	cfg.Apply(c)
	assert.Equal(t, 0.9, c.Policy.Smoothing)
	assert.Equal(t, -3.0, c.Policy.BuyThreshold)
	assert.Equal(t, int64(3), c.Policy.StrongBuyMultiplier)
	assert.Equal(t, 0.5, c.Policy.SellFraction)
	assert.Equal(t, "16:00", c.Schedule.CloseWindowEnd)
	assert.Equal(t, "20:30", c.Schedule.NightlyStart)

	// Round trip through the environment form
	assert.Equal(t, cfg.Signals, FromConfig(c).Signals)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(sample + "\nextra: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Parse([]byte(sample))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"smoothing", func(c *Config) { c.Calibration.Smoothing = 1.5 }, "calibration.smoothing"},
		{"positive buy", func(c *Config) { c.Signals.BuyThreshold = 1 }, "signals.buy_threshold"},
		{"strong above buy", func(c *Config) { c.Signals.StrongBuyThreshold = -1 }, "signals.strong_buy_threshold"},
		{"multiplier", func(c *Config) { c.Signals.StrongBuyMultiplier = 0 }, "signals.strong_buy_multiplier"},
		{"sell fraction", func(c *Config) { c.Signals.SellFraction = 0 }, "signals.sell_fraction"},
		{"bad time", func(c *Config) { c.Schedule.NightlyStart = "8:00" }, "schedule.nightly_start"},
		{"inverted window", func(c *Config) { c.Schedule.CloseWindow.End = "14:00" }, "schedule.close_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			var verr ValidationError
			require.True(t, errors.As(Validate(cfg), &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	h1, err := Hash(cfg)
	require.NoError(t, err)
	h2, _ := Hash(cfg)
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	cfg.Signals.SellFraction = 0.25
	h3, _ := Hash(cfg)
	assert.NotEqual(t, h1, h3)
}
