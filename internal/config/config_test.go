package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"INITIAL_STOP_PCT",
	"TRAILING_STOP_PCT",
	"ACTIVATION_GAIN_PCT",
	"DISABLE_FLOOR_CLAMP",
	"PARTIAL_PROFIT_PCT",
	"STATE_FILE",
	"JOURNAL_DB",
	"STARTING_CASH",
	"POLL_INTERVAL_MINS",
	"MARKET_HOURS_ONLY",
	"ALERT_COOLDOWN_MINS",
	"AUTO_LIQUIDATE",
	"PRICES_FILE",
	"METRICS_ADDR",
	"BENCHMARKS",
	"WEBHOOK_URL",
	"TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID",
	"STOP_GUARD_LOG_LEVEL",
	"STOP_GUARD_LOG_FILE",
	"MAX_LOG_SIZE_MB",
	"MAX_LOG_BACKUPS",
}

// clearEnv blanks every key Load reads; t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 60, cfg.PollIntervalMins)
	assert.Equal(t, 0.13, cfg.Policy.InitialStopPct)
	assert.Equal(t, 0.12, cfg.Policy.TrailingStopPct)
	assert.Equal(t, 0.05, cfg.Policy.ActivationGainPct)
	assert.False(t, cfg.AutoLiquidate)
	assert.Empty(t, cfg.Warnings)

	p := cfg.PolicyConfig()
	assert.Equal(t, "0.13", p.InitialStopPct.String())
	assert.Equal(t, "0.12", p.TrailingStopPct.String())
	assert.Equal(t, "0.05", p.ActivationGainPct.String())
	assert.Equal(t, "0.5", p.PartialProfitPct.String())
	assert.Equal(t, []string{"SPY", "MDY", "IWM", "QQQ"}, cfg.Benchmarks)
}

func TestLoadConfig_Benchmarks(t *testing.T) {
	clearEnv(t)
	t.Setenv("BENCHMARKS", " spy, qqq ,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.Benchmarks)

	t.Setenv("BENCHMARKS", "none")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Benchmarks)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("INITIAL_STOP_PCT", "0.10")
	t.Setenv("AUTO_LIQUIDATE", "true")
	t.Setenv("POLL_INTERVAL_MINS", "15")
	t.Setenv("STOP_GUARD_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.10, cfg.Policy.InitialStopPct)
	assert.True(t, cfg.AutoLiquidate)
	assert.Equal(t, 15, cfg.PollIntervalMins)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadConfig_BadEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRAILING_STOP_PCT", "twelve")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.12, cfg.Policy.TrailingStopPct)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "TRAILING_STOP_PCT")
}

func TestLoadConfig_OutOfRangeRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACTIVATION_GAIN_PCT", "1.5")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy.activation_gain_pct must be between 0 and 1")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero initial", func(c *Config) { c.Policy.InitialStopPct = 0 }, "policy.initial_stop_pct"},
		{"trailing one", func(c *Config) { c.Policy.TrailingStopPct = 1 }, "policy.trailing_stop_pct"},
		{"full profit sale", func(c *Config) { c.Policy.PartialProfitPct = 1 }, "policy.partial_profit_pct"},
		{"no profit sale", func(c *Config) { c.Policy.PartialProfitPct = 0 }, ""},
		{"no state file", func(c *Config) { c.StateFile = "" }, "state_file is required"},
		{"no journal", func(c *Config) { c.JournalDB = "" }, "journal_db is required"},
		{"zero interval", func(c *Config) { c.PollIntervalMins = 0 }, "poll_interval_mins must be positive"},
		{"bad level", func(c *Config) { c.LogLevel = "LOUD" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := Default()
			cfg.Policy.TrailingStopPct = 0.08
			cfg.WebhookURL = "https://example.invalid/hook"
			path := filepath.Join(tmpDir, "stop_guard"+ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, 0.08, loaded.Policy.TrailingStopPct)
			assert.Equal(t, cfg.StateFile, loaded.StateFile)
			assert.Equal(t, cfg.WebhookURL, loaded.WebhookURL)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  initial_stop_pct: 0.2\n  trailing_stop_pct: 0.1\n  activation_gain_pct: 0.04\npoll_interval_mins: 5\n"), 0644))
	t.Setenv("POLL_INTERVAL_MINS", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Policy.InitialStopPct)
	assert.Equal(t, 0.04, cfg.Policy.ActivationGainPct)
	assert.Equal(t, 30, cfg.PollIntervalMins)
	assert.Equal(t, "state/portfolio_state.json", cfg.StateFile, "unset keys keep defaults")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "***", Mask("abcd"))
	assert.Equal(t, "***6789", Mask("123456789"))
}
