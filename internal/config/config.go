package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"stop_guard/internal/models"
)

// CetLoc is the zone used for human-facing timestamps (state file, notifications).
var CetLoc = time.FixedZone("CET", 3600)

// PolicyConfig mirrors models.PolicyConfig with plain floats so it reads naturally from
// YAML, JSON and the environment.
type PolicyConfig struct {
	InitialStopPct    float64 `json:"initial_stop_pct" yaml:"initial_stop_pct"`
	TrailingStopPct   float64 `json:"trailing_stop_pct" yaml:"trailing_stop_pct"`
	ActivationGainPct float64 `json:"activation_gain_pct" yaml:"activation_gain_pct"`
	DisableFloorClamp bool    `json:"disable_floor_clamp,omitempty" yaml:"disable_floor_clamp,omitempty"`
	PartialProfitPct  float64 `json:"partial_profit_pct" yaml:"partial_profit_pct"` // sold at the target price
}

// Config is everything the watcher needs for one run.
type Config struct {
	Policy PolicyConfig `json:"policy" yaml:"policy"`

	StateFile    string  `json:"state_file" yaml:"state_file"`
	JournalDB    string  `json:"journal_db" yaml:"journal_db"`
	StartingCash float64 `json:"starting_cash" yaml:"starting_cash"`

	PollIntervalMins  int    `json:"poll_interval_mins" yaml:"poll_interval_mins"`
	MarketHoursOnly   bool   `json:"market_hours_only" yaml:"market_hours_only"`
	AlertCooldownMins int    `json:"alert_cooldown_mins" yaml:"alert_cooldown_mins"` // 0 sends every cycle
	AutoLiquidate     bool   `json:"auto_liquidate" yaml:"auto_liquidate"`
	PricesFile        string `json:"prices_file,omitempty" yaml:"prices_file,omitempty"` // replaces Alpaca when set
	MetricsAddr       string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`

	Benchmarks []string `json:"benchmarks" yaml:"benchmarks"` // index ETFs quoted alongside the positions

	WebhookURL       string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	TelegramBotToken string `json:"-" yaml:"-"`
	TelegramChatID   string `json:"-" yaml:"-"`

	LogLevel      string `json:"log_level" yaml:"log_level"`
	LogFile       string `json:"log_file" yaml:"log_file"`
	MaxLogSizeMB  int64  `json:"max_log_size_mb" yaml:"max_log_size_mb"`
	MaxLogBackups int    `json:"max_log_backups" yaml:"max_log_backups"`

	Version string `json:"-" yaml:"-"`

	// Warnings collects non-fatal problems found while loading (bad env values that fell
	// back to defaults). They are logged once the logger exists.
	Warnings []string `json:"-" yaml:"-"`
}

// Default returns the 13% / 12% / 5% policy with local file paths.
func Default() *Config {
	return &Config{
		Policy: PolicyConfig{
			InitialStopPct:    0.13,
			TrailingStopPct:   0.12,
			ActivationGainPct: 0.05,
			PartialProfitPct:  0.5,
		},
		StateFile:         "state/portfolio_state.json",
		JournalDB:         "data/stop_history.sqlite",
		StartingCash:      1000,
		Benchmarks:        []string{"SPY", "MDY", "IWM", "QQQ"},
		PollIntervalMins:  60,
		AlertCooldownMins: 240,
		LogLevel:          "INFO",
		LogFile:           "stop_guard.log",
		MaxLogSizeMB:      5,
		MaxLogBackups:     3,
	}
}

// Load builds the configuration: defaults, then the optional file at path, then the
// environment (a .env file is read first when present). The result is validated.
func Load(path string) (*Config, error) {
	// A missing .env is normal in CI and containers.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads a YAML or JSON file on top of the defaults. It does not validate.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}
	return cfg, nil
}

// SaveToFile writes the config as YAML or JSON depending on the extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Policy.InitialStopPct = c.getEnvAsFloat64("INITIAL_STOP_PCT", c.Policy.InitialStopPct)
	c.Policy.TrailingStopPct = c.getEnvAsFloat64("TRAILING_STOP_PCT", c.Policy.TrailingStopPct)
	c.Policy.ActivationGainPct = c.getEnvAsFloat64("ACTIVATION_GAIN_PCT", c.Policy.ActivationGainPct)
	c.Policy.DisableFloorClamp = c.getEnvAsBool("DISABLE_FLOOR_CLAMP", c.Policy.DisableFloorClamp)
	c.Policy.PartialProfitPct = c.getEnvAsFloat64("PARTIAL_PROFIT_PCT", c.Policy.PartialProfitPct)

	c.StateFile = getEnv("STATE_FILE", c.StateFile)
	c.JournalDB = getEnv("JOURNAL_DB", c.JournalDB)
	c.StartingCash = c.getEnvAsFloat64("STARTING_CASH", c.StartingCash)

	c.PollIntervalMins = c.getEnvAsInt("POLL_INTERVAL_MINS", c.PollIntervalMins)
	c.MarketHoursOnly = c.getEnvAsBool("MARKET_HOURS_ONLY", c.MarketHoursOnly)
	c.AlertCooldownMins = c.getEnvAsInt("ALERT_COOLDOWN_MINS", c.AlertCooldownMins)
	c.AutoLiquidate = c.getEnvAsBool("AUTO_LIQUIDATE", c.AutoLiquidate)
	c.PricesFile = getEnv("PRICES_FILE", c.PricesFile)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.Benchmarks = getEnvAsSymbols("BENCHMARKS", c.Benchmarks)

	c.WebhookURL = getEnv("WEBHOOK_URL", c.WebhookURL)
	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.TelegramChatID)

	c.LogLevel = strings.ToUpper(getEnv("STOP_GUARD_LOG_LEVEL", c.LogLevel))
	c.LogFile = getEnv("STOP_GUARD_LOG_FILE", c.LogFile)
	c.MaxLogSizeMB = int64(c.getEnvAsInt("MAX_LOG_SIZE_MB", int(c.MaxLogSizeMB)))
	c.MaxLogBackups = c.getEnvAsInt("MAX_LOG_BACKUPS", c.MaxLogBackups)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	pcts := []struct {
		name string
		v    float64
	}{
		{"policy.initial_stop_pct", c.Policy.InitialStopPct},
		{"policy.trailing_stop_pct", c.Policy.TrailingStopPct},
		{"policy.activation_gain_pct", c.Policy.ActivationGainPct},
	}
	for _, p := range pcts {
		if p.v <= 0 || p.v >= 1 {
			return fmt.Errorf("%s must be between 0 and 1 (exclusive), got %v", p.name, p.v)
		}
	}
	if c.Policy.PartialProfitPct < 0 || c.Policy.PartialProfitPct >= 1 {
		return fmt.Errorf("policy.partial_profit_pct must be in [0, 1), got %v", c.Policy.PartialProfitPct)
	}
	if c.StateFile == "" {
		return fmt.Errorf("state_file is required")
	}
	if c.JournalDB == "" {
		return fmt.Errorf("journal_db is required")
	}
	if c.StartingCash < 0 {
		return fmt.Errorf("starting_cash must not be negative")
	}
	if c.PollIntervalMins <= 0 {
		return fmt.Errorf("poll_interval_mins must be positive")
	}
	if c.AlertCooldownMins < 0 {
		return fmt.Errorf("alert_cooldown_mins must not be negative")
	}
	if c.MaxLogSizeMB <= 0 {
		return fmt.Errorf("max_log_size_mb must be positive")
	}
	switch c.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("log_level must be DEBUG, INFO, WARN or ERROR, got %q", c.LogLevel)
	}
	return nil
}

// PolicyConfig converts the float policy into the engine's decimal form.
func (c *Config) PolicyConfig() models.PolicyConfig {
	return models.PolicyConfig{
		InitialStopPct:    decimal.NewFromFloat(c.Policy.InitialStopPct),
		TrailingStopPct:   decimal.NewFromFloat(c.Policy.TrailingStopPct),
		ActivationGainPct: decimal.NewFromFloat(c.Policy.ActivationGainPct),
		PartialProfitPct:  decimal.NewFromFloat(c.Policy.PartialProfitPct),
		DisableFloorClamp: c.Policy.DisableFloorClamp,
	}
}

// PollInterval is PollIntervalMins as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMins) * time.Minute
}

// AlertCooldown is AlertCooldownMins as a duration.
func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.AlertCooldownMins) * time.Minute
}

// Summary lists the effective settings with secrets masked, for startup logging.
func (c *Config) Summary() map[string]string {
	return map[string]string{
		"initial_stop_pct":    fmt.Sprint(c.Policy.InitialStopPct),
		"trailing_stop_pct":   fmt.Sprint(c.Policy.TrailingStopPct),
		"activation_gain_pct": fmt.Sprint(c.Policy.ActivationGainPct),
		"partial_profit_pct":  fmt.Sprint(c.Policy.PartialProfitPct),
		"benchmarks":          strings.Join(c.Benchmarks, ","),
		"state_file":          c.StateFile,
		"journal_db":          c.JournalDB,
		"poll_interval_mins":  fmt.Sprint(c.PollIntervalMins),
		"market_hours_only":   fmt.Sprint(c.MarketHoursOnly),
		"alert_cooldown_mins": fmt.Sprint(c.AlertCooldownMins),
		"auto_liquidate":      fmt.Sprint(c.AutoLiquidate),
		"prices_file":         c.PricesFile,
		"webhook_url":         Mask(c.WebhookURL),
		"telegram_bot_token":  Mask(c.TelegramBotToken),
		"telegram_chat_id":    c.TelegramChatID,
	}
}

// Mask hides all but the last 4 characters of a secret.
func Mask(val string) string {
	if val == "" {
		return ""
	}
	masked := "***"
	if len(val) > 4 {
		masked = "***" + val[len(val)-4:]
	}
	return masked
}
