package cmd

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stop_guard/internal/config"
	"stop_guard/internal/journal"
	"stop_guard/internal/logger"
	"stop_guard/internal/market"
	"stop_guard/internal/market/alpaca"
	"stop_guard/internal/metrics"
	"stop_guard/internal/notifications"
	"stop_guard/internal/storage"
	"stop_guard/internal/watcher"
)

const VersionFile = "version.latest"

// app wires the collaborators shared by every subcommand.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	journal *journal.SQLite
	metrics *metrics.Metrics
	watcher *watcher.Watcher
}

// newApp loads config and builds the watcher. pricesFile, when set, replaces the Alpaca feed
// and disables liquidation.
func newApp(pricesFile string) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.Version = readVersion()

	log, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFile,
		MaxSizeMB:  cfg.MaxLogSizeMB,
		MaxBackups: cfg.MaxLogBackups,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		log.Warn("config", zap.String("warning", w))
	}

	j, err := journal.NewSQLite(cfg.JournalDB)
	if err != nil {
		return nil, err
	}

	policy := cfg.PolicyConfig()
	deps := watcher.Deps{
		Store:    storage.New(cfg.StateFile, decimal.NewFromFloat(cfg.StartingCash), policy, log),
		Journal:  j,
		Notifier: buildNotifier(cfg),
	}

	if pricesFile == "" {
		pricesFile = cfg.PricesFile
	}
	if pricesFile != "" {
		deps.Feed = &market.FileFeed{Path: pricesFile}
	} else {
		provider := alpaca.NewProvider()
		deps.Feed = provider
		deps.Liquidator = provider
		deps.Clock = provider
	}

	m := metrics.New()
	deps.Metrics = m

	w, err := watcher.New(cfg, deps, log)
	if err != nil {
		j.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, journal: j, metrics: m, watcher: w}, nil
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		a.log.Warn("closing journal", zap.Error(err))
	}
	_ = a.log.Sync()
}

func buildNotifier(cfg *config.Config) notifications.Notifier {
	var multi notifications.Multi
	if cfg.WebhookURL != "" {
		multi = append(multi, notifications.NewWebhook(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		multi = append(multi, notifications.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if len(multi) == 0 {
		return nil
	}
	return multi
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
