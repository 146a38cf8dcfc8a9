package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stop_guard/internal/config"
	"stop_guard/internal/models"
	"stop_guard/internal/stops"
)

// Status is a read-only view of the saved portfolio. Prices are the ones stored by the last
// cycle; nothing is fetched.
type Status struct {
	State    models.PortfolioState
	Analysis []stops.PositionAnalysis
	Risk     stops.RiskMetrics
	Alerts   []models.Alert
}

func (w *Watcher) Status() (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.Store.Load()
	if err != nil {
		return Status{}, fmt.Errorf("load state: %w", err)
	}
	return Status{
		State:    state,
		Analysis: stops.AnalyzePositions(state.Positions),
		Risk:     stops.Aggregate(state.Positions),
		Alerts:   stops.GenerateAlerts(state.Positions),
	}, nil
}

// AddPosition opens a position at price with the configured initial stop.
func (w *Watcher) AddPosition(symbol string, shares, price decimal.Decimal, catalyst, sector string) (models.Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.Store.AddPosition(symbol, shares, price, catalyst, sector, w.now())
}

// SetTarget arms a partial profit target on a held position.
func (w *Watcher) SetTarget(symbol string, target decimal.Decimal) (models.Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.Store.SetTarget(symbol, target)
}

// History returns every executed stop and its summary statistics.
func (w *Watcher) History() ([]models.ClosedTrade, stops.HistoryStats, error) {
	trades, err := w.Journal.List()
	if err != nil {
		return nil, stops.HistoryStats{}, fmt.Errorf("list stop history: %w", err)
	}
	return trades, stops.Analyze(trades), nil
}

// MarketStatus describes the market session, or an error line when the clock is unavailable.
func (w *Watcher) MarketStatus(ctx context.Context) string {
	if w.Clock == nil {
		return "Market clock not configured."
	}
	clock, err := w.Clock.Clock(ctx)
	if err != nil {
		w.log.Warn("error fetching market clock", zap.Error(err))
		return "⚠️ Could not fetch market status."
	}

	status := "CLOSED 🔴"
	nextSession := "Next Open"
	eventTime := clock.NextOpen
	if clock.IsOpen {
		status = "OPEN 🟢"
		nextSession = "Closes"
		eventTime = clock.NextClose
	}

	until := eventTime.Sub(w.now()).Round(time.Minute)
	return fmt.Sprintf("Market: %s, %s: %s (in %s)", status, nextSession, eventTime.In(config.CetLoc).Format("15:04 MST"), until)
}

// SendStartupNotification announces the watcher with its policy and portfolio size.
func (w *Watcher) SendStartupNotification(ctx context.Context) {
	if w.Notifier == nil {
		return
	}
	st, err := w.Status()
	if err != nil {
		w.log.Warn("startup status unavailable", zap.Error(err))
	}

	mode := "PAPER"
	if w.config.AutoLiquidate && w.Liquidator != nil {
		mode = "AUTO-LIQUIDATE"
	}
	msg := fmt.Sprintf("🚀 stop_guard %s online\nMode: %s | Positions: %d | At risk: $%s\nPolicy: initial %s%%, trailing %s%%, activation %s%%",
		w.config.Version, mode, len(st.State.Positions), st.Risk.TotalAtRisk.StringFixed(2),
		w.policy.InitialStopPct.Shift(2).String(),
		w.policy.TrailingStopPct.Shift(2).String(),
		w.policy.ActivationGainPct.Shift(2).String())
	if err := w.Notifier.Notify(ctx, msg); err != nil {
		w.log.Warn("startup notification failed", zap.Error(err))
	}
}

func (w *Watcher) SendShutdownNotification(ctx context.Context) {
	if w.Notifier == nil {
		return
	}
	if err := w.Notifier.Notify(ctx, "🛑 stop_guard shutting down. State saved after the last cycle."); err != nil {
		w.log.Warn("shutdown notification failed", zap.Error(err))
	}
}
