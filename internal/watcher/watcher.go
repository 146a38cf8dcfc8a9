package watcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stop_guard/internal/config"
	"stop_guard/internal/journal"
	"stop_guard/internal/market"
	"stop_guard/internal/metrics"
	"stop_guard/internal/models"
	"stop_guard/internal/notifications"
	"stop_guard/internal/stops"
	"stop_guard/internal/storage"
)

// Store persists the portfolio snapshot between cycles.
type Store interface {
	Load() (models.PortfolioState, error)
	Save(models.PortfolioState) error
	AddPosition(symbol string, shares, price decimal.Decimal, catalyst, sector string, now time.Time) (models.Position, error)
	SetTarget(symbol string, target decimal.Decimal) (models.Position, error)
}

// Journal records executed stops and daily portfolio snapshots.
type Journal interface {
	Record(models.ClosedTrade) (models.ClosedTrade, error)
	List() ([]models.ClosedTrade, error)
	Snapshot(models.PortfolioSnapshot) error
}

// Observer receives every cycle result (metrics).
type Observer interface {
	Observe(stops.CycleResult)
}

var (
	_ Store    = (*storage.Store)(nil)
	_ Journal  = (*journal.SQLite)(nil)
	_ Observer = (*metrics.Metrics)(nil)
)

// Deps are the collaborators a Watcher drives. Liquidator, Clock, Notifier and Metrics are
// optional.
type Deps struct {
	Feed       market.PriceFeed
	Liquidator market.Liquidator
	Clock      market.Clock
	Notifier   notifications.Notifier
	Store      Store
	Journal    Journal
	Metrics    Observer
}

type alertMark struct {
	severity models.Severity
	at       time.Time
}

// unsaved is a close or partial sale that was executed but is not on disk yet. It is
// replayed onto the next loaded state so the order is never sent twice.
type unsaved struct {
	close  *models.Violation
	target *models.ProfitTarget
}

type Watcher struct {
	Deps
	config *config.Config
	policy models.PolicyConfig
	log    *zap.Logger

	mu         sync.Mutex
	lastAlerts map[string]alertMark // To prevent alert fatigue
	unsaved    []unsaved
	unrecorded []models.ClosedTrade // stop executions the journal rejected, retried every cycle
	now        func() time.Time
}

type nopObserver struct{}

func (nopObserver) Observe(stops.CycleResult) {}

func New(cfg *config.Config, deps Deps, log *zap.Logger) (*Watcher, error) {
	if deps.Feed == nil || deps.Store == nil || deps.Journal == nil {
		return nil, fmt.Errorf("watcher needs a price feed, a store and a journal")
	}
	policy := cfg.PolicyConfig()
	if err := stops.ValidatePolicy(policy); err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		Deps:       deps,
		config:     cfg,
		policy:     policy,
		log:        log,
		lastAlerts: make(map[string]alertMark),
		now:        time.Now,
	}, nil
}

// Run polls once immediately, then every PollInterval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.config.PollInterval())
	defer ticker.Stop()

	w.log.Info("watcher started",
		zap.Duration("interval", w.config.PollInterval()),
		zap.Bool("auto_liquidate", w.config.AutoLiquidate))

	for {
		w.tick(ctx)

		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if w.config.MarketHoursOnly && w.Clock != nil {
		clock, err := w.Clock.Clock(ctx)
		if err != nil {
			w.log.Warn("market clock unavailable, polling anyway", zap.Error(err))
		} else if !clock.IsOpen {
			w.log.Debug("market closed, skipping cycle", zap.Time("next_open", clock.NextOpen))
			return
		}
	}
	if _, err := w.Poll(ctx); err != nil {
		w.log.Error("cycle failed", zap.Error(err))
	}
}

// Poll runs one full cycle: load state, fetch prices, evaluate, act on violations and
// targets, save, notify, export metrics.
//
// State is saved as soon as orders have been acted on. When that save fails the executed
// closes and sales are kept in memory and replayed onto the next load, and Poll returns
// the error.
func (w *Watcher) Poll(ctx context.Context) (stops.CycleResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.Store.Load()
	if err != nil {
		return stops.CycleResult{}, fmt.Errorf("load state: %w", err)
	}
	w.replayUnsaved(&state)

	prices, err := w.Feed.Prices(ctx, w.symbols(state))
	if err != nil {
		// Fail safe: every position keeps its stop and no violation can fire on stale data.
		w.log.Warn("price feed failed, treating all prices as missing", zap.Error(err))
		prices = map[string]decimal.Decimal{}
	}

	res := stops.RunCycle(state.Positions, prices, w.policy)
	now := w.now()

	for i := range res.Positions {
		if _, ok := prices[res.Positions[i].Symbol]; ok {
			res.Positions[i].LastUpdate = &now
		}
	}
	for _, sym := range res.Missing {
		w.log.Warn("no price, stop left in force", zap.String("symbol", sym))
	}
	for _, s := range res.Skipped {
		w.log.Warn("position skipped", zap.String("symbol", s.Symbol), zap.Error(s.Err))
	}
	state.Positions = append([]models.Position(nil), res.Positions...)
	w.updateBenchmarks(&state, prices)

	var out outcome
	w.handleViolations(ctx, &state, res.Violations, now, &out)
	w.handleTargets(ctx, &state, res.Targets, &out)

	saveErr := w.Store.Save(state)
	if saveErr == nil {
		w.unsaved = nil
	} else {
		w.log.Error("state not saved, executed orders kept for the next cycle",
			zap.Int("pending", len(w.unsaved)), zap.Error(saveErr))
		out.saveErr = saveErr
	}

	w.flushJournal(&out)

	// Report on what is actually held after this cycle's closes and sales.
	res.Positions = state.Positions
	res.Risk = stops.Aggregate(state.Positions)
	res.Alerts = stops.GenerateAlerts(state.Positions)

	w.notify(ctx, out, w.freshAlerts(res.Alerts, now))
	w.Metrics.Observe(res)

	if err := w.Journal.Snapshot(journal.SnapshotFromState(state, decimal.NewFromFloat(w.config.StartingCash), now)); err != nil {
		w.log.Warn("portfolio snapshot failed", zap.Error(err))
	}

	if saveErr != nil {
		return res, fmt.Errorf("save state: %w", saveErr)
	}

	w.log.Info("cycle complete",
		zap.Int("positions", len(state.Positions)),
		zap.Int("violations", len(res.Violations)),
		zap.Int("targets", len(res.Targets)),
		zap.Int("alerts", len(res.Alerts)),
		zap.String("total_at_risk", res.Risk.TotalAtRisk.StringFixed(2)))
	return res, nil
}

// symbols is the held symbols followed by any benchmark not already held.
func (w *Watcher) symbols(state models.PortfolioState) []string {
	out := state.Symbols()
	for _, b := range w.config.Benchmarks {
		if state.Find(b) < 0 {
			out = append(out, b)
		}
	}
	return out
}

func (w *Watcher) updateBenchmarks(state *models.PortfolioState, prices map[string]decimal.Decimal) {
	for _, b := range w.config.Benchmarks {
		p, ok := prices[b]
		if !ok {
			continue
		}
		if state.Benchmarks == nil {
			state.Benchmarks = map[string]decimal.Decimal{}
		}
		state.Benchmarks[b] = p
	}
}

// replayUnsaved reapplies executed closes and sales that the last save lost.
func (w *Watcher) replayUnsaved(state *models.PortfolioState) {
	for _, u := range w.unsaved {
		switch {
		case u.close != nil:
			if state.Find(u.close.Symbol) < 0 {
				continue
			}
			if _, err := storage.Remove(state, u.close.Symbol, u.close.EstimatedProceeds); err == nil {
				w.log.Info("replayed unsaved close", zap.String("symbol", u.close.Symbol))
			}
		case u.target != nil:
			i := state.Find(u.target.Symbol)
			if i < 0 || state.Positions[i].TargetHit {
				continue
			}
			if _, err := storage.ApplyProfit(state, *u.target); err == nil {
				w.log.Info("replayed unsaved profit sale", zap.String("symbol", u.target.Symbol))
			}
		}
	}
}

type failedOrder struct {
	symbol string
	err    error
}

// outcome collects what one cycle did, for the notification.
type outcome struct {
	closed     []models.Violation
	taken      []models.ProfitTarget
	failed     []failedOrder
	unrecorded []failedOrder
	saveErr    error
}

func (w *Watcher) live() bool {
	return w.config.AutoLiquidate && w.Liquidator != nil
}

// handleViolations closes every violated position. With auto-liquidation a market sell is
// sent first and a failed order leaves the position open for the next cycle. Without it the
// position is closed on paper at the trigger price.
func (w *Watcher) handleViolations(ctx context.Context, state *models.PortfolioState, violations []models.Violation, now time.Time, out *outcome) {
	for _, v := range violations {
		log := w.log.With(zap.String("symbol", v.Symbol))
		log.Warn("stop triggered",
			zap.String("price", v.TriggerPrice.StringFixed(2)),
			zap.String("stop", v.StopLevel.StringFixed(2)),
			zap.String("mode", string(v.StopMode)))

		orderID := ""
		if w.live() {
			id, err := w.Liquidator.Liquidate(ctx, v)
			if err != nil {
				log.Error("liquidation failed, position kept", zap.Error(err))
				out.failed = append(out.failed, failedOrder{symbol: v.Symbol, err: err})
				continue
			}
			orderID = id
			log.Info("liquidation submitted", zap.String("order_id", orderID))
		}

		pos, err := storage.Remove(state, v.Symbol, v.EstimatedProceeds)
		if err != nil {
			log.Error("could not remove position", zap.Error(err))
			continue
		}
		w.unsaved = append(w.unsaved, unsaved{close: &v})

		trade := journal.ClosedTradeFromViolation(pos, v, now)
		trade.OrderID = orderID
		w.unrecorded = append(w.unrecorded, trade)

		delete(w.lastAlerts, v.Symbol)
		out.closed = append(out.closed, v)
	}
}

// handleTargets takes the partial profit owed on every reached target, live or on paper.
// A failed order leaves the position and its target untouched for the next cycle.
func (w *Watcher) handleTargets(ctx context.Context, state *models.PortfolioState, targets []models.ProfitTarget, out *outcome) {
	for _, t := range targets {
		log := w.log.With(zap.String("symbol", t.Symbol))
		log.Info("profit target reached",
			zap.String("price", t.TriggerPrice.StringFixed(2)),
			zap.String("target", t.TargetPrice.StringFixed(2)),
			zap.String("shares", t.SharesToSell.String()))

		if w.live() && t.SharesToSell.IsPositive() {
			id, err := w.Liquidator.TakeProfit(ctx, t)
			if err != nil {
				log.Error("profit sale failed, position kept", zap.Error(err))
				out.failed = append(out.failed, failedOrder{symbol: t.Symbol, err: err})
				continue
			}
			log.Info("profit sale submitted", zap.String("order_id", id))
		}

		if _, err := storage.ApplyProfit(state, t); err != nil {
			log.Error("could not apply profit sale", zap.Error(err))
			continue
		}
		w.unsaved = append(w.unsaved, unsaved{target: &t})
		out.taken = append(out.taken, t)
	}
}

// flushJournal records every pending stop execution. Rejected ones stay queued.
func (w *Watcher) flushJournal(out *outcome) {
	var keep []models.ClosedTrade
	for _, t := range w.unrecorded {
		if _, err := w.Journal.Record(t); err != nil {
			w.log.Error("could not journal stop execution", zap.String("symbol", t.Symbol), zap.Error(err))
			keep = append(keep, t)
			out.unrecorded = append(out.unrecorded, failedOrder{symbol: t.Symbol, err: err})
		}
	}
	w.unrecorded = keep
}

var severityRank = map[models.Severity]int{
	models.SeverityLow:    1,
	models.SeverityMedium: 2,
	models.SeverityHigh:   3,
}

// freshAlerts drops alerts already sent within the cooldown unless the severity went up.
func (w *Watcher) freshAlerts(alerts []models.Alert, now time.Time) []models.Alert {
	cooldown := w.config.AlertCooldown()
	var out []models.Alert
	for _, a := range alerts {
		last, seen := w.lastAlerts[a.Symbol]
		if seen && cooldown > 0 && now.Sub(last.at) < cooldown && severityRank[a.Severity] <= severityRank[last.severity] {
			continue
		}
		w.lastAlerts[a.Symbol] = alertMark{severity: a.Severity, at: now}
		out = append(out, a)
	}
	return out
}

func formatFailures(title string, fs []failedOrder) string {
	if len(fs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(title + "\n")
	for _, f := range fs {
		fmt.Fprintf(&b, "• %s: %v\n", f.symbol, f.err)
	}
	return b.String()
}

func (w *Watcher) notify(ctx context.Context, out outcome, alerts []models.Alert) {
	if w.Notifier == nil {
		return
	}

	var parts []string
	add := func(msg string) {
		if msg != "" {
			parts = append(parts, msg)
		}
	}
	add(notifications.FormatViolations(out.closed, w.live()))
	add(notifications.FormatTargets(out.taken, w.live()))
	add(formatFailures("❌ Liquidation failed, positions still open:", out.failed))
	add(formatFailures("⚠️ Not recorded in stop history yet, will retry:", out.unrecorded))
	if out.saveErr != nil {
		add(fmt.Sprintf("⚠️ State file not saved (%v). Executed orders are kept and reapplied next cycle.\n", out.saveErr))
	}
	add(notifications.FormatAlerts(alerts))
	if len(parts) == 0 {
		return
	}

	if err := w.Notifier.Notify(ctx, strings.Join(parts, "\n")); err != nil {
		w.log.Warn("notification failed", zap.Error(err))
	}
}
