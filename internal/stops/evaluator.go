// Package stops is the trailing stop-loss decision engine. Every function here is pure:
// no I/O, no clock, no logging. Collaborators feed it prices and positions and act on
// what it returns.
package stops

import (
	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

var one = decimal.NewFromInt(1)

// Evaluation is the outcome of one stop computation.
type Evaluation struct {
	Highest   decimal.Decimal // updated watermark
	StopLevel decimal.Decimal
	Mode      models.StopMode
	Gain      decimal.Decimal // (current - entry) / entry
}

// ValidatePolicy checks that every stop percentage lies strictly between 0 and 1, and that
// the partial profit share lies in [0, 1).
func ValidatePolicy(cfg models.PolicyConfig) error {
	fields := []struct {
		name string
		v    decimal.Decimal
	}{
		{"initial_stop_pct", cfg.InitialStopPct},
		{"trailing_stop_pct", cfg.TrailingStopPct},
		{"activation_gain_pct", cfg.ActivationGainPct},
	}
	for _, f := range fields {
		if !f.v.IsPositive() || f.v.GreaterThanOrEqual(one) {
			return invalid("%s must be in (0, 1), got %s", f.name, f.v)
		}
	}
	if cfg.PartialProfitPct.IsNegative() || cfg.PartialProfitPct.GreaterThanOrEqual(one) {
		return invalid("partial_profit_pct must be in [0, 1), got %s", cfg.PartialProfitPct)
	}
	return nil
}

// InitialStop is entry * (1 - initial_stop_pct).
func InitialStop(entry decimal.Decimal, cfg models.PolicyConfig) decimal.Decimal {
	return entry.Mul(one.Sub(cfg.InitialStopPct))
}

// TrailingStop is highest * (1 - trailing_stop_pct), before any floor clamp.
func TrailingStop(highest decimal.Decimal, cfg models.PolicyConfig) decimal.Decimal {
	return highest.Mul(one.Sub(cfg.TrailingStopPct))
}

// ShouldTrail reports whether the unrealized gain has reached the activation threshold.
// entry must be positive.
func ShouldTrail(entry, current decimal.Decimal, cfg models.PolicyConfig) bool {
	return gain(entry, current).GreaterThanOrEqual(cfg.ActivationGainPct)
}

func gain(entry, current decimal.Decimal) decimal.Decimal {
	return current.Sub(entry).Div(entry)
}

// trailingLevel applies the initial-stop floor unless the policy disables it.
func trailingLevel(entry, highest decimal.Decimal, cfg models.PolicyConfig) decimal.Decimal {
	candidate := TrailingStop(highest, cfg)
	if cfg.DisableFloorClamp {
		return candidate
	}
	return decimal.Max(candidate, InitialStop(entry, cfg))
}

// Evaluate maps (entry, current, prior watermark, policy) to the new watermark, stop level
// and stop mode.
//
// The watermark is updated first and never drops below the entry price, so a zero prior
// watermark (a position that was never evaluated) behaves like one seeded at entry.
func Evaluate(entry, current, priorHighest decimal.Decimal, cfg models.PolicyConfig) (Evaluation, error) {
	if !entry.IsPositive() {
		return Evaluation{}, invalid("entry price must be positive, got %s", entry)
	}
	if !current.IsPositive() {
		return Evaluation{}, invalid("current price must be positive, got %s", current)
	}
	if err := ValidatePolicy(cfg); err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{
		Highest: decimal.Max(priorHighest, current, entry),
		Gain:    gain(entry, current),
	}

	if !ShouldTrail(entry, current, cfg) {
		ev.Mode = models.StopModeInitial
		ev.StopLevel = InitialStop(entry, cfg)
		return ev, nil
	}

	ev.Mode = models.StopModeTrailing
	ev.StopLevel = trailingLevel(entry, ev.Highest, cfg)
	return ev, nil
}

// Advance applies one price observation to a position and returns the updated copy.
//
// On top of Evaluate it enforces the position-level ratchet: the stop level never moves
// down and a position that has switched to TRAILING stays there, its stop computed from
// the watermark even after the gain falls back under the activation threshold.
func Advance(pos models.Position, price decimal.Decimal, cfg models.PolicyConfig) (models.Position, error) {
	if !pos.Shares.IsPositive() {
		return pos, invalid("shares must be positive, got %s", pos.Shares)
	}
	ev, err := Evaluate(pos.EntryPrice, price, pos.HighestPrice, cfg)
	if err != nil {
		return pos, err
	}

	stop, mode := ev.StopLevel, ev.Mode
	if pos.StopMode == models.StopModeTrailing && mode == models.StopModeInitial {
		mode = models.StopModeTrailing
		stop = trailingLevel(pos.EntryPrice, ev.Highest, cfg)
	}
	if pos.StopLevel.GreaterThan(stop) {
		stop = pos.StopLevel
	}

	next := pos
	next.CurrentPrice = price
	next.HighestPrice = ev.Highest
	next.StopLevel = stop
	next.StopMode = mode
	return next, nil
}

// Seed fills in the watermark, stop level and mode of a freshly opened position.
func Seed(pos models.Position, cfg models.PolicyConfig) (models.Position, error) {
	if !pos.EntryPrice.IsPositive() {
		return pos, invalid("entry price must be positive, got %s", pos.EntryPrice)
	}
	if !pos.Shares.IsPositive() {
		return pos, invalid("shares must be positive, got %s", pos.Shares)
	}
	if err := ValidatePolicy(cfg); err != nil {
		return pos, err
	}
	pos.CurrentPrice = pos.EntryPrice
	pos.HighestPrice = pos.EntryPrice
	pos.StopLevel = InitialStop(pos.EntryPrice, cfg)
	pos.StopMode = models.StopModeInitial
	return pos, nil
}
