// Package journal keeps the history of executed stops, and one portfolio snapshot per day,
// in SQLite.
package journal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

var ErrNotFound = errors.New("stop execution not found")

// ClosedTradeFromViolation turns a triggered stop into a history record, exiting at the
// trigger price.
func ClosedTradeFromViolation(pos models.Position, v models.Violation, now time.Time) models.ClosedTrade {
	exit := v.TriggerPrice
	pnl := exit.Sub(pos.EntryPrice).Mul(pos.Shares)
	pnlPct := decimal.Zero
	if pos.EntryPrice.IsPositive() {
		pnlPct = exit.Sub(pos.EntryPrice).Div(pos.EntryPrice)
	}

	days := 0
	if !pos.EntryDate.IsZero() && now.After(pos.EntryDate) {
		days = int(now.Sub(pos.EntryDate).Hours() / 24)
	}

	return models.ClosedTrade{
		Symbol:     pos.Symbol,
		Shares:     pos.Shares,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exit,
		PnL:        pnl,
		PnLPct:     pnlPct,
		StopMode:   v.StopMode,
		DaysHeld:   days,
		ClosedAt:   now,
	}
}

// SnapshotFromState values the portfolio at the current prices. startingCash is the
// baseline the total return is measured against.
func SnapshotFromState(state models.PortfolioState, startingCash decimal.Decimal, now time.Time) models.PortfolioSnapshot {
	positionsValue := decimal.Zero
	for _, p := range state.Positions {
		positionsValue = positionsValue.Add(p.MarketValue())
	}
	value := positionsValue.Add(state.Cash)
	ret := value.Sub(startingCash)
	retPct := decimal.Zero
	if startingCash.IsPositive() {
		retPct = ret.Div(startingCash)
	}

	return models.PortfolioSnapshot{
		Date:           now.UTC().Format(time.DateOnly),
		PortfolioValue: value,
		Cash:           state.Cash,
		PositionsValue: positionsValue,
		PositionsCount: len(state.Positions),
		TotalReturn:    ret,
		TotalReturnPct: retPct,
		Benchmarks:     state.Benchmarks,
		TakenAt:        now.UTC(),
	}
}
