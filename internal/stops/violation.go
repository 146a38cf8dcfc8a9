package stops

import (
	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

// Check reports whether price has breached stop. An exact match counts as a breach.
func Check(price, stop decimal.Decimal) bool {
	return price.LessThanOrEqual(stop)
}

// Detect returns the violation for pos when its current price is at or below its stop.
// Positions without a price or a stop never trigger.
func Detect(pos models.Position) (models.Violation, bool) {
	if !pos.CurrentPrice.IsPositive() || !pos.StopLevel.IsPositive() {
		return models.Violation{}, false
	}
	if !Check(pos.CurrentPrice, pos.StopLevel) {
		return models.Violation{}, false
	}

	amount := pos.StopLevel.Sub(pos.CurrentPrice)
	return models.Violation{
		Symbol:            pos.Symbol,
		TriggerPrice:      pos.CurrentPrice,
		StopLevel:         pos.StopLevel,
		StopMode:          pos.StopMode,
		Shares:            pos.Shares,
		EntryPrice:        pos.EntryPrice,
		EstimatedProceeds: pos.Shares.Mul(pos.CurrentPrice),
		ViolationAmount:   amount,
		ViolationPct:      amount.Div(pos.StopLevel),
	}, true
}
