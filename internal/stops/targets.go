package stops

import (
	"stop_guard/internal/models"
)

// CheckTarget returns the partial sale owed when pos trades at or above its target price.
// A target fires once: positions already marked TargetHit, or without a target, never do.
func CheckTarget(pos models.Position, cfg models.PolicyConfig) (models.ProfitTarget, bool) {
	if pos.TargetPrice == nil || pos.TargetHit || !pos.CurrentPrice.IsPositive() {
		return models.ProfitTarget{}, false
	}
	if pos.CurrentPrice.LessThan(*pos.TargetPrice) {
		return models.ProfitTarget{}, false
	}

	qty := pos.Shares.Mul(cfg.PartialProfitPct)
	return models.ProfitTarget{
		Symbol:            pos.Symbol,
		TargetPrice:       *pos.TargetPrice,
		TriggerPrice:      pos.CurrentPrice,
		SharesToSell:      qty,
		EstimatedProceeds: qty.Mul(pos.CurrentPrice),
	}, true
}

// TakeProfit applies a partial sale to pos: shares shrink by the sold quantity and the
// target is marked as hit so it does not fire again.
func TakeProfit(pos models.Position, t models.ProfitTarget) models.Position {
	pos.Shares = pos.Shares.Sub(t.SharesToSell)
	pos.TargetHit = true
	return pos
}
