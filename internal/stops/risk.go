package stops

import (
	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

// RiskMetrics is the portfolio-wide stop exposure.
type RiskMetrics struct {
	TotalPositions     int
	PositionsWithStops int
	TrailingActive     int
	InitialActive      int

	PortfolioValue          decimal.Decimal // sum of positive market values
	TotalAtRisk             decimal.Decimal
	WeightedAvgStopDistance decimal.Decimal
	PortfolioRiskPct        decimal.Decimal
	ClosestStopDistance     decimal.Decimal
	FurthestStopDistance    decimal.Decimal
}

// StopDistance is (price - stop) / price, or zero when price is not positive.
func StopDistance(price, stop decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(stop).Div(price)
}

// Aggregate folds the position set into RiskMetrics. An empty set or a zero portfolio
// value yields zero metrics.
//
// Positions already at or below their stop add nothing to TotalAtRisk: they are pending
// liquidation, not ongoing exposure.
func Aggregate(positions []models.Position) RiskMetrics {
	m := RiskMetrics{TotalPositions: len(positions)}

	for _, p := range positions {
		if mv := p.MarketValue(); mv.IsPositive() {
			m.PortfolioValue = m.PortfolioValue.Add(mv)
		}
	}

	seen := false
	for _, p := range positions {
		if p.CurrentPrice.GreaterThan(p.StopLevel) {
			m.TotalAtRisk = m.TotalAtRisk.Add(p.Shares.Mul(p.CurrentPrice.Sub(p.StopLevel)))
		}

		dist := StopDistance(p.CurrentPrice, p.StopLevel)
		if mv := p.MarketValue(); mv.IsPositive() && m.PortfolioValue.IsPositive() {
			m.WeightedAvgStopDistance = m.WeightedAvgStopDistance.Add(mv.Div(m.PortfolioValue).Mul(dist))
		}

		if !p.CurrentPrice.IsPositive() || !p.StopLevel.IsPositive() {
			continue
		}
		m.PositionsWithStops++
		if p.StopMode == models.StopModeTrailing {
			m.TrailingActive++
		} else {
			m.InitialActive++
		}
		if !seen || dist.LessThan(m.ClosestStopDistance) {
			m.ClosestStopDistance = dist
		}
		if !seen || dist.GreaterThan(m.FurthestStopDistance) {
			m.FurthestStopDistance = dist
		}
		seen = true
	}

	if m.PortfolioValue.IsPositive() {
		m.PortfolioRiskPct = m.TotalAtRisk.Div(m.PortfolioValue)
	}
	return m
}
