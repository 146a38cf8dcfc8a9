package stops

import (
	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

// PositionAnalysis is a per-position view of where the stop sits relative to entry,
// watermark and current price. All percentages are fractions.
type PositionAnalysis struct {
	Symbol            string
	StopMode          models.StopMode
	CurrentPrice      decimal.Decimal
	EntryPrice        decimal.Decimal
	HighestPrice      decimal.Decimal
	StopLevel         decimal.Decimal
	GainFromEntry     decimal.Decimal
	MaxGain           decimal.Decimal
	DistanceToStop    decimal.Decimal
	DistanceToStopAbs decimal.Decimal // in price units
	StopProtection    decimal.Decimal // (stop - entry) / entry; positive once profit is locked in
	RiskLevel         models.Severity
}

var (
	riskHigh   = decimal.RequireFromString("0.02")
	riskMedium = decimal.RequireFromString("0.05")
)

// RiskLevel buckets a stop distance: under 2% HIGH, under 5% MEDIUM, otherwise LOW.
// Unlike Classify it always returns a level.
func RiskLevel(distance decimal.Decimal) models.Severity {
	switch {
	case distance.LessThan(riskHigh):
		return models.SeverityHigh
	case distance.LessThan(riskMedium):
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// AnalyzePositions builds a PositionAnalysis for every position with a positive entry and
// current price.
func AnalyzePositions(positions []models.Position) []PositionAnalysis {
	var out []PositionAnalysis
	for _, p := range positions {
		if !p.EntryPrice.IsPositive() || !p.CurrentPrice.IsPositive() {
			continue
		}
		highest := decimal.Max(p.HighestPrice, p.EntryPrice)
		a := PositionAnalysis{
			Symbol:        p.Symbol,
			StopMode:      p.StopMode,
			CurrentPrice:  p.CurrentPrice,
			EntryPrice:    p.EntryPrice,
			HighestPrice:  highest,
			StopLevel:     p.StopLevel,
			GainFromEntry: gain(p.EntryPrice, p.CurrentPrice),
			MaxGain:       gain(p.EntryPrice, highest),
		}
		if p.StopLevel.IsPositive() {
			a.DistanceToStop = StopDistance(p.CurrentPrice, p.StopLevel)
			a.DistanceToStopAbs = p.CurrentPrice.Sub(p.StopLevel)
			a.StopProtection = gain(p.EntryPrice, p.StopLevel)
			a.RiskLevel = RiskLevel(a.DistanceToStop)
		}
		out = append(out, a)
	}
	return out
}
