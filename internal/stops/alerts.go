package stops

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

type tier struct {
	threshold decimal.Decimal
	severity  models.Severity
}

// Ascending: the first tier a distance falls under wins.
var alertTiers = []tier{
	{decimal.RequireFromString("0.02"), models.SeverityHigh},
	{decimal.RequireFromString("0.05"), models.SeverityMedium},
	{decimal.RequireFromString("0.10"), models.SeverityLow},
}

// Classify returns the severity and threshold for a stop distance. ok is false when the
// distance is 10% or more.
func Classify(distance decimal.Decimal) (sev models.Severity, threshold decimal.Decimal, ok bool) {
	for _, t := range alertTiers {
		if distance.LessThan(t.threshold) {
			return t.severity, t.threshold, true
		}
	}
	return "", decimal.Zero, false
}

// GenerateAlerts emits at most one alert per position, in input order. Positions without
// a positive price and stop are ignored.
func GenerateAlerts(positions []models.Position) []models.Alert {
	var alerts []models.Alert
	for _, p := range positions {
		if !p.CurrentPrice.IsPositive() || !p.StopLevel.IsPositive() {
			continue
		}
		dist := StopDistance(p.CurrentPrice, p.StopLevel)
		sev, threshold, ok := Classify(dist)
		if !ok {
			continue
		}
		alerts = append(alerts, models.Alert{
			Symbol:       p.Symbol,
			Severity:     sev,
			Threshold:    threshold,
			CurrentPrice: p.CurrentPrice,
			StopLevel:    p.StopLevel,
			Distance:     dist,
			StopMode:     p.StopMode,
			Message: fmt.Sprintf("%s is %s%% away from %s stop at $%s",
				p.Symbol, dist.Shift(2).StringFixed(2), modeLabel(p.StopMode), p.StopLevel.StringFixed(2)),
		})
	}
	return alerts
}

func modeLabel(m models.StopMode) string {
	if m == "" {
		return "stop"
	}
	return strings.ToLower(string(m))
}
