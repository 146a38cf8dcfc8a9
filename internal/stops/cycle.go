package stops

import (
	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

// CycleResult is everything one evaluation pass produces.
type CycleResult struct {
	Positions  []models.Position // updated snapshot, same order as the input
	Violations []models.Violation
	Targets    []models.ProfitTarget // target prices reached by positions that did not violate
	Alerts     []models.Alert
	Risk       RiskMetrics
	Missing    []string    // symbols with no price this cycle; their stops stay in force
	Skipped    []SkipError // positions rejected as invalid input
}

// RunCycle refreshes every position from prices, detects violations and reached targets,
// then aggregates risk and alerts over the full updated set. The input slice is not modified.
//
// A position without a price, or one that fails validation, keeps its previous state and
// never blocks the others.
func RunCycle(positions []models.Position, prices map[string]decimal.Decimal, cfg models.PolicyConfig) CycleResult {
	res := CycleResult{Positions: make([]models.Position, 0, len(positions))}

	for _, pos := range positions {
		price, ok := prices[pos.Symbol]
		if !ok {
			res.Missing = append(res.Missing, pos.Symbol)
			res.Positions = append(res.Positions, pos)
			continue
		}

		next, err := Advance(pos, price, cfg)
		if err != nil {
			res.Skipped = append(res.Skipped, SkipError{Symbol: pos.Symbol, Err: err})
			res.Positions = append(res.Positions, pos)
			continue
		}
		res.Positions = append(res.Positions, next)

		if v, hit := Detect(next); hit {
			res.Violations = append(res.Violations, v)
		} else if t, hit := CheckTarget(next, cfg); hit {
			res.Targets = append(res.Targets, t)
		}
	}

	res.Risk = Aggregate(res.Positions)
	res.Alerts = GenerateAlerts(res.Positions)
	return res
}
