package stops

import (
	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
)

// ModeStats summarises a group of executed stops.
type ModeStats struct {
	Count       int
	Wins        int // pnl > 0
	Losses      int // pnl <= 0
	AvgPnL      decimal.Decimal
	AvgPnLPct   decimal.Decimal
	AvgDaysHeld decimal.Decimal
	MinPnL      decimal.Decimal
	MaxPnL      decimal.Decimal
	SuccessRate decimal.Decimal // wins / count
}

// HistoryStats is the whole-history summary plus a breakdown by stop mode.
type HistoryStats struct {
	ModeStats
	ByMode map[models.StopMode]ModeStats
}

type tally struct {
	count, wins    int
	pnl, pct, days decimal.Decimal
	minPnL, maxPnL decimal.Decimal
}

func (t *tally) add(tr models.ClosedTrade) {
	if t.count == 0 || tr.PnL.LessThan(t.minPnL) {
		t.minPnL = tr.PnL
	}
	if t.count == 0 || tr.PnL.GreaterThan(t.maxPnL) {
		t.maxPnL = tr.PnL
	}
	t.count++
	if tr.PnL.IsPositive() {
		t.wins++
	}
	t.pnl = t.pnl.Add(tr.PnL)
	t.pct = t.pct.Add(tr.PnLPct)
	t.days = t.days.Add(decimal.NewFromInt(int64(tr.DaysHeld)))
}

func (t *tally) stats() ModeStats {
	if t.count == 0 {
		return ModeStats{}
	}
	n := decimal.NewFromInt(int64(t.count))
	return ModeStats{
		Count:       t.count,
		Wins:        t.wins,
		Losses:      t.count - t.wins,
		AvgPnL:      t.pnl.Div(n),
		AvgPnLPct:   t.pct.Div(n),
		AvgDaysHeld: t.days.Div(n),
		MinPnL:      t.minPnL,
		MaxPnL:      t.maxPnL,
		SuccessRate: decimal.NewFromInt(int64(t.wins)).Div(n),
	}
}

// Analyze computes win/loss statistics over executed stops. An empty history is a normal
// state and returns zero stats with an empty breakdown.
func Analyze(trades []models.ClosedTrade) HistoryStats {
	var all tally
	byMode := map[models.StopMode]*tally{}

	for _, tr := range trades {
		all.add(tr)
		if !tr.StopMode.Valid() {
			continue
		}
		t, ok := byMode[tr.StopMode]
		if !ok {
			t = &tally{}
			byMode[tr.StopMode] = t
		}
		t.add(tr)
	}

	out := HistoryStats{
		ModeStats: all.stats(),
		ByMode:    make(map[models.StopMode]ModeStats, len(byMode)),
	}
	for mode, t := range byMode {
		out.ByMode[mode] = t.stats()
	}
	return out
}
