package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stop_guard/internal/models"
	"stop_guard/internal/stops"
)

var d = decimal.RequireFromString

func TestPositions(t *testing.T) {
	var buf bytes.Buffer
	Positions(&buf, stops.AnalyzePositions([]models.Position{{
		Symbol:       "CRNX",
		Shares:       d("10"),
		EntryPrice:   d("32.50"),
		CurrentPrice: d("36"),
		HighestPrice: d("36"),
		StopLevel:    d("31.68"),
		StopMode:     models.StopModeTrailing,
	}}))

	out := buf.String()
	assert.Contains(t, out, "POSITIONS")
	assert.Contains(t, out, "CRNX")
	assert.Contains(t, out, "trailing")
	assert.Contains(t, out, "$31.68")
	assert.Contains(t, out, "12.00%")
}

func TestPositions_Empty(t *testing.T) {
	var buf bytes.Buffer
	Positions(&buf, nil)
	assert.Contains(t, buf.String(), "(none)")
}

func TestRisk(t *testing.T) {
	var buf bytes.Buffer
	Risk(&buf, stops.RiskMetrics{
		TotalPositions: 2,
		TrailingActive: 1,
		InitialActive:  1,
		PortfolioValue: d("2000"),
		TotalAtRisk:    d("120"),
	}, d("500"))

	out := buf.String()
	assert.Contains(t, out, "1 / 1")
	assert.Contains(t, out, "$2000.00")
	assert.Contains(t, out, "$120.00")
	assert.Contains(t, out, "$500.00")
}

func TestAlertsAndViolations_EmptyPrintNothing(t *testing.T) {
	var buf bytes.Buffer
	Alerts(&buf, nil)
	Violations(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestViolations(t *testing.T) {
	var buf bytes.Buffer
	Violations(&buf, []models.Violation{{
		Symbol:            "CRNX",
		TriggerPrice:      d("31.5"),
		StopLevel:         d("31.68"),
		StopMode:          models.StopModeTrailing,
		Shares:            d("10"),
		EstimatedProceeds: d("315"),
		ViolationPct:      d("0.0057"),
	}})
	out := buf.String()
	assert.Contains(t, out, "STOPS TRIGGERED")
	assert.Contains(t, out, "$315.00")
	assert.Contains(t, out, "0.57%")
}

func TestHistory(t *testing.T) {
	var buf bytes.Buffer
	History(&buf, stops.Analyze([]models.ClosedTrade{
		{Symbol: "A", PnL: d("-130"), PnLPct: d("-0.13"), StopMode: models.StopModeInitial, DaysHeld: 4},
		{Symbol: "B", PnL: d("200"), PnLPct: d("0.2"), StopMode: models.StopModeTrailing, DaysHeld: 20},
	}))
	out := buf.String()
	assert.Contains(t, out, "STOP HISTORY")
	assert.Contains(t, out, "initial")
	assert.Contains(t, out, "trailing")
	assert.Contains(t, out, "$-130.00")
}

func TestTrades(t *testing.T) {
	var buf bytes.Buffer
	Trades(&buf, []models.ClosedTrade{{
		ID:         "01JNQ7",
		Symbol:     "CRNX",
		Shares:     d("10"),
		EntryPrice: d("32.50"),
		ExitPrice:  d("31.50"),
		PnL:        d("-10"),
		PnLPct:     d("-0.0308"),
		StopMode:   models.StopModeTrailing,
		DaysHeld:   9,
		ClosedAt:   time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC),
	}})
	out := buf.String()
	assert.Contains(t, out, "2025-03-10")
	assert.Contains(t, out, "$-10.00")
	assert.Contains(t, out, "-3.08%")
}

func TestTargets(t *testing.T) {
	var buf bytes.Buffer
	Targets(&buf, nil)
	assert.Empty(t, buf.String())

	Targets(&buf, []models.ProfitTarget{{
		Symbol:            "CRNX",
		TargetPrice:       d("40"),
		TriggerPrice:      d("41"),
		SharesToSell:      d("5"),
		EstimatedProceeds: d("205"),
	}})
	out := buf.String()
	assert.Contains(t, out, "PROFIT TARGETS")
	assert.Contains(t, out, "$40.00")
	assert.Contains(t, out, "$205.00")
}

func TestBenchmarks(t *testing.T) {
	var buf bytes.Buffer
	Benchmarks(&buf, map[string]decimal.Decimal{"SPY": d("512.3"), "IWM": d("201")})

	out := buf.String()
	assert.Contains(t, out, "$512.30")
	assert.Less(t, strings.Index(out, "IWM"), strings.Index(out, "SPY"), "sorted by symbol")
}

func TestSnapshots(t *testing.T) {
	var buf bytes.Buffer
	Snapshots(&buf, []models.PortfolioSnapshot{{
		Date:           "2025-03-03",
		PortfolioValue: d("1035"),
		Cash:           d("675"),
		PositionsValue: d("360"),
		PositionsCount: 1,
		TotalReturn:    d("35"),
		TotalReturnPct: d("0.035"),
	}})
	out := buf.String()
	assert.Contains(t, out, "2025-03-03")
	assert.Contains(t, out, "$1035.00")
	assert.Contains(t, out, "3.50%")

	buf.Reset()
	Snapshots(&buf, nil)
	assert.Contains(t, buf.String(), "(none)")
}
