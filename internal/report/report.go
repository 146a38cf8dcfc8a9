// Package report renders console tables for the CLI.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"stop_guard/internal/models"
	"stop_guard/internal/stops"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

func pct(d decimal.Decimal) string { return d.Shift(2).StringFixed(2) + "%" }

// Positions prints one row per position with its stop analysis.
func Positions(w io.Writer, rows []stops.PositionAnalysis) {
	t := newTable(w, "POSITIONS")
	t.AppendHeader(table.Row{"Symbol", "Mode", "Price", "Entry", "High", "Stop", "Gain", "To Stop", "Locked", "Risk"})
	for _, a := range rows {
		t.AppendRow(table.Row{
			a.Symbol,
			strings.ToLower(string(a.StopMode)),
			money(a.CurrentPrice),
			money(a.EntryPrice),
			money(a.HighestPrice),
			money(a.StopLevel),
			pct(a.GainFromEntry),
			pct(a.DistanceToStop),
			pct(a.StopProtection),
			string(a.RiskLevel),
		})
	}
	if len(rows) == 0 {
		t.AppendRow(table.Row{"(none)"})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	t.Render()
}

// Risk prints the portfolio risk summary.
func Risk(w io.Writer, r stops.RiskMetrics, cash decimal.Decimal) {
	t := newTable(w, "RISK")
	t.AppendRows([]table.Row{
		{"Positions", r.TotalPositions},
		{"With stops", r.PositionsWithStops},
		{"Trailing / Initial", fmt.Sprintf("%d / %d", r.TrailingActive, r.InitialActive)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Cash", money(cash)},
		{"Portfolio value", money(r.PortfolioValue)},
		{"Total at risk", money(r.TotalAtRisk)},
		{"Portfolio risk", pct(r.PortfolioRiskPct)},
		{"Weighted stop distance", pct(r.WeightedAvgStopDistance)},
		{"Closest / Furthest", pct(r.ClosestStopDistance) + " / " + pct(r.FurthestStopDistance)},
	})
	t.Render()
}

// Alerts prints approaching-stop alerts; nothing is printed when there are none.
func Alerts(w io.Writer, alerts []models.Alert) {
	if len(alerts) == 0 {
		return
	}
	t := newTable(w, "ALERTS")
	t.AppendHeader(table.Row{"Severity", "Symbol", "Message"})
	for _, a := range alerts {
		t.AppendRow(table.Row{string(a.Severity), a.Symbol, a.Message})
	}
	t.Render()
}

// Violations prints triggered stops; nothing is printed when there are none.
func Violations(w io.Writer, violations []models.Violation) {
	if len(violations) == 0 {
		return
	}
	t := newTable(w, "STOPS TRIGGERED")
	t.AppendHeader(table.Row{"Symbol", "Mode", "Price", "Stop", "Shares", "Proceeds", "Breach"})
	for _, v := range violations {
		t.AppendRow(table.Row{
			v.Symbol,
			strings.ToLower(string(v.StopMode)),
			money(v.TriggerPrice),
			money(v.StopLevel),
			v.Shares.String(),
			money(v.EstimatedProceeds),
			pct(v.ViolationPct),
		})
	}
	t.Render()
}

// Targets prints reached profit targets; nothing is printed when there are none.
func Targets(w io.Writer, targets []models.ProfitTarget) {
	if len(targets) == 0 {
		return
	}
	t := newTable(w, "PROFIT TARGETS")
	t.AppendHeader(table.Row{"Symbol", "Price", "Target", "Sold", "Proceeds"})
	for _, pt := range targets {
		t.AppendRow(table.Row{
			pt.Symbol,
			money(pt.TriggerPrice),
			money(pt.TargetPrice),
			pt.SharesToSell.String(),
			money(pt.EstimatedProceeds),
		})
	}
	t.Render()
}

// Benchmarks prints the last benchmark prices in symbol order.
func Benchmarks(w io.Writer, prices map[string]decimal.Decimal) {
	if len(prices) == 0 {
		return
	}
	symbols := make([]string, 0, len(prices))
	for s := range prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	t := newTable(w, "BENCHMARKS")
	for _, s := range symbols {
		t.AppendRow(table.Row{s, money(prices[s])})
	}
	t.Render()
}

// Snapshots prints the daily portfolio history.
func Snapshots(w io.Writer, snaps []models.PortfolioSnapshot) {
	t := newTable(w, "PORTFOLIO HISTORY")
	t.AppendHeader(table.Row{"Date", "Value", "Cash", "Positions", "Count", "Return", "Return %"})
	for _, s := range snaps {
		t.AppendRow(table.Row{
			s.Date,
			money(s.PortfolioValue),
			money(s.Cash),
			money(s.PositionsValue),
			s.PositionsCount,
			money(s.TotalReturn),
			pct(s.TotalReturnPct),
		})
	}
	if len(snaps) == 0 {
		t.AppendRow(table.Row{"(none)"})
	}
	t.Render()
}

// Trades prints executed stops, one row each.
func Trades(w io.Writer, trades []models.ClosedTrade) {
	t := newTable(w, "EXECUTED STOPS")
	t.AppendHeader(table.Row{"ID", "Closed", "Symbol", "Mode", "Shares", "Entry", "Exit", "P&L", "P&L %", "Days", "Order"})
	for _, tr := range trades {
		t.AppendRow(table.Row{
			tr.ID,
			tr.ClosedAt.Format("2006-01-02"),
			tr.Symbol,
			strings.ToLower(string(tr.StopMode)),
			tr.Shares.String(),
			money(tr.EntryPrice),
			money(tr.ExitPrice),
			money(tr.PnL),
			pct(tr.PnLPct),
			tr.DaysHeld,
			tr.OrderID,
		})
	}
	if len(trades) == 0 {
		t.AppendRow(table.Row{"(none)"})
	}
	t.Render()
}

// History prints overall and per-mode stop execution stats.
func History(w io.Writer, h stops.HistoryStats) {
	t := newTable(w, "STOP HISTORY")
	t.AppendHeader(table.Row{"Group", "Count", "Wins", "Losses", "Success", "Avg P&L", "Avg P&L %", "Avg Days", "Worst", "Best"})
	t.AppendRow(statsRow("all", h.ModeStats))
	for _, mode := range []models.StopMode{models.StopModeInitial, models.StopModeTrailing} {
		if s, ok := h.ByMode[mode]; ok {
			t.AppendRow(statsRow(strings.ToLower(string(mode)), s))
		}
	}
	t.Render()
}

func statsRow(group string, s stops.ModeStats) table.Row {
	return table.Row{
		group,
		s.Count,
		s.Wins,
		s.Losses,
		pct(s.SuccessRate),
		money(s.AvgPnL),
		pct(s.AvgPnLPct),
		s.AvgDaysHeld.StringFixed(1),
		money(s.MinPnL),
		money(s.MaxPnL),
	}
}
