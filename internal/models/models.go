package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StopMode tells which rule produced a position's active stop level.
type StopMode string

const (
	StopModeInitial  StopMode = "INITIAL"  // fixed percentage below entry
	StopModeTrailing StopMode = "TRAILING" // ratchets with the highest price seen
)

// Valid reports whether m is one of the known stop modes.
func (m StopMode) Valid() bool {
	return m == StopModeInitial || m == StopModeTrailing
}

// Position represents a single held symbol.
//
// Symbol, Shares, EntryPrice and EntryDate are set when the position is opened and never
// change afterwards. CurrentPrice is written by the price feed; HighestPrice, StopLevel and
// StopMode are written by the stop engine.
type Position struct {
	Symbol       string          `json:"symbol"`        // The stock symbol (e.g., "CRNX")
	Shares       decimal.Decimal `json:"shares"`        // Quantity held, fractional allowed
	EntryPrice   decimal.Decimal `json:"entry_price"`   // Price paid per share
	EntryDate    time.Time       `json:"entry_date"`    // Acquisition timestamp
	CurrentPrice decimal.Decimal `json:"current_price"` // Last observed market price
	HighestPrice decimal.Decimal `json:"highest_price"` // Watermark, never decreases
	StopLevel    decimal.Decimal `json:"stop_level"`    // Active protective price
	StopMode     StopMode        `json:"stop_mode"`     // INITIAL or TRAILING
	Catalyst     string          `json:"catalyst,omitempty"`
	Sector       string          `json:"sector,omitempty"`
	LastUpdate   *time.Time      `json:"last_update,omitempty"`

	// TargetPrice, when set, takes a partial profit the first time the price reaches it.
	TargetPrice *decimal.Decimal `json:"target_price,omitempty"`
	TargetHit   bool             `json:"target_hit,omitempty"`
}

// MarketValue is shares times the current price.
func (p Position) MarketValue() decimal.Decimal {
	return p.Shares.Mul(p.CurrentPrice)
}

// CostBasis is shares times the entry price.
func (p Position) CostBasis() decimal.Decimal {
	return p.Shares.Mul(p.EntryPrice)
}

// UnrealizedPL is the open profit or loss at the current price.
func (p Position) UnrealizedPL() decimal.Decimal {
	return p.MarketValue().Sub(p.CostBasis())
}

// UnrealizedPLPct is UnrealizedPL as a fraction of the cost basis (0 when the basis is 0).
func (p Position) UnrealizedPLPct() decimal.Decimal {
	basis := p.CostBasis()
	if basis.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPL().Div(basis)
}

// PolicyConfig holds the three stop percentages, as fractions (0.13 means 13%).
type PolicyConfig struct {
	InitialStopPct    decimal.Decimal `json:"initial_stop_pct"`
	TrailingStopPct   decimal.Decimal `json:"trailing_stop_pct"`
	ActivationGainPct decimal.Decimal `json:"activation_gain_pct"`

	// PartialProfitPct is the share of a position sold when its target price is reached.
	// Zero reports the target without selling.
	PartialProfitPct decimal.Decimal `json:"partial_profit_pct"`

	// DisableFloorClamp selects the variant where an active trailing stop may sit below
	// the initial stop. Off by default.
	DisableFloorClamp bool `json:"disable_floor_clamp,omitempty"`
}

// DefaultPolicy returns the 13% / 12% / 5% policy.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		InitialStopPct:    decimal.RequireFromString("0.13"),
		TrailingStopPct:   decimal.RequireFromString("0.12"),
		ActivationGainPct: decimal.RequireFromString("0.05"),
		PartialProfitPct:  decimal.RequireFromString("0.5"),
	}
}

// Violation is produced when a position's current price is at or below its stop level.
type Violation struct {
	Symbol            string          `json:"symbol"`
	TriggerPrice      decimal.Decimal `json:"trigger_price"`
	StopLevel         decimal.Decimal `json:"stop_level"`
	StopMode          StopMode        `json:"stop_mode"`
	Shares            decimal.Decimal `json:"shares"`
	EntryPrice        decimal.Decimal `json:"entry_price"`
	EstimatedProceeds decimal.Decimal `json:"estimated_proceeds"`
	ViolationAmount   decimal.Decimal `json:"violation_amount"` // stop - price, >= 0
	ViolationPct      decimal.Decimal `json:"violation_pct"`    // amount / stop
}

// ProfitTarget is produced when a position with a target price trades at or above it.
type ProfitTarget struct {
	Symbol            string          `json:"symbol"`
	TargetPrice       decimal.Decimal `json:"target_price"`
	TriggerPrice      decimal.Decimal `json:"trigger_price"`
	SharesToSell      decimal.Decimal `json:"shares_to_sell"`
	EstimatedProceeds decimal.Decimal `json:"estimated_proceeds"`
}

// Severity ranks how close a position is to its stop.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Alert flags a position that is approaching its stop.
type Alert struct {
	Symbol       string          `json:"symbol"`
	Severity     Severity        `json:"severity"`
	Threshold    decimal.Decimal `json:"threshold"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	StopLevel    decimal.Decimal `json:"stop_level"`
	Distance     decimal.Decimal `json:"distance"`
	StopMode     StopMode        `json:"stop_mode"`
	Message      string          `json:"message"`
}

// ClosedTrade is one executed stop, as kept in the stop history.
type ClosedTrade struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Shares     decimal.Decimal `json:"shares"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	PnL        decimal.Decimal `json:"pnl"`
	PnLPct     decimal.Decimal `json:"pnl_pct"`
	StopMode   StopMode        `json:"stop_mode"`
	DaysHeld   int             `json:"days_held"`
	OrderID    string          `json:"order_id,omitempty"`
	ClosedAt   time.Time       `json:"closed_at"`
}

// PortfolioSnapshot is the end-of-day picture of the portfolio, one per calendar day.
type PortfolioSnapshot struct {
	Date           string                     `json:"date"` // YYYY-MM-DD
	PortfolioValue decimal.Decimal            `json:"portfolio_value"`
	Cash           decimal.Decimal            `json:"cash"`
	PositionsValue decimal.Decimal            `json:"positions_value"`
	PositionsCount int                        `json:"positions_count"`
	TotalReturn    decimal.Decimal            `json:"total_return"`     // against the starting cash
	TotalReturnPct decimal.Decimal            `json:"total_return_pct"` // 0 when starting cash is 0
	Benchmarks     map[string]decimal.Decimal `json:"benchmarks,omitempty"`
	TakenAt        time.Time                  `json:"taken_at"`
}

// PortfolioState tracks the positions and cash of the portfolio.
// This struct matches the structure of our JSON storage file.
type PortfolioState struct {
	Version   string          `json:"version"`   // Schema version for future compatibility
	LastSync  string          `json:"last_sync"` // Timestamp of last file save
	Cash      decimal.Decimal `json:"cash"`
	Positions []Position      `json:"positions"`

	// Benchmarks holds the last index ETF prices seen, for comparison in reports.
	Benchmarks map[string]decimal.Decimal `json:"benchmarks,omitempty"`
}

// Find returns the index of the position for symbol, or -1.
func (s *PortfolioState) Find(symbol string) int {
	for i := range s.Positions {
		if s.Positions[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// Symbols lists the held symbols in portfolio order.
func (s *PortfolioState) Symbols() []string {
	out := make([]string, 0, len(s.Positions))
	for _, p := range s.Positions {
		out = append(out, p.Symbol)
	}
	return out
}
