package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stop_guard/internal/models"
	"stop_guard/internal/stops"
)

// SchemaVersion is written to every saved state file.
const SchemaVersion = "2.0"

var (
	ErrPositionExists   = errors.New("position already exists")
	ErrPositionNotFound = errors.New("position not found")
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrInvalidTarget    = errors.New("target price must be above the entry price")
)

// Store persists the portfolio snapshot as a JSON file.
type Store struct {
	Path         string
	StartingCash decimal.Decimal
	Policy       models.PolicyConfig
	log          *zap.Logger
}

func New(path string, startingCash decimal.Decimal, policy models.PolicyConfig, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{Path: path, StartingCash: startingCash, Policy: policy, log: log}
}

// Load reads the portfolio state from disk.
// A missing file yields a fresh template, which is saved immediately.
func (st *Store) Load() (models.PortfolioState, error) {
	var s models.PortfolioState

	if _, err := os.Stat(st.Path); os.IsNotExist(err) {
		st.log.Info("state file missing, generating template", zap.String("path", st.Path))
		s = models.PortfolioState{Version: SchemaVersion, Cash: st.StartingCash, Positions: []models.Position{}}
		if err := st.Save(s); err != nil {
			return s, err
		}
		return s, nil
	}

	b, err := os.ReadFile(st.Path)
	if err != nil {
		return s, fmt.Errorf("read state: %w", err)
	}

	migrated, err := st.decode(b, &s)
	if err != nil {
		return s, fmt.Errorf("decode state %s: %w", st.Path, err)
	}
	if st.backfill(&s) {
		migrated = true
	}
	if s.Positions == nil {
		s.Positions = []models.Position{}
	}

	if migrated {
		st.log.Info("state migrated, saving", zap.String("version", s.Version))
		if err := st.Save(s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// decode accepts both the current list layout and the legacy layout where positions
// are an object keyed by symbol. It reports whether a migration happened.
func (st *Store) decode(b []byte, s *models.PortfolioState) (bool, error) {
	var probe struct {
		Positions json.RawMessage `json:"positions"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return false, err
	}
	raw := strings.TrimSpace(string(probe.Positions))
	if !strings.HasPrefix(raw, "{") {
		return false, json.Unmarshal(b, s)
	}

	st.log.Info("migrating legacy state schema", zap.String("to", SchemaVersion))
	var legacy legacyState
	if err := json.Unmarshal(b, &legacy); err != nil {
		return false, err
	}
	*s = legacy.upgrade()
	return true, nil
}

// backfill fills fields missing from older snapshots. Returns true if anything changed.
func (st *Store) backfill(s *models.PortfolioState) bool {
	updated := false
	for i := range s.Positions {
		p := &s.Positions[i]
		if p.HighestPrice.LessThan(p.EntryPrice) {
			p.HighestPrice = p.EntryPrice
			updated = true
		}
		if p.CurrentPrice.IsZero() {
			p.CurrentPrice = p.EntryPrice
			updated = true
		}
		if !p.StopLevel.IsPositive() {
			p.StopLevel = stops.InitialStop(p.EntryPrice, st.Policy)
			p.StopMode = models.StopModeInitial
			updated = true
		}
		if !p.StopMode.Valid() {
			p.StopMode = models.StopModeInitial
			updated = true
		}
	}
	if s.Version < SchemaVersion {
		s.Version = SchemaVersion
		updated = true
	}
	return updated
}

// Save writes the state to disk using an atomic write pattern.
// 1. Write to a temporary file.
// 2. Sync to ensure data is on disk.
// 3. Rename temporary file to destination (atomic operation).
func (st *Store) Save(s models.PortfolioState) error {
	s.LastSync = time.Now().Format(time.RFC3339)
	if s.Version == "" {
		s.Version = SchemaVersion
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(st.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmpFile := st.Path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}
	// Force sync to disk before rename
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp state file: %w", err)
	}
	// Close explicitly before renaming (essential on Windows)
	f.Close()

	if err := os.Rename(tmpFile, st.Path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// AddPosition opens a new position at price, seeding its watermark and initial stop,
// and debits the cost from cash.
func (st *Store) AddPosition(symbol string, shares, price decimal.Decimal, catalyst, sector string, now time.Time) (models.Position, error) {
	s, err := st.Load()
	if err != nil {
		return models.Position{}, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if s.Find(symbol) >= 0 {
		return models.Position{}, fmt.Errorf("%w: %s", ErrPositionExists, symbol)
	}

	pos, err := stops.Seed(models.Position{
		Symbol:     symbol,
		Shares:     shares,
		EntryPrice: price,
		EntryDate:  now,
		Catalyst:   catalyst,
		Sector:     sector,
		LastUpdate: &now,
	}, st.Policy)
	if err != nil {
		return models.Position{}, err
	}

	cost := pos.CostBasis()
	if cost.GreaterThan(s.Cash) {
		return models.Position{}, fmt.Errorf("%w: need %s, available %s", ErrInsufficientCash, cost.StringFixed(2), s.Cash.StringFixed(2))
	}

	s.Cash = s.Cash.Sub(cost)
	s.Positions = append(s.Positions, pos)
	if err := st.Save(s); err != nil {
		return models.Position{}, err
	}
	st.log.Info("position added",
		zap.String("symbol", symbol),
		zap.String("shares", shares.String()),
		zap.String("entry", price.StringFixed(2)),
		zap.String("stop", pos.StopLevel.StringFixed(2)))
	return pos, nil
}

// RemovePosition closes symbol and credits proceeds to cash.
func (st *Store) RemovePosition(symbol string, proceeds decimal.Decimal) (models.Position, error) {
	s, err := st.Load()
	if err != nil {
		return models.Position{}, err
	}
	pos, err := Remove(&s, symbol, proceeds)
	if err != nil {
		return pos, err
	}
	return pos, st.Save(s)
}

// SetTarget arms a profit target on symbol. A new target can fire again even if an earlier
// one already did.
func (st *Store) SetTarget(symbol string, target decimal.Decimal) (models.Position, error) {
	s, err := st.Load()
	if err != nil {
		return models.Position{}, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	i := s.Find(symbol)
	if i < 0 {
		return models.Position{}, fmt.Errorf("%w: %s", ErrPositionNotFound, symbol)
	}
	if !target.GreaterThan(s.Positions[i].EntryPrice) {
		return models.Position{}, fmt.Errorf("%w: %s <= %s", ErrInvalidTarget, target.StringFixed(2), s.Positions[i].EntryPrice.StringFixed(2))
	}

	s.Positions[i].TargetPrice = &target
	s.Positions[i].TargetHit = false
	if err := st.Save(s); err != nil {
		return models.Position{}, err
	}
	st.log.Info("profit target set", zap.String("symbol", symbol), zap.String("target", target.StringFixed(2)))
	return s.Positions[i], nil
}

// ApplyProfit books a partial sale on an in-memory state: the position shrinks, its target
// is marked as hit, and the proceeds are credited to cash.
func ApplyProfit(s *models.PortfolioState, t models.ProfitTarget) (models.Position, error) {
	i := s.Find(t.Symbol)
	if i < 0 {
		return models.Position{}, fmt.Errorf("%w: %s", ErrPositionNotFound, t.Symbol)
	}
	s.Positions[i] = stops.TakeProfit(s.Positions[i], t)
	s.Cash = s.Cash.Add(t.EstimatedProceeds)
	return s.Positions[i], nil
}

// Remove drops symbol from an in-memory state and credits proceeds to cash.
func Remove(s *models.PortfolioState, symbol string, proceeds decimal.Decimal) (models.Position, error) {
	i := s.Find(symbol)
	if i < 0 {
		return models.Position{}, fmt.Errorf("%w: %s", ErrPositionNotFound, symbol)
	}
	pos := s.Positions[i]
	s.Positions = append(s.Positions[:i], s.Positions[i+1:]...)
	s.Cash = s.Cash.Add(proceeds)
	return pos, nil
}

type legacyPosition struct {
	Symbol       string          `json:"symbol"`
	Shares       decimal.Decimal `json:"shares"`
	EntryPrice   decimal.Decimal `json:"entry_price"`
	EntryDate    string          `json:"entry_date"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	HighestPrice decimal.Decimal `json:"highest_price"`
	StopLevel    decimal.Decimal `json:"stop_level"`
	StopType     string          `json:"stop_type"`
	Catalyst     string          `json:"catalyst"`
	Sector       string          `json:"sector"`
}

type legacyState struct {
	Cash       decimal.Decimal           `json:"cash"`
	LastUpdate *string                   `json:"last_update"`
	Positions  map[string]legacyPosition `json:"positions"`
}

var legacyDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseLegacyDate(v string) time.Time {
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (l legacyState) upgrade() models.PortfolioState {
	symbols := make([]string, 0, len(l.Positions))
	for sym := range l.Positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	s := models.PortfolioState{Cash: l.Cash, Positions: make([]models.Position, 0, len(symbols))}
	for _, sym := range symbols {
		lp := l.Positions[sym]
		if lp.Symbol == "" {
			lp.Symbol = sym
		}
		s.Positions = append(s.Positions, models.Position{
			Symbol:       lp.Symbol,
			Shares:       lp.Shares,
			EntryPrice:   lp.EntryPrice,
			EntryDate:    parseLegacyDate(lp.EntryDate),
			CurrentPrice: lp.CurrentPrice,
			HighestPrice: lp.HighestPrice,
			StopLevel:    lp.StopLevel,
			StopMode:     models.StopMode(strings.ToUpper(lp.StopType)),
			Catalyst:     lp.Catalyst,
			Sector:       lp.Sector,
		})
	}
	return s
}
