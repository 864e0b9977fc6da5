// Package edgestability feeds the risk evaluator's volatility-exposure
// (R9) and drawdown (R11) inputs from a rolling window of completed
// trade outcomes: per-symbol annualized volatility and current drawdown.
package edgestability

import (
	"math"
	"sync"
	"time"
)

// Outcome records one completed trade's realized return.
type Outcome struct {
	Symbol     string
	ReturnFrac float64
	PnL        float64
	ClosedAt   time.Time
}

// Config controls the rolling window.
type Config struct {
	WindowSize int // trades per symbol kept for volatility; defaults to 50
}

func (c *Config) applyDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = 50
	}
}

// Monitor tracks per-symbol return history (for R9's volatility input)
// and a running equity curve (for R11's drawdown input).
type Monitor struct {
	mu     sync.Mutex
	cfg    Config
	bySymbol map[string][]float64

	equity    float64
	peakEquity float64
}

// NewMonitor constructs a Monitor with startingEquity as the baseline for
// drawdown calculations.
func NewMonitor(cfg Config, startingEquity float64) *Monitor {
	cfg.applyDefaults()
	return &Monitor{
		cfg:        cfg,
		bySymbol:   make(map[string][]float64),
		equity:     startingEquity,
		peakEquity: startingEquity,
	}
}

// Record ingests a completed trade outcome.
func (m *Monitor) Record(o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hist := append(m.bySymbol[o.Symbol], o.ReturnFrac)
	if len(hist) > m.cfg.WindowSize {
		hist = hist[len(hist)-m.cfg.WindowSize:]
	}
	m.bySymbol[o.Symbol] = hist

	m.equity += o.PnL
	if m.equity > m.peakEquity {
		m.peakEquity = m.equity
	}
}

// SymbolVolatility returns the annualized return volatility for symbol
// over its rolling window (252 trading days/year), or ok=false if fewer
// than two observations exist.
func (m *Monitor) SymbolVolatility(symbol string) (vol float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hist := m.bySymbol[symbol]
	if len(hist) < 2 {
		return 0, false
	}

	mean := 0.0
	for _, r := range hist {
		mean += r
	}
	mean /= float64(len(hist))

	variance := 0.0
	for _, r := range hist {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(hist) - 1)

	return math.Sqrt(variance) * math.Sqrt(252), true
}

// CurrentDrawdownPct returns the current peak-to-trough drawdown as a
// percentage (0-100) of peak equity.
func (m *Monitor) CurrentDrawdownPct() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.peakEquity <= 0 {
		return 0
	}
	dd := (m.peakEquity - m.equity) / m.peakEquity
	if dd < 0 {
		dd = 0
	}
	return dd * 100
}
