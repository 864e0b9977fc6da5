package edgestability

import (
	"math"
	"testing"
	"time"
)

func TestMonitorSymbolVolatilityRequiresTwoObservations(t *testing.T) {
	m := NewMonitor(Config{}, 100000)
	if _, ok := m.SymbolVolatility("AAPL"); ok {
		t.Fatal("expected ok=false with no observations")
	}

	m.Record(Outcome{Symbol: "AAPL", ReturnFrac: 0.01, ClosedAt: time.Now()})
	if _, ok := m.SymbolVolatility("AAPL"); ok {
		t.Fatal("expected ok=false with one observation")
	}

	m.Record(Outcome{Symbol: "AAPL", ReturnFrac: -0.02, ClosedAt: time.Now()})
	vol, ok := m.SymbolVolatility("AAPL")
	if !ok {
		t.Fatal("expected ok=true with two observations")
	}
	if vol <= 0 {
		t.Fatalf("vol = %v, want > 0", vol)
	}
}

func TestMonitorWindowSizeTruncatesHistory(t *testing.T) {
	m := NewMonitor(Config{WindowSize: 3}, 100000)
	for i := 0; i < 10; i++ {
		m.Record(Outcome{Symbol: "AAPL", ReturnFrac: float64(i) * 0.01})
	}
	hist := m.bySymbol["AAPL"]
	if len(hist) != 3 {
		t.Fatalf("len(hist) = %d, want 3", len(hist))
	}
}

func TestMonitorCurrentDrawdownPct(t *testing.T) {
	m := NewMonitor(Config{}, 100000)
	if dd := m.CurrentDrawdownPct(); dd != 0 {
		t.Fatalf("initial drawdown = %v, want 0", dd)
	}

	m.Record(Outcome{Symbol: "AAPL", ReturnFrac: 0.05, PnL: 10000})
	if dd := m.CurrentDrawdownPct(); dd != 0 {
		t.Fatalf("drawdown after gain = %v, want 0", dd)
	}

	m.Record(Outcome{Symbol: "AAPL", ReturnFrac: -0.1, PnL: -55000})
	dd := m.CurrentDrawdownPct()
	want := (110000.0 - 55000.0) / 110000.0 * 100
	if math.Abs(dd-want) > 1e-9 {
		t.Fatalf("drawdown = %v, want %v", dd, want)
	}
}
