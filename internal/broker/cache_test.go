package broker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"tradegate/internal/contracts"
)

func TestCacheSnapshotRoundTrip(t *testing.T) {
	c := NewCache("")
	inst := contracts.Instrument{Symbol: "AAPL", Type: contracts.InstrumentSTK}

	if _, ok := c.GetSnapshot(context.Background(), inst); ok {
		t.Fatal("expected cache miss before Set")
	}

	snap := contracts.MarketSnapshot{Instrument: inst, Last: decimal.NewFromInt(150)}
	c.SetSnapshot(context.Background(), snap)

	got, ok := c.GetSnapshot(context.Background(), inst)
	if !ok {
		t.Fatal("expected cache hit after Set")
	}
	if !got.Last.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("Last = %v, want 150", got.Last)
	}
}

func TestCacheBarsRoundTrip(t *testing.T) {
	c := NewCache("")
	inst := contracts.Instrument{Symbol: "AAPL", Type: contracts.InstrumentSTK}
	bars := []contracts.Bar{{Volume: 100}}

	c.SetBars(context.Background(), inst, Timeframe1Min, bars)
	got, ok := c.GetBars(context.Background(), inst, Timeframe1Min)
	if !ok {
		t.Fatal("expected cache hit after SetBars")
	}
	if len(got) != 1 || got[0].Volume != 100 {
		t.Fatalf("got %v, want one bar with volume 100", got)
	}
}

func TestCacheClose(t *testing.T) {
	c := NewCache("")
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
