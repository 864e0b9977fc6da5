package autoapproval

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/contracts"
)

func alwaysOpenWindow() Window {
	return Window{Timezone: "UTC", OpenMinute: 0, CloseMinute: 24 * 60}
}

func baseProposal() contracts.OrderProposal {
	return contracts.OrderProposal{
		Intent: contracts.OrderIntent{
			Instrument: contracts.Instrument{Symbol: "AAPL", Type: contracts.InstrumentSTK},
			OrderType:  contracts.OrderLimit,
		},
		Simulation: &contracts.SimulationResult{GrossNotional: decimal.NewFromInt(500)},
	}
}

func TestPolicyEvaluateDisabledAlwaysRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	p := NewPolicy(cfg)
	ok, reason := p.Evaluate(context.Background(), baseProposal())
	if ok {
		t.Fatal("expected disabled policy to reject")
	}
	if reason == "" {
		t.Fatal("expected a reason")
	}
}

func TestPolicyEvaluateApprovesWithinConjunction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Window = alwaysOpenWindow()
	p := NewPolicy(cfg)

	ok, reason := p.Evaluate(context.Background(), baseProposal())
	if !ok {
		t.Fatalf("expected approval, got rejection: %s", reason)
	}
}

func TestPolicyEvaluateRejectsBlocklistedSymbol(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Window = alwaysOpenWindow()
	cfg.SymbolBlocklist = []string{"AAPL"}
	p := NewPolicy(cfg)

	ok, _ := p.Evaluate(context.Background(), baseProposal())
	if ok {
		t.Fatal("expected blocklisted symbol to be rejected")
	}
}

func TestPolicyEvaluateRejectsOverNotional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Window = alwaysOpenWindow()
	cfg.MaxNotional = decimal.NewFromInt(100)
	p := NewPolicy(cfg)

	ok, reason := p.Evaluate(context.Background(), baseProposal())
	if ok {
		t.Fatalf("expected over-notional proposal to be rejected, got approval")
	}
	if reason == "" {
		t.Fatal("expected a reason")
	}
}

func TestPolicyEvaluateRejectsMissingSimulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Window = alwaysOpenWindow()
	p := NewPolicy(cfg)

	proposal := baseProposal()
	proposal.Simulation = nil
	ok, _ := p.Evaluate(context.Background(), proposal)
	if ok {
		t.Fatal("expected missing simulation to reject")
	}
}

func TestPolicySetConfigSwapsAtomically(t *testing.T) {
	p := NewPolicy(DefaultConfig())
	if p.Current().Enabled {
		t.Fatal("expected default to be disabled")
	}
	updated := DefaultConfig()
	updated.Enabled = true
	p.SetConfig(updated)
	if !p.Current().Enabled {
		t.Fatal("expected SetConfig to take effect")
	}
}

func TestInWindow(t *testing.T) {
	w := Window{Timezone: "UTC", OpenMinute: 570, CloseMinute: 960}
	inside := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if !inWindow(w, inside) {
		t.Fatal("expected noon to be inside the window")
	}
	outside := time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)
	if inWindow(w, outside) {
		t.Fatal("expected 3am to be outside the window")
	}
}
