package autoapproval

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"tradegate/internal/contracts"
)

// Policy implements approval.AutoApprovalPolicy. Config is held behind an
// atomic pointer so it can be swapped without locking readers, mirroring
// internal/risk.PolicyStore's hot-swap idiom.
type Policy struct {
	cfg atomic.Pointer[Config]
}

// NewPolicy builds a Policy from an initial Config.
func NewPolicy(initial Config) *Policy {
	p := &Policy{}
	p.cfg.Store(&initial)
	return p
}

// SetConfig atomically replaces the policy's configuration.
func (p *Policy) SetConfig(cfg Config) {
	p.cfg.Store(&cfg)
}

// Current returns the policy's active configuration.
func (p *Policy) Current() Config {
	return *p.cfg.Load()
}

// Evaluate reports whether proposal qualifies for immediate approval. All
// clauses must hold; the first failing clause is returned as reason.
func (p *Policy) Evaluate(_ context.Context, proposal contracts.OrderProposal) (bool, string) {
	cfg := p.Current()

	if !cfg.Enabled {
		return false, "auto-approval disabled"
	}

	intent := proposal.Intent
	symbol := intent.Instrument.Symbol

	if containsSymbol(cfg.SymbolBlocklist, symbol) {
		return false, fmt.Sprintf("symbol %s is blocklisted", symbol)
	}
	if len(cfg.SymbolAllowlist) > 0 && !containsSymbol(cfg.SymbolAllowlist, symbol) {
		return false, fmt.Sprintf("symbol %s is not in the auto-approval allowlist", symbol)
	}

	if len(cfg.InstrumentAllowlist) > 0 && !containsInstrument(cfg.InstrumentAllowlist, intent.Instrument.Type) {
		return false, fmt.Sprintf("instrument type %s is not eligible for auto-approval", intent.Instrument.Type)
	}

	if len(cfg.OrderTypeAllowlist) > 0 && !containsOrderType(cfg.OrderTypeAllowlist, intent.OrderType) {
		return false, fmt.Sprintf("order type %s is not eligible for auto-approval", intent.OrderType)
	}

	now := time.Now().UTC()
	if !inWindow(cfg.Window, now) {
		return false, "outside the auto-approval time window"
	}

	if len(cfg.DCASchedules) > 0 && !containsTag(cfg.DCASchedules, intent.StrategyTag) {
		return false, "strategy_tag does not match a registered DCA schedule"
	}

	if proposal.RiskDecision != nil {
		if pct, ok := proposal.RiskDecision.Metrics["position_pct"]; ok && pct > cfg.MaxPositionWeightPct {
			return false, fmt.Sprintf("post-trade position weight %.4f exceeds auto-approval ceiling %.4f", pct, cfg.MaxPositionWeightPct)
		}
	}

	if proposal.Simulation == nil {
		return false, "simulation result unavailable"
	}
	if proposal.Simulation.GrossNotional.GreaterThan(cfg.MaxNotional) {
		return false, fmt.Sprintf("gross notional %s exceeds auto-approval threshold %s", proposal.Simulation.GrossNotional, cfg.MaxNotional)
	}

	return true, "auto-approval conjunction satisfied"
}
