package risk

import (
	"fmt"
	"time"

	"tradegate/internal/calendar"
	"tradegate/internal/contracts"
	"tradegate/internal/edgestability"
)

// SectorExposure optionally supplies R3's sector-level aggregation; R3
// is a no-op when no sector map is available for the traded symbol.
type SectorExposure struct {
	Sector              string
	ExposureAfterSector float64
}

// Inputs bundles everything evaluate() needs beyond the policy itself.
type Inputs struct {
	Intent     contracts.OrderIntent
	Portfolio  contracts.Portfolio
	Simulation contracts.SimulationResult

	Now time.Time

	DailyTradesCount int
	DailyPnL         float64

	LiquidityProxy *float64
	Sector         *SectorExposure
	Correlation    *float64 // placeholder exposure fraction, nil disables R10

	KillSwitchEnabled bool
}

// Evaluator runs R1-R12 against a live Policy, with volatility/drawdown
// fed by an edgestability.Monitor and trading-window/session-edge fed by
// a calendar.Session.
type Evaluator struct {
	policy  *PolicyStore
	volMon  *edgestability.Monitor
	session *calendar.Session
}

// NewEvaluator wires a PolicyStore with the volatility monitor and
// trading-calendar session that supply R9/R11 and R5/R12's inputs.
func NewEvaluator(policy *PolicyStore, volMon *edgestability.Monitor, session *calendar.Session) *Evaluator {
	return &Evaluator{policy: policy, volMon: volMon, session: session}
}

// Evaluate renders a RiskDecision for in. REJECT when any enabled BLOCKER
// rule fails; MANUAL_REVIEW when a MAJOR rule fails and no BLOCKER has
// failed; APPROVE only when every enabled rule passes.
func (e *Evaluator) Evaluate(in Inputs) contracts.RiskDecision {
	policy := e.policy.Current()
	metrics := make(map[string]float64)

	if in.KillSwitchEnabled {
		return contracts.RiskDecision{
			Decision:      contracts.RiskReject,
			Reason:        "kill switch is enabled",
			ViolatedRules: []contracts.RuleID{contracts.RuleKS},
		}
	}

	var violated []contracts.RuleID
	var warnings []string
	manualReview := false

	fail := func(rule RuleConfig, id contracts.RuleID, reason string) {
		if !rule.Enabled {
			return
		}
		violated = append(violated, id)
		if rule.Severity == SeverityMajor {
			manualReview = true
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s", id, reason))
	}

	warnNear := func(ratio float64, label string) {
		if ratio >= policy.WarningThresholdPct && ratio < 1.0 {
			warnings = append(warnings, fmt.Sprintf("%s at %.0f%% of limit", label, ratio*100))
		}
	}

	gross, _ := in.Simulation.GrossNotional.Float64()
	slippageBps := 0.0
	if !in.Simulation.GrossNotional.IsZero() {
		slip, _ := in.Simulation.EstimatedSlippage.Float64()
		slippageBps = slip / gross * 10000
	}
	exposureAfter, _ := in.Simulation.ExposureAfter.Float64()
	totalValue, _ := in.Portfolio.TotalValue.Float64()

	// R1
	metrics["gross_notional"] = gross
	if policy.MaxNotionalPerTrade.Enabled {
		ratio := gross / policy.MaxNotionalPerTrade.Limit
		warnNear(ratio, "R1 gross_notional")
		if gross > policy.MaxNotionalPerTrade.Limit {
			fail(policy.MaxNotionalPerTrade, contracts.RuleR1, "gross notional exceeds max_notional_per_trade")
		}
	}

	// R2
	if policy.MaxPositionWeight.Enabled && totalValue > 0 {
		positionPct := absFloat(exposureAfter) / totalValue
		metrics["position_pct"] = positionPct
		warnNear(positionPct/policy.MaxPositionWeight.Limit, "R2 position_weight")
		if positionPct > policy.MaxPositionWeight.Limit {
			fail(policy.MaxPositionWeight, contracts.RuleR2, "position weight exceeds max_position_weight")
		}
	}

	// R3 — no-op if sector map absent
	if policy.MaxSectorWeight.Enabled && in.Sector != nil && totalValue > 0 {
		sectorPct := absFloat(in.Sector.ExposureAfterSector) / totalValue
		metrics["sector_pct"] = sectorPct
		warnNear(sectorPct/policy.MaxSectorWeight.Limit, "R3 sector_weight")
		if sectorPct > policy.MaxSectorWeight.Limit {
			fail(policy.MaxSectorWeight, contracts.RuleR3, "sector weight exceeds max_sector_weight")
		}
	}

	// R4
	metrics["slippage_bps"] = slippageBps
	if policy.MaxSlippageBps.Enabled {
		warnNear(slippageBps/policy.MaxSlippageBps.Limit, "R4 slippage_bps")
		if slippageBps > policy.MaxSlippageBps.Limit {
			fail(policy.MaxSlippageBps, contracts.RuleR4, "slippage exceeds max_slippage_bps")
		}
	}

	// R5 — trading window, extended by news blackout
	if policy.TradingWindow.Enabled && e.session != nil {
		inWindow := e.session.InTradingWindow(in.Now)
		if blackout, ev := e.session.NewsBlackoutActive(in.Now); blackout {
			inWindow = false
			reason := "news blackout active"
			if ev != nil {
				reason = fmt.Sprintf("news blackout active: %s", ev.Title)
			}
			fail(policy.TradingWindow, contracts.RuleR5, reason)
		} else if !inWindow {
			fail(policy.TradingWindow, contracts.RuleR5, "outside configured trading window")
		}
	}

	// R6 — no-op if liquidity absent
	if policy.MinLiquidity.Enabled && in.LiquidityProxy != nil {
		metrics["liquidity_proxy"] = *in.LiquidityProxy
		if *in.LiquidityProxy < policy.MinLiquidity.Limit {
			fail(policy.MinLiquidity, contracts.RuleR6, "instrument liquidity below min_liquidity")
		}
	}

	// R7
	metrics["daily_trades_count"] = float64(in.DailyTradesCount)
	if policy.MaxDailyTrades.Enabled {
		warnNear(float64(in.DailyTradesCount)/policy.MaxDailyTrades.Limit, "R7 daily_trades")
		if float64(in.DailyTradesCount) >= policy.MaxDailyTrades.Limit {
			fail(policy.MaxDailyTrades, contracts.RuleR7, "daily trade count reached max_daily_trades")
		}
	}

	// R8 — circuit breaker on daily loss
	metrics["daily_pnl"] = in.DailyPnL
	if policy.MaxDailyLoss.Enabled {
		if in.DailyPnL <= -policy.MaxDailyLoss.Limit {
			fail(policy.MaxDailyLoss, contracts.RuleR8, "daily loss breached max_daily_loss")
		}
	}

	// R9 — skipped if volatility metrics absent
	if policy.PositionVolatility.Enabled && e.volMon != nil {
		if vol, ok := e.volMon.SymbolVolatility(in.Intent.Instrument.Symbol); ok {
			exposure := absFloat(gross) * vol
			limit := policy.AdvancedRules.MaxPositionVolatility * totalValue
			metrics["position_volatility_exposure"] = exposure
			if limit > 0 {
				warnNear(exposure/limit, "R9 position_volatility_exposure")
				if exposure > limit {
					fail(policy.PositionVolatility, contracts.RuleR9, "volatility-weighted exposure exceeds max_position_volatility")
				}
			}
		}
	}

	// R10 — placeholder, disabled unless correlation data present
	if policy.CorrelationExposure.Enabled && in.Correlation != nil {
		metrics["correlation_exposure"] = *in.Correlation
		if *in.Correlation > policy.AdvancedRules.MaxCorrelationExposure {
			fail(policy.CorrelationExposure, contracts.RuleR10, "correlation-based exposure exceeds max_correlation_exposure")
		}
	}

	// R11 — drawdown; exceeding is a BLOCKER violation on this decision
	// only. Evaluate has no side effects of its own — evaluate_risk calls
	// it read-only — so it never activates the kill switch itself.
	if policy.Drawdown.Enabled && e.volMon != nil {
		drawdown := e.volMon.CurrentDrawdownPct()
		metrics["drawdown_pct"] = drawdown
		warnNear(drawdown/policy.AdvancedRules.MaxDrawdownPct, "R11 drawdown_pct")
		if drawdown > policy.AdvancedRules.MaxDrawdownPct {
			fail(policy.Drawdown, contracts.RuleR11, "current drawdown exceeds max_drawdown_pct")
		}
	}

	// R12 — session edge
	if policy.SessionEdge.Enabled && e.session != nil {
		if e.session.NearSessionEdge(in.Now, policy.TradingHours.SessionEdgeMinutes) {
			fail(policy.SessionEdge, contracts.RuleR12, "within session-edge window of open/close")
		}
	}

	switch {
	case hasBlockerViolation(violated, policy):
		return contracts.RiskDecision{
			Decision: contracts.RiskReject, Reason: "one or more blocking rules failed",
			ViolatedRules: violated, Warnings: warnings, Metrics: metrics,
		}
	case manualReview:
		return contracts.RiskDecision{
			Decision: contracts.RiskManualReview, Reason: "one or more major rules failed, routing to manual review",
			ViolatedRules: violated, Warnings: warnings, Metrics: metrics,
		}
	case len(violated) > 0:
		return contracts.RiskDecision{
			Decision: contracts.RiskReject, Reason: "one or more rules failed",
			ViolatedRules: violated, Warnings: warnings, Metrics: metrics,
		}
	default:
		return contracts.RiskDecision{
			Decision: contracts.RiskApprove, Reason: "all enabled rules passed",
			Warnings: warnings, Metrics: metrics,
		}
	}
}

func hasBlockerViolation(violated []contracts.RuleID, policy Policy) bool {
	ruleSeverity := map[contracts.RuleID]Severity{
		contracts.RuleR1:  policy.MaxNotionalPerTrade.Severity,
		contracts.RuleR2:  policy.MaxPositionWeight.Severity,
		contracts.RuleR3:  policy.MaxSectorWeight.Severity,
		contracts.RuleR4:  policy.MaxSlippageBps.Severity,
		contracts.RuleR5:  policy.TradingWindow.Severity,
		contracts.RuleR6:  policy.MinLiquidity.Severity,
		contracts.RuleR7:  policy.MaxDailyTrades.Severity,
		contracts.RuleR8:  policy.MaxDailyLoss.Severity,
		contracts.RuleR9:  policy.PositionVolatility.Severity,
		contracts.RuleR10: policy.CorrelationExposure.Severity,
		contracts.RuleR11: policy.Drawdown.Severity,
		contracts.RuleR12: policy.SessionEdge.Severity,
	}
	for _, id := range violated {
		if ruleSeverity[id] == SeverityBlocker {
			return true
		}
	}
	return false
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
