// Package risk implements the twelve-rule deterministic pre-trade policy
// evaluator (R1-R12), loaded from a hot-reloadable YAML policy file, with
// inputs supplied by internal/edgestability and internal/calendar for the
// rules that need volatility and session-window context.
package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Severity controls whether a failing rule blocks (REJECT), forces a
// human in the loop (MANUAL_REVIEW), or only warns.
type Severity string

const (
	SeverityBlocker Severity = "BLOCKER"
	SeverityMajor   Severity = "MAJOR"
	SeverityMinor   Severity = "MINOR"
)

// RuleConfig is the shared shape of every R1-R12 entry.
type RuleConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Limit    float64  `yaml:"limit"`
	Severity Severity `yaml:"severity"`
}

// TradingHours configures R5/R12's session window.
type TradingHours struct {
	Timezone            string `yaml:"timezone"`
	OpenMinute          int    `yaml:"open_minute"`
	CloseMinute         int    `yaml:"close_minute"`
	AllowExtendedHours  bool   `yaml:"allow_extended_hours"`
	SessionEdgeMinutes  int    `yaml:"session_edge_minutes"`
	NewsBlackoutBeforeMinutes int `yaml:"news_blackout_before_minutes"`
	NewsBlackoutAfterMinutes  int `yaml:"news_blackout_after_minutes"`
}

// AdvancedRules configures R9-R12, the rules with optional/placeholder inputs.
type AdvancedRules struct {
	MaxPositionVolatility float64 `yaml:"max_position_volatility"`
	MaxCorrelationExposure float64 `yaml:"max_correlation_exposure"`
	MaxDrawdownPct        float64 `yaml:"max_drawdown_pct"`
}

// VolatilityProvider selects where R9's symbol_volatility figure comes
// from; "edgestability" (the default) consults internal/edgestability's
// rolling-window monitor, "none" disables R9 entirely.
type VolatilityProvider struct {
	Source string `yaml:"source"`
}

// Policy is the full YAML-driven rule set.
type Policy struct {
	MaxNotionalPerTrade RuleConfig `yaml:"max_notional_per_trade"`
	MaxPositionWeight   RuleConfig `yaml:"max_position_weight"`
	MaxSectorWeight     RuleConfig `yaml:"max_sector_weight"`
	MaxSlippageBps      RuleConfig `yaml:"max_slippage_bps"`
	TradingWindow       RuleConfig `yaml:"trading_window"`
	MinLiquidity        RuleConfig `yaml:"min_liquidity"`
	MaxDailyTrades      RuleConfig `yaml:"max_daily_trades"`
	MaxDailyLoss        RuleConfig `yaml:"max_daily_loss"`
	PositionVolatility  RuleConfig `yaml:"position_volatility"`
	CorrelationExposure RuleConfig `yaml:"correlation_exposure"`
	Drawdown            RuleConfig `yaml:"drawdown"`
	SessionEdge         RuleConfig `yaml:"session_edge"`

	TradingHours       TradingHours       `yaml:"trading_hours"`
	AdvancedRules      AdvancedRules      `yaml:"advanced_rules"`
	VolatilityProvider VolatilityProvider `yaml:"volatility_provider"`

	WarningThresholdPct float64 `yaml:"warning_threshold_pct"`
}

// DefaultPolicy returns the conservative default limits, all rules enabled.
func DefaultPolicy() Policy {
	return Policy{
		MaxNotionalPerTrade: RuleConfig{Enabled: true, Limit: 50000, Severity: SeverityBlocker},
		MaxPositionWeight:   RuleConfig{Enabled: true, Limit: 0.10, Severity: SeverityBlocker},
		MaxSectorWeight:     RuleConfig{Enabled: true, Limit: 0.30, Severity: SeverityMajor},
		MaxSlippageBps:      RuleConfig{Enabled: true, Limit: 50, Severity: SeverityMajor},
		TradingWindow:       RuleConfig{Enabled: true, Severity: SeverityBlocker},
		MinLiquidity:        RuleConfig{Enabled: true, Severity: SeverityMinor},
		MaxDailyTrades:      RuleConfig{Enabled: true, Limit: 50, Severity: SeverityMajor},
		MaxDailyLoss:        RuleConfig{Enabled: true, Limit: 5000, Severity: SeverityBlocker},
		PositionVolatility:  RuleConfig{Enabled: true, Severity: SeverityMajor},
		CorrelationExposure: RuleConfig{Enabled: false, Severity: SeverityMinor},
		Drawdown:            RuleConfig{Enabled: true, Severity: SeverityBlocker},
		SessionEdge:         RuleConfig{Enabled: true, Severity: SeverityMinor},

		TradingHours: TradingHours{
			Timezone: "America/New_York", OpenMinute: 9*60 + 30, CloseMinute: 16 * 60,
			SessionEdgeMinutes: 5, NewsBlackoutBeforeMinutes: 10, NewsBlackoutAfterMinutes: 10,
		},
		AdvancedRules: AdvancedRules{
			MaxPositionVolatility: 0.40, MaxCorrelationExposure: 0.50, MaxDrawdownPct: 20,
		},
		VolatilityProvider:  VolatilityProvider{Source: "edgestability"},
		WarningThresholdPct: 0.80,
	}
}

// Validate rejects a policy with nonsensical limits before it is allowed
// to take effect — a bad policy file never overwrites a good one.
func (p Policy) Validate() error {
	if p.MaxNotionalPerTrade.Enabled && p.MaxNotionalPerTrade.Limit <= 0 {
		return fmt.Errorf("risk: max_notional_per_trade.limit must be > 0")
	}
	if p.MaxPositionWeight.Enabled && (p.MaxPositionWeight.Limit <= 0 || p.MaxPositionWeight.Limit > 1) {
		return fmt.Errorf("risk: max_position_weight.limit must be in (0,1]")
	}
	if p.TradingHours.CloseMinute <= p.TradingHours.OpenMinute {
		return fmt.Errorf("risk: trading_hours.close_minute must be after open_minute")
	}
	return nil
}

// LoadPolicy reads and validates a Policy from a YAML file at path.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("risk: read policy file: %w", err)
	}
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("risk: parse policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}
