// Package autoapproval implements the optional Auto-Approval Policy: a
// conservative allowlist conjunction consulted by internal/approval at
// request() time, substituting a generated token for a human grant when
// every clause matches.
package autoapproval

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/contracts"
)

// DCASchedule names a recurring dollar-cost-average strategy tag that is
// eligible for auto-approval regardless of how the order was triggered,
// as long as every other clause of the conjunction also holds.
type DCASchedule struct {
	StrategyTag string `yaml:"strategy_tag"`
}

// Window is a daily local-time range, inclusive of both ends, during
// which auto-approval is permitted. Matches internal/calendar's
// minute-of-day convention.
type Window struct {
	Timezone   string `yaml:"timezone"`
	OpenMinute int    `yaml:"open_minute"`
	CloseMinute int   `yaml:"close_minute"`
}

// Config is the full Auto-Approval Policy configuration. Enabled mirrors
// the AUTO_APPROVAL environment variable; MaxNotional mirrors
// AUTO_APPROVAL_MAX_NOTIONAL.
type Config struct {
	Enabled bool

	SymbolAllowlist []string `yaml:"symbol_allowlist"`
	SymbolBlocklist []string `yaml:"symbol_blocklist"`

	InstrumentAllowlist []contracts.InstrumentType `yaml:"instrument_allowlist"`
	OrderTypeAllowlist  []contracts.OrderType      `yaml:"order_type_allowlist"`

	Window Window `yaml:"window"`

	DCASchedules []DCASchedule `yaml:"dca_schedules"`

	MaxPositionWeightPct float64         `yaml:"max_position_weight_pct"`
	MaxNotional          decimal.Decimal `yaml:"max_notional"`
}

// DefaultConfig returns a conservative default: LMT orders only,
// no symbol restriction beyond the caller-supplied allowlist, a 10%
// post-trade position-weight ceiling, and the $1,000 notional threshold.
func DefaultConfig() Config {
	return Config{
		Enabled:              false,
		InstrumentAllowlist:  []contracts.InstrumentType{contracts.InstrumentSTK, contracts.InstrumentETF},
		OrderTypeAllowlist:   []contracts.OrderType{contracts.OrderLimit},
		Window:               Window{Timezone: "America/New_York", OpenMinute: 570, CloseMinute: 960},
		MaxPositionWeightPct: 0.10,
		MaxNotional:          decimal.NewFromInt(1000),
	}
}

func containsSymbol(list []string, symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range list {
		if strings.ToUpper(strings.TrimSpace(s)) == symbol {
			return true
		}
	}
	return false
}

func containsInstrument(list []contracts.InstrumentType, t contracts.InstrumentType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsOrderType(list []contracts.OrderType, t contracts.OrderType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsTag(schedules []DCASchedule, tag string) bool {
	if tag == "" {
		return false
	}
	for _, s := range schedules {
		if s.StrategyTag == tag {
			return true
		}
	}
	return false
}

func inWindow(w Window, now time.Time) bool {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()
	return minute >= w.OpenMinute && minute <= w.CloseMinute
}
