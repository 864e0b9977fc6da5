// Package simulator implements pre-trade arithmetic: execution price,
// slippage, fees, net notional, and resulting cash/exposure — entirely
// in github.com/shopspring/decimal so identical inputs produce bit-
// identical outputs.
package simulator

import (
	"tradegate/internal/contracts"
)

// Config carries the simulator's tunable constants. DefaultConfig returns
// the stated defaults; zero-valued fields are not replaced by them.
type Config struct {
	BaseSlippageBps    int
	MarketImpactFactor float64
	LiquidityProxy     float64

	PerShareRate  float64
	MinFee        float64
	MaxFeeFraction float64
}

// DefaultConfig returns the default simulation constants.
func DefaultConfig() Config {
	return Config{
		BaseSlippageBps:    5,
		MarketImpactFactor: 0.1,
		LiquidityProxy:     10000,
		PerShareRate:       0.005,
		MinFee:             1,
		MaxFeeFraction:     0.01,
	}
}
