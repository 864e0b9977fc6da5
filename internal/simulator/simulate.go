package simulator

import (
	"github.com/shopspring/decimal"

	"tradegate/internal/contracts"
)

var (
	zero = decimal.Zero
	tenK = decimal.NewFromInt(10000)
)

// Simulate projects intent's effect on portfolio given snapshot, using
// cfg's constants. Deterministic: identical inputs always produce
// identical decimal values.
func Simulate(portfolio contracts.Portfolio, snapshot *contracts.MarketSnapshot, intent contracts.OrderIntent, cfg Config) contracts.SimulationResult {
	if intent.Quantity.LessThanOrEqual(zero) {
		return contracts.SimulationResult{
			Status:       contracts.SimInvalidQuantity,
			ErrorMessage: "quantity must be greater than zero",
		}
	}
	if snapshot == nil {
		return contracts.SimulationResult{
			Status:       contracts.SimPriceUnavailable,
			ErrorMessage: "no market snapshot available for " + intent.Instrument.Symbol,
		}
	}

	execPrice := executionPrice(intent, *snapshot)
	gross := intent.Quantity.Mul(execPrice)

	var slippage decimal.Decimal
	var slippageBps decimal.Decimal
	if intent.OrderType == contracts.OrderMarket {
		slippage, slippageBps = marketSlippage(gross, cfg)
	}

	fee := tradeFee(intent.Quantity, gross, cfg)

	var warnings []string
	if intent.OrderType == contracts.OrderMarket {
		warnings = append(warnings, "market order: slippage is unbounded")
	}
	if slippageBps.GreaterThan(decimal.NewFromInt(20)) {
		warnings = append(warnings, "estimated slippage exceeds 20 bps")
	}
	if gross.GreaterThan(decimal.NewFromInt(50000)) {
		warnings = append(warnings, "large trade: gross notional exceeds $50,000")
	}

	if intent.Constraints.MaxSlippageBps > 0 && slippageBps.GreaterThan(decimal.NewFromInt(int64(intent.Constraints.MaxSlippageBps))) {
		return contracts.SimulationResult{
			Status:            contracts.SimConstraintViolated,
			ExecutionPrice:    execPrice,
			GrossNotional:     gross,
			EstimatedFee:      fee,
			EstimatedSlippage: slippage,
			Warnings:          warnings,
			ErrorMessage:      "slippage exceeds max_slippage_bps constraint",
		}
	}
	if intent.Constraints.MaxNotional.GreaterThan(zero) && gross.GreaterThan(intent.Constraints.MaxNotional) {
		return contracts.SimulationResult{
			Status:            contracts.SimConstraintViolated,
			ExecutionPrice:    execPrice,
			GrossNotional:     gross,
			EstimatedFee:      fee,
			EstimatedSlippage: slippage,
			Warnings:          warnings,
			ErrorMessage:      "gross notional exceeds max_notional constraint",
		}
	}

	var net decimal.Decimal
	if intent.Side == contracts.SideBuy {
		net = gross.Add(fee).Add(slippage)
	} else {
		net = gross.Sub(fee).Sub(slippage)
	}

	cashBefore := portfolio.Cash[intent.Instrument.Currency]
	if cashBefore.IsZero() && intent.Instrument.Currency == "" {
		cashBefore = portfolio.Cash["USD"]
	}

	var cashAfter decimal.Decimal
	if intent.Side == contracts.SideBuy {
		cashAfter = cashBefore.Sub(net)
	} else {
		cashAfter = cashBefore.Add(net)
	}

	if intent.Side == contracts.SideBuy && cashAfter.LessThan(zero) {
		return contracts.SimulationResult{
			Status:            contracts.SimInsufficientCash,
			ExecutionPrice:    execPrice,
			GrossNotional:     gross,
			EstimatedFee:      fee,
			EstimatedSlippage: slippage,
			NetNotional:       net,
			CashBefore:        cashBefore,
			CashAfter:         cashAfter,
			Warnings:          warnings,
			ErrorMessage:      "insufficient cash to cover net notional",
		}
	}

	exposureBefore := zero
	if pos, ok := portfolio.PositionFor(intent.Instrument.Symbol); ok {
		exposureBefore = pos.MarketValue
	}
	var exposureAfter decimal.Decimal
	if intent.Side == contracts.SideBuy {
		exposureAfter = exposureBefore.Add(gross)
	} else {
		exposureAfter = exposureBefore.Sub(gross)
	}

	return contracts.SimulationResult{
		Status:            contracts.SimSuccess,
		ExecutionPrice:    execPrice,
		GrossNotional:     gross,
		EstimatedFee:      fee,
		EstimatedSlippage: slippage,
		NetNotional:       net,
		CashBefore:        cashBefore,
		CashAfter:         cashAfter,
		ExposureBefore:    exposureBefore,
		ExposureAfter:     exposureAfter,
		Warnings:          warnings,
	}
}

func executionPrice(intent contracts.OrderIntent, snapshot contracts.MarketSnapshot) decimal.Decimal {
	switch intent.OrderType {
	case contracts.OrderLimit:
		if intent.LimitPrice != nil {
			return *intent.LimitPrice
		}
		return snapshot.Mid()
	case contracts.OrderStop, contracts.OrderStopLimit:
		if intent.Side == contracts.SideBuy {
			return snapshot.Ask
		}
		return snapshot.Bid
	default: // OrderMarket
		if intent.Side == contracts.SideBuy {
			return snapshot.Ask
		}
		return snapshot.Bid
	}
}

// marketSlippage returns (slippage_usd, slippage_bps) for a market order
// of the given gross notional.
func marketSlippage(gross decimal.Decimal, cfg Config) (decimal.Decimal, decimal.Decimal) {
	baseBps := decimal.NewFromInt(int64(cfg.BaseSlippageBps))
	base := gross.Mul(baseBps).Div(tenK)

	liquidityProxy := decimal.NewFromFloat(cfg.LiquidityProxy)
	impactFactor := decimal.NewFromFloat(cfg.MarketImpactFactor)
	impact := gross.Div(liquidityProxy).Mul(impactFactor)

	slippage := base.Add(impact)
	if gross.IsZero() {
		return slippage, zero
	}
	slippageBps := slippage.Div(gross).Mul(tenK)
	return slippage, slippageBps
}

// tradeFee returns clamp(max(min_fee, quantity*per_share_rate), 0, gross*max_fee_fraction).
func tradeFee(quantity, gross decimal.Decimal, cfg Config) decimal.Decimal {
	minFee := decimal.NewFromFloat(cfg.MinFee)
	perShare := decimal.NewFromFloat(cfg.PerShareRate)
	maxFeeFraction := decimal.NewFromFloat(cfg.MaxFeeFraction)

	fee := quantity.Mul(perShare)
	if fee.LessThan(minFee) {
		fee = minFee
	}

	upperBound := gross.Mul(maxFeeFraction)
	if fee.GreaterThan(upperBound) {
		fee = upperBound
	}
	if fee.LessThan(zero) {
		fee = zero
	}
	return fee
}
