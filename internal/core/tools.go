package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/broker"
	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
	"tradegate/internal/risk"
	"tradegate/internal/simulator"
	"tradegate/internal/toolgateway"
)

// RegisterTools binds every tool in the gateway's tool surface to its
// Gateway handler. Read-only tools call straight through to the broker
// adapter; gated-write tools call through the approval/cancelmodify
// services, which themselves enforce the kill switch and state machine.
func RegisterTools(c *Core) {
	g := c.ToolGateway

	g.Register("portfolio", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.PortfolioArgs)
		return c.Broker.GetPortfolio(ctx, args.AccountID)
	})
	g.Register("positions", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.PortfolioArgs)
		return c.Broker.GetPositions(ctx, args.AccountID)
	})
	g.Register("cash", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.PortfolioArgs)
		portfolio, err := c.Broker.GetPortfolio(ctx, args.AccountID)
		if err != nil {
			return nil, err
		}
		return portfolio.Cash, nil
	})
	g.Register("open_orders", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.OpenOrdersArgs)
		return c.Broker.GetOpenOrders(ctx, args.AccountID)
	})
	g.Register("market_snapshot", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.MarketSnapshotArgs)
		instrument, err := c.Broker.InstrumentResolve(ctx, args.Symbol)
		if err != nil {
			return nil, err
		}
		return c.Broker.GetMarketSnapshot(ctx, instrument)
	})
	g.Register("market_bars", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.MarketBarsArgs)
		instrument, err := c.Broker.InstrumentResolve(ctx, args.Symbol)
		if err != nil {
			return nil, err
		}
		return c.Broker.GetMarketBars(ctx, instrument, broker.Timeframe(args.Timeframe), args.Limit)
	})
	g.Register("instrument_search", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.InstrumentSearchArgs)
		return c.Broker.InstrumentSearch(ctx, args.Query, broker.SearchFilters{})
	})
	g.Register("instrument_resolve", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.InstrumentResolveArgs)
		return c.Broker.InstrumentResolve(ctx, args.Hint)
	})
	g.Register("simulate_order", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.SimulateOrderArgs)
		intent, err := buildIntent(args.AccountID, args.Symbol, args.Side, args.OrderType, args.Quantity, args.LimitPrice, args.StopPrice, "simulation")
		if err != nil {
			return nil, err
		}
		portfolio, err := c.Broker.GetPortfolio(ctx, args.AccountID)
		if err != nil {
			return nil, err
		}
		snapshot, err := c.Broker.GetMarketSnapshot(ctx, intent.Instrument)
		if err != nil {
			return nil, err
		}
		return simulator.Simulate(portfolio, &snapshot, intent, c.SimulatorConfig), nil
	})
	g.Register("evaluate_risk", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.EvaluateRiskArgs)
		intent, err := buildIntent(args.AccountID, args.Symbol, args.Side, string(contracts.OrderMarket), args.Quantity, "", "", "risk_check")
		if err != nil {
			return nil, err
		}
		portfolio, err := c.Broker.GetPortfolio(ctx, args.AccountID)
		if err != nil {
			return nil, err
		}
		snapshot, err := c.Broker.GetMarketSnapshot(ctx, intent.Instrument)
		if err != nil {
			return nil, err
		}
		simulation := simulator.Simulate(portfolio, &snapshot, intent, c.SimulatorConfig)
		return c.RiskEvaluator.Evaluate(risk.Inputs{
			Intent:            intent,
			Portfolio:         portfolio,
			Simulation:        simulation,
			Now:               time.Now().UTC(),
			KillSwitchEnabled: c.KillSwitch.IsEnabled(),
		}), nil
	})
	g.Register("request_approval", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.RequestApprovalArgs)
		intent, err := buildIntent(args.AccountID, args.Symbol, args.Side, args.OrderType, args.Quantity, "", "", args.Reason)
		if err != nil {
			return nil, err
		}

		portfolio, err := c.Broker.GetPortfolio(ctx, intent.AccountID)
		if err != nil {
			return nil, err
		}
		snapshot, err := c.Broker.GetMarketSnapshot(ctx, intent.Instrument)
		if err != nil {
			return nil, err
		}
		simulation := simulator.Simulate(portfolio, &snapshot, intent, c.SimulatorConfig)

		decision := c.RiskEvaluator.Evaluate(risk.Inputs{
			Intent:            intent,
			Portfolio:         portfolio,
			Simulation:        simulation,
			Now:               time.Now().UTC(),
			KillSwitchEnabled: c.KillSwitch.IsEnabled(),
		})
		if decision.Decision == contracts.RiskReject {
			return nil, coreerr.Policyf("request_approval: risk gate rejected: %s", decision.Reason)
		}

		proposal, err := c.Approval.CreateWithEvaluation(ctx, intent, simulation, decision)
		if err != nil {
			return nil, err
		}
		if proposal.State != contracts.StateRiskApproved {
			return nil, coreerr.Newf(coreerr.State, "request_approval: proposal %s is %s, not risk-approved", proposal.ProposalID, proposal.State)
		}

		proposal, _, err = c.Approval.Request(ctx, proposal.ProposalID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"proposal_id": proposal.ProposalID}, nil
	})
	g.Register("request_order_cancel", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.RequestOrderCancelArgs)
		return c.CancelModify.RequestCancel(ctx, args.BrokerOrderID, args.Reason)
	})
	g.Register("request_order_modify", func(ctx context.Context, a any) (any, error) {
		args := a.(*toolgateway.RequestOrderModifyArgs)
		newQty, err := optionalDecimal(args.NewQuantity)
		if err != nil {
			return nil, err
		}
		newLimit, err := optionalDecimal(args.NewLimitPrice)
		if err != nil {
			return nil, err
		}
		newStop, err := optionalDecimal(args.NewStopPrice)
		if err != nil {
			return nil, err
		}
		return c.CancelModify.RequestModify(ctx, args.BrokerOrderID, newQty, newLimit, newStop, args.Reason)
	})
}

func buildIntent(accountID, symbol, side, orderType, quantity, limitPrice, stopPrice, reason string) (contracts.OrderIntent, error) {
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return contracts.OrderIntent{}, fmt.Errorf("core: invalid quantity %q: %w", quantity, err)
	}
	limit, err := optionalDecimalString(limitPrice)
	if err != nil {
		return contracts.OrderIntent{}, err
	}
	stop, err := optionalDecimalString(stopPrice)
	if err != nil {
		return contracts.OrderIntent{}, err
	}
	return contracts.OrderIntent{
		AccountID: accountID,
		Instrument: contracts.Instrument{
			Symbol: symbol,
			Type:   contracts.InstrumentSTK,
		},
		Side:        contracts.Side(side),
		OrderType:   contracts.OrderType(orderType),
		Quantity:    qty,
		LimitPrice:  limit,
		StopPrice:   stop,
		TimeInForce: contracts.TIFDay,
		Reason:      reason,
	}, nil
}

func optionalDecimalString(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	return optionalDecimal(s)
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("core: invalid decimal %q: %w", s, err)
	}
	return &d, nil
}
