package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"tradegate/internal/contracts"
)

// AlpacaConfig holds Alpaca API credentials and endpoint selection.
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string // trading API base URL; paper vs live is selected here
	ReadOnly  bool
}

// AlpacaBroker implements Broker against Alpaca's trading and market data
// APIs, combining the trading client for portfolio/order calls with the
// market data client for snapshots and bars.
type AlpacaBroker struct {
	trading *alpaca.Client
	data    *marketdata.Client
	readOnly bool
}

// NewAlpacaBroker builds an AlpacaBroker from cfg.
func NewAlpacaBroker(cfg AlpacaConfig) *AlpacaBroker {
	return &AlpacaBroker{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.BaseURL,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
		}),
		readOnly: cfg.ReadOnly,
	}
}

func (b *AlpacaBroker) Name() string { return "alpaca" }

func (b *AlpacaBroker) GetPortfolio(_ context.Context, accountID string) (contracts.Portfolio, error) {
	acct, err := b.trading.GetAccount()
	if err != nil {
		return contracts.Portfolio{}, fmt.Errorf("alpaca: get account: %w", err)
	}
	positions, err := b.trading.GetPositions()
	if err != nil {
		return contracts.Portfolio{}, fmt.Errorf("alpaca: get positions: %w", err)
	}

	out := contracts.Portfolio{
		AccountID:  accountID,
		TotalValue: acct.Equity,
		Cash:       map[string]decimal.Decimal{"USD": acct.Cash},
		Timestamp:  time.Now().UTC(),
	}
	for _, p := range positions {
		out.Positions = append(out.Positions, contracts.Position{
			Instrument:    contracts.Instrument{Symbol: p.Symbol, Type: contracts.InstrumentSTK},
			Quantity:      p.Qty,
			AverageCost:   p.AvgEntryPrice,
			MarketValue:   p.MarketValue,
			UnrealizedPnL: p.UnrealizedPL,
		})
	}
	return out, nil
}

func (b *AlpacaBroker) GetPositions(ctx context.Context, accountID string) ([]contracts.Position, error) {
	p, err := b.GetPortfolio(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return p.Positions, nil
}

func (b *AlpacaBroker) GetOpenOrders(_ context.Context, _ string) ([]contracts.OpenOrder, error) {
	orders, err := b.trading.GetOrders(alpaca.GetOrdersRequest{Status: "open"})
	if err != nil {
		return nil, fmt.Errorf("alpaca: get orders: %w", err)
	}
	out := make([]contracts.OpenOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, alpacaOrderToOpenOrder(o))
	}
	return out, nil
}

func (b *AlpacaBroker) GetMarketSnapshot(_ context.Context, instrument contracts.Instrument) (contracts.MarketSnapshot, error) {
	snap, err := b.data.GetSnapshot(instrument.Symbol, marketdata.GetSnapshotRequest{})
	if err != nil {
		return contracts.MarketSnapshot{}, fmt.Errorf("alpaca: get snapshot: %w", err)
	}
	if snap == nil || snap.LatestTrade == nil {
		return contracts.MarketSnapshot{}, fmt.Errorf("alpaca: no snapshot data for %s", instrument.Symbol)
	}

	out := contracts.MarketSnapshot{
		Instrument: instrument,
		Last:       decimal.NewFromFloat(snap.LatestTrade.Price),
		Timestamp:  snap.LatestTrade.Timestamp,
	}
	if snap.LatestQuote != nil {
		out.Bid = decimal.NewFromFloat(snap.LatestQuote.BidPrice)
		out.Ask = decimal.NewFromFloat(snap.LatestQuote.AskPrice)
	}
	if snap.DailyBar != nil {
		out.Volume = int64(snap.DailyBar.Volume)
		out.OHLC = contracts.OHLC{
			Open:  decimal.NewFromFloat(snap.DailyBar.Open),
			High:  decimal.NewFromFloat(snap.DailyBar.High),
			Low:   decimal.NewFromFloat(snap.DailyBar.Low),
			Close: decimal.NewFromFloat(snap.DailyBar.Close),
		}
	}
	if snap.PrevDailyBar != nil {
		out.PrevClose = decimal.NewFromFloat(snap.PrevDailyBar.Close)
	}
	return out, nil
}

func (b *AlpacaBroker) GetMarketBars(_ context.Context, instrument contracts.Instrument, timeframe Timeframe, limit int) ([]contracts.Bar, error) {
	tf, err := alpacaTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	end := time.Now()
	start := end.AddDate(0, 0, -limit*2)

	bars, err := b.data.GetBars(instrument.Symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca: get bars: %w", err)
	}

	out := make([]contracts.Bar, 0, len(bars))
	for _, bar := range bars {
		out = append(out, contracts.Bar{
			Timestamp: bar.Timestamp,
			OHLC: contracts.OHLC{
				Open:  decimal.NewFromFloat(bar.Open),
				High:  decimal.NewFromFloat(bar.High),
				Low:   decimal.NewFromFloat(bar.Low),
				Close: decimal.NewFromFloat(bar.Close),
			},
			Volume: int64(bar.Volume),
		})
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (b *AlpacaBroker) InstrumentSearch(_ context.Context, query string, filters SearchFilters) ([]contracts.Candidate, error) {
	assets, err := b.trading.GetAssets(alpaca.GetAssetsRequest{Status: "active"})
	if err != nil {
		return nil, fmt.Errorf("alpaca: list assets: %w", err)
	}
	var out []contracts.Candidate
	for _, a := range assets {
		score := fuzzyScore(query, a.Symbol)
		if score < 0.5 {
			continue
		}
		inst := contracts.Instrument{Symbol: a.Symbol, Type: contracts.InstrumentSTK, Exchange: a.Exchange}
		if filters.InstrumentType != "" && filters.InstrumentType != inst.Type {
			continue
		}
		out = append(out, contracts.Candidate{Instrument: inst, Name: a.Name, Score: score})
	}
	return out, nil
}

func (b *AlpacaBroker) InstrumentResolve(_ context.Context, hint string) (contracts.Instrument, error) {
	asset, err := b.trading.GetAsset(hint)
	if err != nil {
		return contracts.Instrument{}, fmt.Errorf("alpaca: resolve %q: %w", hint, err)
	}
	return contracts.Instrument{Symbol: asset.Symbol, Type: contracts.InstrumentSTK, Exchange: asset.Exchange}, nil
}

func (b *AlpacaBroker) SubmitOrder(_ context.Context, intent contracts.OrderIntent, token string) (contracts.OpenOrder, error) {
	if b.readOnly {
		return contracts.OpenOrder{}, &ReadOnlyError{Op: "submit_order"}
	}
	if token == "" {
		return contracts.OpenOrder{}, fmt.Errorf("alpaca: submit_order requires a token")
	}

	qty := intent.Quantity
	req := alpaca.PlaceOrderRequest{
		Symbol:      intent.Instrument.Symbol,
		Qty:         &qty,
		Side:        alpacaSide(intent.Side),
		Type:        alpacaOrderType(intent.OrderType),
		TimeInForce: alpacaTIF(intent.TimeInForce),
	}
	if intent.LimitPrice != nil {
		lp := *intent.LimitPrice
		req.LimitPrice = &lp
	}
	if intent.StopPrice != nil {
		sp := *intent.StopPrice
		req.StopPrice = &sp
	}

	order, err := b.trading.PlaceOrder(req)
	if err != nil {
		return contracts.OpenOrder{}, fmt.Errorf("alpaca: place order: %w", err)
	}
	return alpacaOrderToOpenOrder(*order), nil
}

func (b *AlpacaBroker) CancelOrder(_ context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	if b.readOnly {
		return contracts.OpenOrder{}, &ReadOnlyError{Op: "cancel_order"}
	}
	if err := b.trading.CancelOrder(brokerOrderID); err != nil {
		return contracts.OpenOrder{}, fmt.Errorf("alpaca: cancel order: %w", err)
	}
	return b.GetOrderStatus(context.Background(), brokerOrderID)
}

func (b *AlpacaBroker) GetOrderStatus(_ context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	order, err := b.trading.GetOrder(brokerOrderID)
	if err != nil {
		return contracts.OpenOrder{}, fmt.Errorf("alpaca: get order: %w", err)
	}
	return alpacaOrderToOpenOrder(*order), nil
}

func (b *AlpacaBroker) HealthCheck(_ context.Context) error {
	_, err := b.trading.GetAccount()
	return err
}

func alpacaSide(s contracts.Side) alpaca.Side {
	if s == contracts.SideSell {
		return alpaca.Sell
	}
	return alpaca.Buy
}

func alpacaOrderType(t contracts.OrderType) alpaca.OrderType {
	switch t {
	case contracts.OrderLimit:
		return alpaca.Limit
	case contracts.OrderStop:
		return alpaca.Stop
	case contracts.OrderStopLimit:
		return alpaca.StopLimit
	default:
		return alpaca.Market
	}
}

func alpacaTIF(t contracts.TimeInForce) alpaca.TimeInForce {
	switch t {
	case contracts.TIFGTC:
		return alpaca.GTC
	case contracts.TIFIOC:
		return alpaca.IOC
	case contracts.TIFFOK:
		return alpaca.FOK
	default:
		return alpaca.Day
	}
}

func alpacaTimeframe(t Timeframe) (marketdata.TimeFrame, error) {
	switch t {
	case Timeframe1Min:
		return marketdata.NewTimeFrame(1, marketdata.Min), nil
	case Timeframe5Min:
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case Timeframe1Hour:
		return marketdata.NewTimeFrame(1, marketdata.Hour), nil
	case Timeframe1Day:
		return marketdata.NewTimeFrame(1, marketdata.Day), nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("alpaca: unsupported timeframe %q", t)
	}
}

func alpacaOrderToOpenOrder(o alpaca.Order) contracts.OpenOrder {
	out := contracts.OpenOrder{
		BrokerOrderID: o.ID,
		Instrument:    contracts.Instrument{Symbol: o.Symbol, Type: contracts.InstrumentSTK},
		Side:          contracts.Side(o.Side),
		SubmittedAt:   o.SubmittedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Qty != nil {
		out.Quantity = *o.Qty
	}
	if o.FilledQty != nil {
		out.FilledQty = *o.FilledQty
	}
	switch o.Status {
	case "filled":
		out.Status = contracts.BrokerOrderFilled
	case "canceled":
		out.Status = contracts.BrokerOrderCancelled
	case "rejected", "expired":
		out.Status = contracts.BrokerOrderRejected
	default:
		out.Status = contracts.BrokerOrderOpen
	}
	return out
}
