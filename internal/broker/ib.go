package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofinance/ib"

	"tradegate/internal/contracts"
)

// IBConfig holds Interactive Brokers Gateway/TWS connection settings.
type IBConfig struct {
	Host     string
	Port     int
	ClientID int64
	ReadOnly bool
}

// IBBroker implements Broker against an IB Gateway/TWS connection via
// ib.Engine's message send/receive loop.
type IBBroker struct {
	mu        sync.RWMutex
	engine    *ib.Engine
	connected bool
	readOnly  bool
	nextOrderID int64
}

// NewIBBroker connects to IB Gateway/TWS at cfg.Host:cfg.Port.
func NewIBBroker(cfg IBConfig) (*IBBroker, error) {
	engine, err := ib.NewEngine(ib.EngineOptions{
		Gateway:  fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ClientID: cfg.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("ib: connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &IBBroker{engine: engine, connected: true, readOnly: cfg.ReadOnly}, nil
}

func (b *IBBroker) Name() string { return "ib" }

func (b *IBBroker) GetPortfolio(_ context.Context, accountID string) (contracts.Portfolio, error) {
	// IB reports account values and positions asynchronously via the
	// engine's message stream. This adapter sets up no AccountUpdate/
	// Position subscription, so GetPortfolio always returns an error.
	return contracts.Portfolio{}, fmt.Errorf("ib: GetPortfolio requires an active account update subscription")
}

func (b *IBBroker) GetPositions(ctx context.Context, accountID string) ([]contracts.Position, error) {
	p, err := b.GetPortfolio(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return p.Positions, nil
}

func (b *IBBroker) GetOpenOrders(_ context.Context, _ string) ([]contracts.OpenOrder, error) {
	return nil, fmt.Errorf("ib: GetOpenOrders requires an active OpenOrder subscription")
}

func (b *IBBroker) GetMarketSnapshot(_ context.Context, instrument contracts.Instrument) (contracts.MarketSnapshot, error) {
	return contracts.MarketSnapshot{}, fmt.Errorf("ib: GetMarketSnapshot requires a market data subscription for %s", instrument.Symbol)
}

func (b *IBBroker) GetMarketBars(_ context.Context, instrument contracts.Instrument, _ Timeframe, _ int) ([]contracts.Bar, error) {
	return nil, fmt.Errorf("ib: GetMarketBars requires historical data request for %s", instrument.Symbol)
}

func (b *IBBroker) InstrumentSearch(_ context.Context, query string, _ SearchFilters) ([]contracts.Candidate, error) {
	return nil, fmt.Errorf("ib: InstrumentSearch requires a contract details request for %q", query)
}

func (b *IBBroker) InstrumentResolve(_ context.Context, hint string) (contracts.Instrument, error) {
	return contracts.Instrument{}, fmt.Errorf("ib: InstrumentResolve requires a contract details request for %q", hint)
}

func (b *IBBroker) SubmitOrder(_ context.Context, intent contracts.OrderIntent, token string) (contracts.OpenOrder, error) {
	if b.readOnly {
		return contracts.OpenOrder{}, &ReadOnlyError{Op: "submit_order"}
	}
	if token == "" {
		return contracts.OpenOrder{}, fmt.Errorf("ib: submit_order requires a token")
	}

	contract := ib.Contract{
		Symbol:       intent.Instrument.Symbol,
		SecurityType: ibSecurityType(intent.Instrument.Type),
		Exchange:     orDefault(intent.Instrument.Exchange, "SMART"),
		Currency:     orDefault(intent.Instrument.Currency, "USD"),
	}
	qty, _ := intent.Quantity.Float64()
	order := ib.Order{
		Action:    ibAction(intent.Side),
		TotalQty:  qty,
		OrderType: ibOrderType(intent.OrderType),
		Tif:       string(intent.TimeInForce),
	}
	if intent.LimitPrice != nil {
		lp, _ := intent.LimitPrice.Float64()
		order.LimitPrice = lp
	}
	if intent.StopPrice != nil {
		sp, _ := intent.StopPrice.Float64()
		order.AuxPrice = sp
	}

	b.mu.Lock()
	b.nextOrderID++
	orderID := b.nextOrderID
	b.mu.Unlock()

	placeOrder := &ib.PlaceOrder{
		OrderID:  ib.OrderID(orderID),
		Contract: contract,
		Order:    order,
	}
	if err := b.engine.Send(placeOrder); err != nil {
		return contracts.OpenOrder{}, fmt.Errorf("ib: send place order: %w", err)
	}

	return contracts.OpenOrder{
		BrokerOrderID: fmt.Sprintf("%d", orderID),
		AccountID:     intent.AccountID,
		Instrument:    intent.Instrument,
		Side:          intent.Side,
		OrderType:     intent.OrderType,
		Quantity:      intent.Quantity,
		Status:        contracts.BrokerOrderOpen,
		SubmittedAt:   time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

func (b *IBBroker) CancelOrder(_ context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	if b.readOnly {
		return contracts.OpenOrder{}, &ReadOnlyError{Op: "cancel_order"}
	}
	var id int64
	if _, err := fmt.Sscanf(brokerOrderID, "%d", &id); err != nil {
		return contracts.OpenOrder{}, fmt.Errorf("ib: invalid order id %q: %w", brokerOrderID, err)
	}
	if err := b.engine.Send(&ib.CancelOrder{OrderID: ib.OrderID(id)}); err != nil {
		return contracts.OpenOrder{}, fmt.Errorf("ib: send cancel order: %w", err)
	}
	return contracts.OpenOrder{BrokerOrderID: brokerOrderID, Status: contracts.BrokerOrderCancelled, UpdatedAt: time.Now().UTC()}, nil
}

func (b *IBBroker) GetOrderStatus(_ context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	return contracts.OpenOrder{}, fmt.Errorf("ib: GetOrderStatus requires an active OrderStatus subscription for %s", brokerOrderID)
}

func (b *IBBroker) HealthCheck(_ context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return fmt.Errorf("ib: not connected")
	}
	return nil
}

func ibSecurityType(t contracts.InstrumentType) string {
	switch t {
	case contracts.InstrumentFUT:
		return "FUT"
	case contracts.InstrumentFX:
		return "CASH"
	default:
		return "STK"
	}
}

func ibAction(s contracts.Side) string {
	if s == contracts.SideSell {
		return "SELL"
	}
	return "BUY"
}

func ibOrderType(t contracts.OrderType) string {
	switch t {
	case contracts.OrderLimit:
		return "LMT"
	case contracts.OrderStop:
		return "STP"
	case contracts.OrderStopLimit:
		return "STP LMT"
	default:
		return "MKT"
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
