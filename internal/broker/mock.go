package broker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradegate/internal/contracts"
)

// MockBroker is a deterministic, seeded broker used in paper/dev mode and
// in tests. Prices are generated from a per-symbol seeded random walk so
// repeated runs with the same seed produce the same sequence of
// snapshots, following the codebase's own practice of seeding math/rand
// per test fixture for reproducible market-data mocks.
type MockBroker struct {
	mu sync.Mutex
	rnd *rand.Rand

	readOnly bool

	accounts map[string]*mockAccount
	orders   map[string]*contracts.OpenOrder
	prices   map[string]decimal.Decimal
}

type mockAccount struct {
	portfolio contracts.Portfolio
}

// NewMockBroker builds a mock broker seeded with seed, pre-populated with
// a single demo account, acc-1, holding $100,000 USD cash and no positions.
func NewMockBroker(seed int64, readOnly bool) *MockBroker {
	b := &MockBroker{
		rnd:      rand.New(rand.NewSource(seed)),
		readOnly: readOnly,
		accounts: make(map[string]*mockAccount),
		orders:   make(map[string]*contracts.OpenOrder),
		prices:   make(map[string]decimal.Decimal),
	}
	b.accounts["acc-1"] = &mockAccount{portfolio: contracts.Portfolio{
		AccountID:  "acc-1",
		TotalValue: decimal.NewFromInt(100000),
		Cash:       map[string]decimal.Decimal{"USD": decimal.NewFromInt(100000)},
	}}
	return b
}

func (b *MockBroker) Name() string { return "mock" }

// Seed primes the per-symbol base price used by GetMarketSnapshot; callers
// that want realistic fixtures for a symbol should call this once.
func (b *MockBroker) Seed(symbol string, basePrice decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[symbol] = basePrice
}

// SeedAccount installs account as the portfolio returned for accountID.
func (b *MockBroker) SeedAccount(accountID string, portfolio contracts.Portfolio) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[accountID] = &mockAccount{portfolio: portfolio}
}

func (b *MockBroker) GetPortfolio(_ context.Context, accountID string) (contracts.Portfolio, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[accountID]
	if !ok {
		return contracts.Portfolio{}, fmt.Errorf("broker: unknown account %q", accountID)
	}
	return acc.portfolio, nil
}

func (b *MockBroker) GetPositions(ctx context.Context, accountID string) ([]contracts.Position, error) {
	p, err := b.GetPortfolio(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return p.Positions, nil
}

func (b *MockBroker) GetOpenOrders(_ context.Context, accountID string) ([]contracts.OpenOrder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []contracts.OpenOrder
	for _, o := range b.orders {
		if o.AccountID == accountID && !o.Status.IsTerminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (b *MockBroker) GetMarketSnapshot(_ context.Context, instrument contracts.Instrument) (contracts.MarketSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	base, ok := b.prices[instrument.Symbol]
	if !ok {
		base = decimal.NewFromInt(100)
	}
	// small seeded random walk, bounded so repeated calls stay plausible
	driftBps := decimal.NewFromFloat(b.rnd.Float64()*20 - 10)
	base = base.Add(base.Mul(driftBps).Div(decimal.NewFromInt(10000)))
	b.prices[instrument.Symbol] = base

	spread := base.Mul(decimal.NewFromFloat(0.0005))
	bid := base.Sub(spread)
	ask := base.Add(spread)

	return contracts.MarketSnapshot{
		Instrument: instrument,
		Bid:        bid,
		Ask:        ask,
		Last:       base,
		Volume:     int64(1000 + b.rnd.Intn(9000)),
		OHLC: contracts.OHLC{
			Open: base, High: ask, Low: bid, Close: base,
		},
		PrevClose: base,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (b *MockBroker) GetMarketBars(_ context.Context, instrument contracts.Instrument, _ Timeframe, limit int) ([]contracts.Bar, error) {
	if limit <= 0 {
		limit = 1
	}
	b.mu.Lock()
	base, ok := b.prices[instrument.Symbol]
	if !ok {
		base = decimal.NewFromInt(100)
	}
	b.mu.Unlock()

	now := time.Now().UTC()
	bars := make([]contracts.Bar, 0, limit)
	for i := limit - 1; i >= 0; i-- {
		b.mu.Lock()
		driftBps := decimal.NewFromFloat(b.rnd.Float64()*30 - 15)
		b.mu.Unlock()
		base = base.Add(base.Mul(driftBps).Div(decimal.NewFromInt(10000)))
		bars = append(bars, contracts.Bar{
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
			OHLC:      contracts.OHLC{Open: base, High: base, Low: base, Close: base},
			Volume:    int64(100 + i),
		})
	}
	return bars, nil
}

func (b *MockBroker) InstrumentSearch(_ context.Context, query string, filters SearchFilters) ([]contracts.Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []contracts.Candidate
	for symbol := range b.prices {
		score := fuzzyScore(query, symbol)
		if score < 0.5 {
			continue
		}
		inst := contracts.Instrument{Symbol: symbol, Type: contracts.InstrumentSTK}
		if filters.InstrumentType != "" && filters.InstrumentType != inst.Type {
			continue
		}
		out = append(out, contracts.Candidate{Instrument: inst, Name: symbol, Score: score})
	}
	return out, nil
}

func (b *MockBroker) InstrumentResolve(_ context.Context, hint string) (contracts.Instrument, error) {
	return contracts.Instrument{Symbol: hint, Type: contracts.InstrumentSTK}, nil
}

func (b *MockBroker) SubmitOrder(_ context.Context, intent contracts.OrderIntent, token string) (contracts.OpenOrder, error) {
	if b.readOnly {
		return contracts.OpenOrder{}, &ReadOnlyError{Op: "submit_order"}
	}
	if token == "" {
		return contracts.OpenOrder{}, fmt.Errorf("broker: submit_order requires a token")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	order := contracts.OpenOrder{
		BrokerOrderID: uuid.NewString(),
		AccountID:     intent.AccountID,
		Instrument:    intent.Instrument,
		Side:          intent.Side,
		OrderType:     intent.OrderType,
		Quantity:      intent.Quantity,
		FilledQty:     intent.Quantity,
		Status:        contracts.BrokerOrderFilled,
		SubmittedAt:   time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	b.orders[order.BrokerOrderID] = &order
	return order, nil
}

func (b *MockBroker) CancelOrder(_ context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	if b.readOnly {
		return contracts.OpenOrder{}, &ReadOnlyError{Op: "cancel_order"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	order, ok := b.orders[brokerOrderID]
	if !ok {
		return contracts.OpenOrder{}, fmt.Errorf("broker: unknown order %q", brokerOrderID)
	}
	if order.Status.IsTerminal() {
		return *order, fmt.Errorf("broker: order %q already terminal (%s)", brokerOrderID, order.Status)
	}
	order.Status = contracts.BrokerOrderCancelled
	order.UpdatedAt = time.Now().UTC()
	return *order, nil
}

func (b *MockBroker) GetOrderStatus(_ context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	order, ok := b.orders[brokerOrderID]
	if !ok {
		return contracts.OpenOrder{}, fmt.Errorf("broker: unknown order %q", brokerOrderID)
	}
	return *order, nil
}

func (b *MockBroker) HealthCheck(_ context.Context) error { return nil }
