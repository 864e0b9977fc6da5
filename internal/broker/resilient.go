package broker

import (
	"context"
	"fmt"
	"time"

	"tradegate/internal/contracts"
	"tradegate/internal/resilience"
)

// ResilientBroker wraps an underlying Broker with snapshot/bar caching
// (bypassable), a circuit breaker around every call, and a fixed retry
// budget with exponential backoff on every failed call, whatever the
// error. It
// composes around a single broker rather than a multi-provider fan-out,
// since a deployment talks to exactly one brokerage.
type ResilientBroker struct {
	inner   Broker
	cache   *Cache
	breaker *resilience.CircuitBreaker

	retryBudget int
	retryBase   time.Duration
}

// NewResilientBroker wraps inner with caching and circuit breaking.
func NewResilientBroker(inner Broker, cache *Cache) *ResilientBroker {
	return &ResilientBroker{
		inner:       inner,
		cache:       cache,
		breaker:     resilience.NewCircuitBreaker(resilience.DefaultConfig("broker:" + inner.Name())),
		retryBudget: 3,
		retryBase:   200 * time.Millisecond,
	}
}

func (b *ResilientBroker) Name() string { return b.inner.Name() }

func (b *ResilientBroker) withRetry(ctx context.Context, fn func() (any, error)) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= b.retryBudget; attempt++ {
		result, err := b.breaker.ExecuteWithContext(ctx, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < b.retryBudget {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.retryBase * time.Duration(1<<attempt)):
			}
		}
	}
	return nil, fmt.Errorf("broker: retry budget exhausted: %w", lastErr)
}

func (b *ResilientBroker) GetPortfolio(ctx context.Context, accountID string) (contracts.Portfolio, error) {
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.GetPortfolio(ctx, accountID) })
	if err != nil {
		return contracts.Portfolio{}, err
	}
	return res.(contracts.Portfolio), nil
}

func (b *ResilientBroker) GetPositions(ctx context.Context, accountID string) ([]contracts.Position, error) {
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.GetPositions(ctx, accountID) })
	if err != nil {
		return nil, err
	}
	return res.([]contracts.Position), nil
}

func (b *ResilientBroker) GetOpenOrders(ctx context.Context, accountID string) ([]contracts.OpenOrder, error) {
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.GetOpenOrders(ctx, accountID) })
	if err != nil {
		return nil, err
	}
	return res.([]contracts.OpenOrder), nil
}

// GetMarketSnapshot consults the cache before the network unless
// bypassCache is set via context (see WithCacheBypass).
func (b *ResilientBroker) GetMarketSnapshot(ctx context.Context, instrument contracts.Instrument) (contracts.MarketSnapshot, error) {
	if b.cache != nil && !cacheBypassed(ctx) {
		if snap, ok := b.cache.GetSnapshot(ctx, instrument); ok {
			return snap, nil
		}
	}
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.GetMarketSnapshot(ctx, instrument) })
	if err != nil {
		return contracts.MarketSnapshot{}, err
	}
	snap := res.(contracts.MarketSnapshot)
	if b.cache != nil {
		b.cache.SetSnapshot(ctx, snap)
	}
	return snap, nil
}

func (b *ResilientBroker) GetMarketBars(ctx context.Context, instrument contracts.Instrument, timeframe Timeframe, limit int) ([]contracts.Bar, error) {
	if b.cache != nil && !cacheBypassed(ctx) {
		if bars, ok := b.cache.GetBars(ctx, instrument, timeframe); ok {
			return bars, nil
		}
	}
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.GetMarketBars(ctx, instrument, timeframe, limit) })
	if err != nil {
		return nil, err
	}
	bars := res.([]contracts.Bar)
	if b.cache != nil {
		b.cache.SetBars(ctx, instrument, timeframe, bars)
	}
	return bars, nil
}

func (b *ResilientBroker) InstrumentSearch(ctx context.Context, query string, filters SearchFilters) ([]contracts.Candidate, error) {
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.InstrumentSearch(ctx, query, filters) })
	if err != nil {
		return nil, err
	}
	return res.([]contracts.Candidate), nil
}

func (b *ResilientBroker) InstrumentResolve(ctx context.Context, hint string) (contracts.Instrument, error) {
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.InstrumentResolve(ctx, hint) })
	if err != nil {
		return contracts.Instrument{}, err
	}
	return res.(contracts.Instrument), nil
}

// SubmitOrder and CancelOrder deliberately bypass the retry budget: a
// retried write could double-submit or double-cancel against the
// brokerage, which no amount of read-path caching logic should risk.
func (b *ResilientBroker) SubmitOrder(ctx context.Context, intent contracts.OrderIntent, token string) (contracts.OpenOrder, error) {
	res, err := b.breaker.ExecuteWithContext(ctx, func() (any, error) { return b.inner.SubmitOrder(ctx, intent, token) })
	if err != nil {
		return contracts.OpenOrder{}, err
	}
	return res.(contracts.OpenOrder), nil
}

func (b *ResilientBroker) CancelOrder(ctx context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	res, err := b.breaker.ExecuteWithContext(ctx, func() (any, error) { return b.inner.CancelOrder(ctx, brokerOrderID) })
	if err != nil {
		return contracts.OpenOrder{}, err
	}
	return res.(contracts.OpenOrder), nil
}

func (b *ResilientBroker) GetOrderStatus(ctx context.Context, brokerOrderID string) (contracts.OpenOrder, error) {
	res, err := b.withRetry(ctx, func() (any, error) { return b.inner.GetOrderStatus(ctx, brokerOrderID) })
	if err != nil {
		return contracts.OpenOrder{}, err
	}
	return res.(contracts.OpenOrder), nil
}

func (b *ResilientBroker) HealthCheck(ctx context.Context) error {
	_, err := b.withRetry(ctx, func() (any, error) { return nil, b.inner.HealthCheck(ctx) })
	return err
}

type cacheBypassKey struct{}

// WithCacheBypass marks ctx so GetMarketSnapshot/GetMarketBars skip the
// cache for freshness-critical callers.
func WithCacheBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheBypassKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(cacheBypassKey{}).(bool)
	return v
}
