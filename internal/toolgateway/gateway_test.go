package toolgateway

import (
	"context"
	"testing"

	"tradegate/internal/audit"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	return New(DefaultPolicy(), NewRateLimiter(DefaultRateLimitConfig()), DefaultBreakerConfig(), audit.NewLogger(audit.NewMemoryStore()))
}

func TestGatewayInvokeRunsHandlerOnValidCall(t *testing.T) {
	g := newTestGateway(t)
	g.Register("portfolio", func(ctx context.Context, args any) (any, error) {
		pa := args.(*PortfolioArgs)
		return map[string]any{"account_id": pa.AccountID, "cash": "1000"}, nil
	})

	out, err := g.Invoke(context.Background(), "sess-1", "portfolio", map[string]any{"account_id": "U1234567"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	result := out.(map[string]any)
	if result["account_id"] != "****4567" {
		t.Fatalf("account_id = %v, want redacted suffix", result["account_id"])
	}
}

func TestGatewayInvokeRejectsUnknownTool(t *testing.T) {
	g := newTestGateway(t)
	if _, err := g.Invoke(context.Background(), "sess-1", "not_a_tool", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestGatewayInvokeRejectsInvalidArgs(t *testing.T) {
	g := newTestGateway(t)
	g.Register("portfolio", func(ctx context.Context, args any) (any, error) {
		return nil, nil
	})
	if _, err := g.Invoke(context.Background(), "sess-1", "portfolio", map[string]any{}); err == nil {
		t.Fatal("expected schema validation error for missing account_id")
	}
}

func TestGatewayInvokeMissingHandlerFails(t *testing.T) {
	g := newTestGateway(t)
	if _, err := g.Invoke(context.Background(), "sess-1", "portfolio", map[string]any{"account_id": "acc-1"}); err == nil {
		t.Fatal("expected error when no handler is registered")
	}
}

func TestGatewayBreakerOpensAfterMaxConsecutiveDenialsNotBefore(t *testing.T) {
	g := newTestGateway(t)
	g.Register("portfolio", func(ctx context.Context, args any) (any, error) {
		return map[string]any{}, nil
	})

	cfg := DefaultBreakerConfig()
	for i := uint32(0); i < cfg.MaxConsecutiveDenials-1; i++ {
		if _, err := g.Invoke(context.Background(), "sess-1", "portfolio", map[string]any{}); err == nil {
			t.Fatalf("call %d: expected schema validation denial", i)
		}
	}
	cb := g.breakerFor("portfolio")
	if cb.State().String() == "open" {
		t.Fatalf("breaker opened after %d denials, want it still closed short of the %d threshold", cfg.MaxConsecutiveDenials-1, cfg.MaxConsecutiveDenials)
	}

	if _, err := g.Invoke(context.Background(), "sess-1", "portfolio", map[string]any{}); err == nil {
		t.Fatal("expected the threshold-reaching call itself to still report a denial")
	}
	if cb.State().String() != "open" {
		t.Fatalf("breaker state = %s, want open after %d consecutive denials", cb.State().String(), cfg.MaxConsecutiveDenials)
	}
}

func TestGatewayInvokeRateLimitsPerTool(t *testing.T) {
	g := New(DefaultPolicy(), NewRateLimiter(RateLimitConfig{PerToolPerMinute: 1, PerSessionPerMinute: 100, GlobalPerMinute: 1000}), DefaultBreakerConfig(), audit.NewLogger(audit.NewMemoryStore()))
	g.Register("portfolio", func(ctx context.Context, args any) (any, error) {
		return map[string]any{}, nil
	})

	if _, err := g.Invoke(context.Background(), "sess-1", "portfolio", map[string]any{"account_id": "acc-1"}); err != nil {
		t.Fatalf("first Invoke: %v", err)
	}
	if _, err := g.Invoke(context.Background(), "sess-2", "portfolio", map[string]any{"account_id": "acc-2"}); err == nil {
		t.Fatal("expected second call against the same tool to be rate limited")
	}
}
