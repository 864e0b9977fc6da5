package toolgateway

import "testing"

func TestRateLimiterAllowsUnderBudget(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerToolPerMinute: 5, PerSessionPerMinute: 5, GlobalPerMinute: 5})
	for i := 0; i < 5; i++ {
		if ok, dim := rl.Allow("portfolio", "sess-1"); !ok {
			t.Fatalf("call %d: expected allow, got deny on %s", i, dim)
		}
	}
}

func TestRateLimiterDeniesOverToolBudget(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerToolPerMinute: 2, PerSessionPerMinute: 100, GlobalPerMinute: 1000})
	rl.Allow("portfolio", "sess-1")
	rl.Allow("portfolio", "sess-2")
	ok, dim := rl.Allow("portfolio", "sess-3")
	if ok {
		t.Fatal("expected third call against the same tool to be denied")
	}
	if dim != "tool" {
		t.Fatalf("dimension = %q, want tool", dim)
	}
}

func TestRateLimiterDeniesOverSessionBudget(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerToolPerMinute: 1000, PerSessionPerMinute: 1, GlobalPerMinute: 1000})
	rl.Allow("portfolio", "sess-1")
	ok, dim := rl.Allow("positions", "sess-1")
	if ok {
		t.Fatal("expected second call in the same session to be denied")
	}
	if dim != "session" {
		t.Fatalf("dimension = %q, want session", dim)
	}
}

func TestRateLimiterDeniesOverGlobalBudget(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerToolPerMinute: 1000, PerSessionPerMinute: 1000, GlobalPerMinute: 1})
	rl.Allow("portfolio", "sess-1")
	ok, dim := rl.Allow("positions", "sess-2")
	if ok {
		t.Fatal("expected call exceeding the global budget to be denied")
	}
	if dim != "global" {
		t.Fatalf("dimension = %q, want global", dim)
	}
}

func TestDefaultRateLimitConfigValues(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.PerToolPerMinute != 60 || cfg.PerSessionPerMinute != 100 || cfg.GlobalPerMinute != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
