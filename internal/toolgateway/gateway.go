package toolgateway

import (
	"context"
	"sync"
	"time"

	"tradegate/internal/audit"
	"tradegate/internal/contracts"
	"tradegate/internal/observability"
	"tradegate/internal/resilience"
)

// Handler executes a validated tool call and returns its raw (unredacted)
// result.
type Handler func(ctx context.Context, args any) (any, error)

// BreakerConfig controls the per-tool circuit breaker that opens after
// repeated denials. Defaults to 100 consecutive denials, 300s cooldown.
type BreakerConfig struct {
	MaxConsecutiveDenials uint32
	Cooldown              time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxConsecutiveDenials: 100, Cooldown: 300 * time.Second}
}

// Gateway is the sole entry point for the tool-call surface: policy,
// schema validation, rate limiting, a per-tool circuit breaker, and
// output redaction, in that order.
type Gateway struct {
	policy    Policy
	limiter   *RateLimiter
	breakerCfg BreakerConfig
	audit     *audit.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
	handlers map[string]Handler
}

// New builds a Gateway.
func New(policy Policy, limiter *RateLimiter, breakerCfg BreakerConfig, auditLogger *audit.Logger) *Gateway {
	return &Gateway{
		policy:     policy,
		limiter:    limiter,
		breakerCfg: breakerCfg,
		audit:      auditLogger,
		breakers:   make(map[string]*resilience.CircuitBreaker),
		handlers:   make(map[string]Handler),
	}
}

// Register binds a tool name to its handler. The tool must already appear
// in the Gateway's Policy.
func (g *Gateway) Register(toolName string, handler Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[toolName] = handler
}

func (g *Gateway) breakerFor(toolName string) *resilience.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.breakers[toolName]; ok {
		return cb
	}
	cfg := resilience.DefaultConfig(toolName)
	cfg.MaxFailures = g.breakerCfg.MaxConsecutiveDenials
	cfg.Timeout = g.breakerCfg.Cooldown
	cfg.ReadyToTrip = resilience.ConsecutiveFailuresTrip(g.breakerCfg.MaxConsecutiveDenials)
	cb := resilience.NewCircuitBreaker(cfg)
	g.breakers[toolName] = cb
	return cb
}

// Invoke runs toolName through the allowlist, schema validation, rate
// limiting, and circuit breaker checks, then the registered handler, then
// output redaction. Only denials (policy, schema, rate limit, breaker-
// open) count as circuit-breaker failures — a handler's own error does
// not trip the breaker, since that would conflate a broker outage with a
// malicious or malformed caller.
func (g *Gateway) Invoke(ctx context.Context, sessionID, toolName string, args map[string]any) (any, error) {
	start := time.Now()
	cb := g.breakerFor(toolName)

	var handlerErr error
	result, err := cb.Execute(func() (any, error) {
		if err := g.policy.Check(toolName, args); err != nil {
			g.logEvent(ctx, contracts.EventToolRejected, sessionID, toolName, map[string]any{"error": err.Error()})
			return nil, err
		}

		typed, err := DecodeAndValidate(toolName, args)
		if err != nil {
			g.logEvent(ctx, contracts.EventToolRejected, sessionID, toolName, map[string]any{"error": err.Error()})
			return nil, err
		}

		if allowed, dimension := g.limiter.Allow(toolName, sessionID); !allowed {
			g.logEvent(ctx, contracts.EventToolRateLimited, sessionID, toolName, map[string]any{"dimension": dimension})
			return nil, errRateLimited(dimension)
		}

		g.mu.Lock()
		handler, ok := g.handlers[toolName]
		g.mu.Unlock()
		if !ok {
			return nil, errUnknownTool(toolName)
		}

		out, herr := handler(ctx, typed)
		handlerErr = herr
		return out, nil
	})
	if err == nil {
		err = handlerErr
	}

	observability.RecordToolCall(ctx, toolName, time.Since(start), err)
	if err != nil {
		if cb.State().String() == "open" {
			g.logEvent(ctx, contracts.EventToolBreakerOpen, sessionID, toolName, nil)
			return nil, errBreakerOpen(toolName)
		}
		return nil, err
	}

	g.logEvent(ctx, contracts.EventToolCalled, sessionID, toolName, nil)
	return Redact(result), nil
}

func (g *Gateway) logEvent(ctx context.Context, eventType contracts.EventType, sessionID, toolName string, extra map[string]any) {
	if g.audit == nil {
		return
	}
	data := map[string]any{"session_id": sessionID, "tool": toolName}
	for k, v := range extra {
		data[k] = v
	}
	_, _ = g.audit.Log(ctx, eventType, data)
}
