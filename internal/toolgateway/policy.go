// Package toolgateway is the sole entry point for the language-model-
// driven tool surface: every call passes allowlist/policy, schema
// validation, rate limiting + circuit breaker, and output redaction, in
// that order, dispatched through a named tool registry.
package toolgateway

// ToolPolicy is the per-tool allowlist entry: which parameter names are
// forbidden outright, and a per-session call budget field. SessionBudget
// is stored but not enforced: neither Check nor the RateLimiter reads it,
// so only the gateway-wide per-tool, per-session and global limits apply.
type ToolPolicy struct {
	ForbiddenParams []string
	SessionBudget   int // not enforced; see ToolPolicy
}

// Policy is the declarative allowlist. Tools not present in Tools are
// denied; parameters present in a tool's ForbiddenParams are rejected.
type Policy struct {
	Tools map[string]ToolPolicy
}

// ReadOnlyTools and GatedWriteTools name the gateway's full tool surface.
var (
	ReadOnlyTools = []string{
		"portfolio", "positions", "cash", "open_orders",
		"market_snapshot", "market_bars",
		"instrument_search", "instrument_resolve",
		"simulate_order", "evaluate_risk",
	}
	GatedWriteTools = []string{
		"request_approval", "request_order_cancel", "request_order_modify",
	}
)

// DefaultPolicy allowlists every tool in ReadOnlyTools and GatedWriteTools,
// with no forbidden parameters and no additional per-tool budget beyond
// the gateway-wide rate limiter.
func DefaultPolicy() Policy {
	tools := make(map[string]ToolPolicy, len(ReadOnlyTools)+len(GatedWriteTools))
	for _, name := range ReadOnlyTools {
		tools[name] = ToolPolicy{}
	}
	for _, name := range GatedWriteTools {
		tools[name] = ToolPolicy{}
	}
	return Policy{Tools: tools}
}

// Check reports whether the call is allowed: the tool must be known and
// none of its argument keys may be in the tool's ForbiddenParams.
func (p Policy) Check(toolName string, args map[string]any) error {
	tp, ok := p.Tools[toolName]
	if !ok {
		return errUnknownTool(toolName)
	}
	for key := range args {
		for _, forbidden := range tp.ForbiddenParams {
			if key == forbidden {
				return errForbiddenParam(toolName, key)
			}
		}
	}
	return nil
}
