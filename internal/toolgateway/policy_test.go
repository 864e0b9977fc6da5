package toolgateway

import "testing"

func TestPolicyCheckRejectsUnknownTool(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Check("not_a_tool", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestPolicyCheckAllowsKnownToolWithNoForbiddenParams(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Check("portfolio", map[string]any{"account_id": "acc-1"}); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestPolicyCheckRejectsForbiddenParam(t *testing.T) {
	p := Policy{Tools: map[string]ToolPolicy{
		"market_snapshot": {ForbiddenParams: []string{"raw_quote"}},
	}}
	if err := p.Check("market_snapshot", map[string]any{"raw_quote": "x"}); err == nil {
		t.Fatal("expected error for forbidden parameter")
	}
}

func TestDefaultPolicyCoversFullToolSurface(t *testing.T) {
	p := DefaultPolicy()
	for _, name := range append(append([]string{}, ReadOnlyTools...), GatedWriteTools...) {
		if _, ok := p.Tools[name]; !ok {
			t.Fatalf("DefaultPolicy missing tool %q", name)
		}
	}
}
