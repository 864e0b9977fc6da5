package toolgateway

import "testing"

func TestDecodeAndValidateUnknownToolFails(t *testing.T) {
	if _, err := DecodeAndValidate("not_a_tool", map[string]any{}); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestDecodeAndValidatePortfolioRequiresAccountID(t *testing.T) {
	if _, err := DecodeAndValidate("portfolio", map[string]any{}); err == nil {
		t.Fatal("expected error for missing account_id")
	}
}

func TestDecodeAndValidatePortfolioAccepts(t *testing.T) {
	out, err := DecodeAndValidate("portfolio", map[string]any{"account_id": "acc-1"})
	if err != nil {
		t.Fatalf("DecodeAndValidate: %v", err)
	}
	args, ok := out.(*PortfolioArgs)
	if !ok {
		t.Fatalf("type = %T, want *PortfolioArgs", out)
	}
	if args.AccountID != "acc-1" {
		t.Fatalf("AccountID = %q, want acc-1", args.AccountID)
	}
}

func TestDecodeAndValidateRejectsUnknownField(t *testing.T) {
	if _, err := DecodeAndValidate("portfolio", map[string]any{"account_id": "acc-1", "extra": "field"}); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDecodeAndValidateMarketSnapshotRejectsLowercaseSymbol(t *testing.T) {
	if _, err := DecodeAndValidate("market_snapshot", map[string]any{"symbol": "aapl"}); err == nil {
		t.Fatal("expected error for lowercase symbol")
	}
}

func TestDecodeAndValidateSimulateOrderRejectsNegativeQuantity(t *testing.T) {
	args := map[string]any{
		"account_id": "acc-1",
		"symbol":     "AAPL",
		"side":       "BUY",
		"order_type": "MKT",
		"quantity":   "-5",
	}
	if _, err := DecodeAndValidate("simulate_order", args); err == nil {
		t.Fatal("expected error for negative quantity")
	}
}

func TestDecodeAndValidateSimulateOrderAcceptsValid(t *testing.T) {
	args := map[string]any{
		"account_id": "acc-1",
		"symbol":     "AAPL",
		"side":       "BUY",
		"order_type": "MKT",
		"quantity":   "10",
	}
	if _, err := DecodeAndValidate("simulate_order", args); err != nil {
		t.Fatalf("DecodeAndValidate: %v", err)
	}
}

func TestDecodeAndValidateRequestApprovalRejectsShortReason(t *testing.T) {
	args := map[string]any{
		"account_id": "acc-1",
		"symbol":     "AAPL",
		"side":       "BUY",
		"order_type": "LMT",
		"quantity":   "10",
		"reason":     "short",
	}
	if _, err := DecodeAndValidate("request_approval", args); err == nil {
		t.Fatal("expected error for too-short reason")
	}
}
