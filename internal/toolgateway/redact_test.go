package toolgateway

import "testing"

func TestRedactMasksAccountIDSuffix(t *testing.T) {
	out := Redact(map[string]any{"account_id": "U1234567"}).(map[string]any)
	if out["account_id"] != "****4567" {
		t.Fatalf("account_id = %v, want ****4567", out["account_id"])
	}
}

func TestRedactWholesaleMasksSensitiveKeys(t *testing.T) {
	out := Redact(map[string]any{"api_token": "secretvalue"}).(map[string]any)
	if out["api_token"] == "secretvalue" {
		t.Fatal("expected api_token to be redacted")
	}
}

func TestRedactLeavesOrdinaryFieldsUntouched(t *testing.T) {
	out := Redact(map[string]any{"symbol": "AAPL"}).(map[string]any)
	if out["symbol"] != "AAPL" {
		t.Fatalf("symbol = %v, want AAPL", out["symbol"])
	}
}

func TestRedactWalksNestedSlices(t *testing.T) {
	out := Redact([]any{map[string]any{"account_id": "U1234567"}}).([]any)
	inner := out[0].(map[string]any)
	if inner["account_id"] != "****4567" {
		t.Fatalf("nested account_id = %v, want ****4567", inner["account_id"])
	}
}
