package httpapi

import (
	"net/http"
	"testing"
)

func TestPortfolioRequiresAccountID(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/portfolio", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPortfolioUnknownAccountReturnsInternalError(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/portfolio?account_id=nobody", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for an account the mock broker never seeded", resp.StatusCode)
	}
}

func TestMarketSnapshotRequiresInstrument(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/market/snapshot", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMarketSnapshotReturnsQuote(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/market/snapshot?instrument=AAPL", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["bid"] == nil || body["ask"] == nil {
		t.Fatal("expected bid/ask fields in snapshot response")
	}
}

func TestMarketBarsRequiresPositiveLimit(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/market/bars?instrument=AAPL&limit=0", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMarketBarsReturnsRequestedCount(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/market/bars?instrument=AAPL&limit=5&timeframe=1Min", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var bars []map[string]any
	decodeBody(t, resp, &bars)
	if len(bars) != 5 {
		t.Fatalf("len(bars) = %d, want 5", len(bars))
	}
}
