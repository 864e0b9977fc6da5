package httpapi

import (
	"net/http"
	"testing"
)

func TestSubmitOrderAndFetchStatus(t *testing.T) {
	accountID := "demo-orders"
	srv, _ := newSeededServer(t, accountID, samplePortfolio(accountID))
	defer srv.Close()

	intent := sampleIntent()
	intent.AccountID = accountID
	proposal := createProposal(t, srv, intent)
	tokenID := grantProposal(t, srv, proposal.ProposalID)

	submitResp := doJSON(t, srv, http.MethodPost, "/api/v1/orders/submit", map[string]any{
		"proposal_id": proposal.ProposalID,
		"token_id":    tokenID,
	})
	if submitResp.StatusCode != http.StatusAccepted {
		t.Fatalf("orders/submit status = %d, want 202", submitResp.StatusCode)
	}
	var order map[string]any
	decodeBody(t, submitResp, &order)
	brokerOrderID, _ := order["broker_order_id"].(string)
	if brokerOrderID == "" {
		t.Fatal("expected a non-empty broker_order_id")
	}

	statusResp := doJSON(t, srv, http.MethodGet, "/api/v1/orders/"+brokerOrderID, nil)
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("orders status lookup = %d, want 200", statusResp.StatusCode)
	}
}

func TestSubmitOrderRejectsUnknownToken(t *testing.T) {
	accountID := "demo-orders-2"
	srv, _ := newSeededServer(t, accountID, samplePortfolio(accountID))
	defer srv.Close()

	intent := sampleIntent()
	intent.AccountID = accountID
	proposal := createProposal(t, srv, intent)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/orders/submit", map[string]any{
		"proposal_id": proposal.ProposalID,
		"token_id":    "not-a-real-token",
	})
	if resp.StatusCode == http.StatusAccepted {
		t.Fatal("expected submit to fail for an unknown token")
	}
}

func TestOrderStatusLookupRejectsEmptyID(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/orders/", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestOrderStatusLookupRejectsNonGet(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/orders/some-id", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
