package httpapi

import (
	"net/http"
	"testing"
)

func TestKillSwitchActivateDeactivateStatus(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	statusResp := doJSON(t, srv, http.MethodGet, "/api/v1/kill-switch/status", nil)
	var status map[string]any
	decodeBody(t, statusResp, &status)
	if status["enabled"] != false {
		t.Fatalf("enabled = %v, want false initially", status["enabled"])
	}

	activateResp := doJSON(t, srv, http.MethodPost, "/api/v1/kill-switch/activate", map[string]any{
		"reason": "market volatility spike",
		"actor":  "ops-1",
	})
	if activateResp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d, want 200", activateResp.StatusCode)
	}
	var activated map[string]any
	decodeBody(t, activateResp, &activated)
	if activated["enabled"] != true {
		t.Fatalf("enabled = %v, want true after activation", activated["enabled"])
	}

	deactivateResp := doJSON(t, srv, http.MethodPost, "/api/v1/kill-switch/deactivate", map[string]any{"actor": "ops-1"})
	if deactivateResp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate status = %d, want 200", deactivateResp.StatusCode)
	}
	var deactivated map[string]any
	decodeBody(t, deactivateResp, &deactivated)
	if deactivated["enabled"] != false {
		t.Fatalf("enabled = %v, want false after deactivation", deactivated["enabled"])
	}
}

func TestKillSwitchBlocksSubsequentApprovalGrant(t *testing.T) {
	accountID := "demo-ks"
	srv, _ := newSeededServer(t, accountID, samplePortfolio(accountID))
	defer srv.Close()

	intent := sampleIntent()
	intent.AccountID = accountID
	proposal := createProposal(t, srv, intent)
	doJSON(t, srv, http.MethodPost, "/api/v1/approval/request", map[string]any{"proposal_id": proposal.ProposalID}).Body.Close()

	activateResp := doJSON(t, srv, http.MethodPost, "/api/v1/kill-switch/activate", map[string]any{
		"reason": "halt trading",
		"actor":  "ops-1",
	})
	activateResp.Body.Close()

	grantResp := doJSON(t, srv, http.MethodPost, "/api/v1/approval/grant", map[string]any{
		"proposal_id": proposal.ProposalID,
		"reason":      "override",
		"actor":       "ops-1",
	})
	if grantResp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 while the kill switch is active", grantResp.StatusCode)
	}
}
