package approval

import (
	"context"
	"testing"
	"time"

	"tradegate/internal/audit"
	"tradegate/internal/contracts"
	"tradegate/internal/killswitch"
)

type alwaysAllow struct{ reason string }

func (a alwaysAllow) Evaluate(context.Context, contracts.OrderProposal) (bool, string) {
	return true, a.reason
}

type alwaysDeny struct{ reason string }

func (a alwaysDeny) Evaluate(context.Context, contracts.OrderProposal) (bool, string) {
	return false, a.reason
}

func newTestService(t *testing.T, autoApprove AutoApprovalPolicy) *Service {
	t.Helper()
	sw, err := killswitch.New(context.Background(), killswitch.NewMemoryStore(), audit.NewLogger(audit.NewMemoryStore()), false, "")
	if err != nil {
		t.Fatalf("killswitch.New: %v", err)
	}
	return NewService(NewStore(DefaultCapacity), audit.NewLogger(audit.NewMemoryStore()), sw, autoApprove)
}

func testIntent() contracts.OrderIntent {
	return contracts.OrderIntent{
		AccountID:  "acc-1",
		Instrument: contracts.Instrument{Symbol: "AAPL", Type: contracts.InstrumentSTK},
		Side:       contracts.SideBuy,
		OrderType:  contracts.OrderLimit,
	}
}

func TestServiceStoreCreatesProposed(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.Store(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if proposal.State != contracts.StateProposed {
		t.Fatalf("state = %v, want PROPOSED", proposal.State)
	}
	if proposal.ProposalID == "" {
		t.Fatal("expected a generated proposal id")
	}
}

func TestServiceCreateWithEvaluationApprovePath(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskApprove})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}
	if proposal.State != contracts.StateRiskApproved {
		t.Fatalf("state = %v, want RISK_APPROVED", proposal.State)
	}
}

func TestServiceCreateWithEvaluationRejectPath(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskReject, Reason: "blocked"})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}
	if proposal.State != contracts.StateRiskRejected {
		t.Fatalf("state = %v, want RISK_REJECTED", proposal.State)
	}
}

func TestServiceRequestWithoutAutoApprovalMovesToRequested(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskApprove})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}

	updated, token, err := s.Request(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if token != nil {
		t.Fatal("expected no token without auto-approval")
	}
	if updated.State != contracts.StateApprovalRequested {
		t.Fatalf("state = %v, want APPROVAL_REQUESTED", updated.State)
	}
}

func TestServiceRequestWithAutoApprovalGrantsImmediately(t *testing.T) {
	s := newTestService(t, alwaysAllow{reason: "conjunction satisfied"})
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskApprove})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}

	updated, token, err := s.Request(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if token == nil {
		t.Fatal("expected a token from auto-approval")
	}
	if updated.State != contracts.StateApprovalGranted {
		t.Fatalf("state = %v, want APPROVAL_GRANTED", updated.State)
	}
}

func TestServiceGrantRequiresReasonAndActor(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskApprove})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}
	if _, _, err := s.Request(context.Background(), proposal.ProposalID); err != nil {
		t.Fatalf("Request: %v", err)
	}

	if _, _, err := s.Grant(context.Background(), proposal.ProposalID, "", "actor"); err == nil {
		t.Fatal("expected error for missing reason")
	}
	if _, _, err := s.Grant(context.Background(), proposal.ProposalID, "reason", ""); err == nil {
		t.Fatal("expected error for missing actor")
	}
}

func TestServiceGrantAndValidateToken(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskApprove})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}
	if _, _, err := s.Request(context.Background(), proposal.ProposalID); err != nil {
		t.Fatalf("Request: %v", err)
	}

	granted, token, err := s.Grant(context.Background(), proposal.ProposalID, "looks good", "ops-1")
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if token == nil {
		t.Fatal("expected a token")
	}
	if !s.ValidateToken(context.Background(), token.TokenID, granted.IntentHash, time.Now().UTC()) {
		t.Fatal("expected token to validate")
	}
	if _, err := s.ConsumeToken(context.Background(), token.TokenID, time.Now().UTC()); err != nil {
		t.Fatalf("ConsumeToken: %v", err)
	}
	if s.ValidateToken(context.Background(), token.TokenID, granted.IntentHash, time.Now().UTC()) {
		t.Fatal("expected consumed token to no longer validate")
	}
}

func TestServiceDenyRequiresReason(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskApprove})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}
	if _, _, err := s.Request(context.Background(), proposal.ProposalID); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := s.Deny(context.Background(), proposal.ProposalID, "", "ops-1"); err == nil {
		t.Fatal("expected error for missing reason")
	}
	if _, err := s.Deny(context.Background(), proposal.ProposalID, "risk too high", "ops-1"); err != nil {
		t.Fatalf("Deny: %v", err)
	}
}

func TestServiceGrantBlockedByKillSwitch(t *testing.T) {
	s := newTestService(t, nil)
	proposal, err := s.CreateWithEvaluation(context.Background(), testIntent(),
		contracts.SimulationResult{Status: contracts.SimSuccess},
		contracts.RiskDecision{Decision: contracts.RiskApprove})
	if err != nil {
		t.Fatalf("CreateWithEvaluation: %v", err)
	}
	if _, _, err := s.Request(context.Background(), proposal.ProposalID); err != nil {
		t.Fatalf("Request: %v", err)
	}

	if err := s.killSwitch.Activate(context.Background(), "halted", "ops-1"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, _, err := s.Grant(context.Background(), proposal.ProposalID, "reason", "actor"); err == nil {
		t.Fatal("expected grant to be blocked by the kill switch")
	}
}
