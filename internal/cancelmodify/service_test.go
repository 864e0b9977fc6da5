package cancelmodify

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"tradegate/internal/audit"
	"tradegate/internal/broker"
	"tradegate/internal/contracts"
	"tradegate/internal/killswitch"
)

func newTestService(t *testing.T) (*Service, *killswitch.Switch) {
	t.Helper()
	sw, err := killswitch.New(context.Background(), killswitch.NewMemoryStore(), audit.NewLogger(audit.NewMemoryStore()), false, "")
	if err != nil {
		t.Fatalf("killswitch.New: %v", err)
	}
	svc := New(NewStore(DefaultCapacity), broker.NewMockBroker(1, false), audit.NewLogger(audit.NewMemoryStore()), sw)
	return svc, sw
}

func TestRequestCancelRequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.RequestCancel(context.Background(), "bo-1", ""); err == nil {
		t.Fatal("expected error for missing reason")
	}
}

func TestGrantCancelExecutesAgainstBroker(t *testing.T) {
	svc, _ := newTestService(t)
	ci, err := svc.RequestCancel(context.Background(), "bo-1", "duplicate order")
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}

	granted, err := svc.GrantCancel(context.Background(), ci.MutationID, "ops-1")
	if err != nil {
		t.Fatalf("GrantCancel: %v", err)
	}
	if granted.State != contracts.MutationExecuted && granted.State != contracts.MutationExecutionFailed {
		t.Fatalf("state = %v, want a terminal execution state", granted.State)
	}
}

func TestGrantCancelBlockedByKillSwitchStaysGranted(t *testing.T) {
	svc, sw := newTestService(t)
	ci, err := svc.RequestCancel(context.Background(), "bo-1", "duplicate order")
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	if err := sw.Activate(context.Background(), "halted", "ops-1"); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	granted, err := svc.GrantCancel(context.Background(), ci.MutationID, "ops-1")
	if err != nil {
		t.Fatalf("GrantCancel: %v", err)
	}
	if granted.State != contracts.MutationGranted {
		t.Fatalf("state = %v, want GRANTED (execution deferred by kill switch)", granted.State)
	}
}

func TestDenyCancelRequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	ci, err := svc.RequestCancel(context.Background(), "bo-1", "duplicate order")
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	if _, err := svc.DenyCancel(context.Background(), ci.MutationID, "", "ops-1"); err == nil {
		t.Fatal("expected error for missing reason")
	}
	if _, err := svc.DenyCancel(context.Background(), ci.MutationID, "not actionable", "ops-1"); err != nil {
		t.Fatalf("DenyCancel: %v", err)
	}
}

func TestGrantCancelRejectsDoubleGrant(t *testing.T) {
	svc, _ := newTestService(t)
	ci, err := svc.RequestCancel(context.Background(), "bo-1", "duplicate order")
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	if _, err := svc.GrantCancel(context.Background(), ci.MutationID, "ops-1"); err != nil {
		t.Fatalf("first GrantCancel: %v", err)
	}
	if _, err := svc.GrantCancel(context.Background(), ci.MutationID, "ops-1"); err == nil {
		t.Fatal("expected second grant to fail: already terminal")
	}
}

func TestRequestModifyRequiresAtLeastOneChange(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.RequestModify(context.Background(), "bo-1", nil, nil, nil, "reprice"); err == nil {
		t.Fatal("expected error when no field is changed")
	}
}

func TestGrantModifyCancelsAndResubmits(t *testing.T) {
	svc, _ := newTestService(t)
	newQty := decimal.NewFromInt(5)
	mi, err := svc.RequestModify(context.Background(), "bo-1", &newQty, nil, nil, "reduce size")
	if err != nil {
		t.Fatalf("RequestModify: %v", err)
	}

	intent := contracts.OrderIntent{
		AccountID:  "acc-1",
		Instrument: contracts.Instrument{Symbol: "AAPL", Type: contracts.InstrumentSTK},
		Side:       contracts.SideBuy,
		OrderType:  contracts.OrderMarket,
		Quantity:   decimal.NewFromInt(10),
	}
	granted, err := svc.GrantModify(context.Background(), mi.MutationID, "ops-1", intent)
	if err != nil {
		t.Fatalf("GrantModify: %v", err)
	}
	if granted.State != contracts.MutationExecuted && granted.State != contracts.MutationExecutionFailed {
		t.Fatalf("state = %v, want a terminal execution state", granted.State)
	}
}
