package killswitch

import (
	"context"
	"testing"

	"tradegate/internal/audit"
	"tradegate/internal/coreerr"
)

func newTestSwitch(t *testing.T, envOverride bool, envReason string) *Switch {
	t.Helper()
	s, err := New(context.Background(), NewMemoryStore(), audit.NewLogger(audit.NewMemoryStore()), envOverride, envReason)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSwitchActivateAndRelease(t *testing.T) {
	s := newTestSwitch(t, false, "")
	if s.IsEnabled() {
		t.Fatal("expected switch to start released")
	}

	if err := s.Activate(context.Background(), "market volatility", "ops-1"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !s.IsEnabled() {
		t.Fatal("expected switch to be enabled after Activate")
	}
	enabled, reason, actor := s.Status()
	if !enabled || reason != "market volatility" || actor != "ops-1" {
		t.Fatalf("Status = (%v, %q, %q), want (true, market volatility, ops-1)", enabled, reason, actor)
	}

	if err := s.Release(context.Background(), "ops-2"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if s.IsEnabled() {
		t.Fatal("expected switch to be released")
	}
}

func TestSwitchActivateRequiresReasonAndActor(t *testing.T) {
	s := newTestSwitch(t, false, "")
	if err := s.Activate(context.Background(), "", "ops-1"); err == nil {
		t.Fatal("expected error for missing reason")
	}
	if err := s.Activate(context.Background(), "reason", ""); err == nil {
		t.Fatal("expected error for missing actor")
	}
}

func TestSwitchEnvOverrideCannotBeReleased(t *testing.T) {
	s := newTestSwitch(t, true, "frozen by ops")
	if !s.IsEnabled() {
		t.Fatal("expected env override to force enabled")
	}
	if err := s.Release(context.Background(), "ops-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !s.IsEnabled() {
		t.Fatal("expected env override to still force enabled after Release")
	}
	_, _, actor := s.Status()
	if actor != "environment" {
		t.Fatalf("actor = %q, want environment", actor)
	}
}

func TestSwitchCheckOrFail(t *testing.T) {
	s := newTestSwitch(t, false, "")
	if err := s.CheckOrFail("submit_order"); err != nil {
		t.Fatalf("expected no error while released, got %v", err)
	}

	if err := s.Activate(context.Background(), "halted", "ops-1"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	err := s.CheckOrFail("submit_order")
	if err == nil {
		t.Fatal("expected error while enabled")
	}
	if coreerr.KindOf(err) != coreerr.Policy {
		t.Fatalf("kind = %v, want Policy", coreerr.KindOf(err))
	}
}
