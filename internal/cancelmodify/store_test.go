package cancelmodify

import (
	"context"
	"testing"
	"time"

	"tradegate/internal/contracts"
)

func newCancel(id string, state contracts.MutationState) contracts.CancelIntent {
	now := time.Now().UTC()
	return contracts.CancelIntent{MutationID: id, BrokerOrderID: "bo-1", State: state, CreatedAt: now, UpdatedAt: now}
}

func TestStoreInsertAndGetCancel(t *testing.T) {
	s := NewStore(10)
	ci := newCancel("m1", contracts.MutationRequested)
	if err := s.InsertCancel(context.Background(), ci); err != nil {
		t.Fatalf("InsertCancel: %v", err)
	}
	got, err := s.GetCancel(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetCancel: %v", err)
	}
	if got.MutationID != "m1" {
		t.Fatalf("MutationID = %q, want m1", got.MutationID)
	}
}

func TestStoreGetCancelUnknownReturnsNotFound(t *testing.T) {
	s := NewStore(10)
	if _, err := s.GetCancel(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("GetCancel missing = %v, want ErrNotFound", err)
	}
}

func TestStoreEvictsOldestTerminalCancelAtCapacity(t *testing.T) {
	s := NewStore(2)
	if err := s.InsertCancel(context.Background(), newCancel("m1", contracts.MutationExecuted)); err != nil {
		t.Fatalf("Insert m1: %v", err)
	}
	if err := s.InsertCancel(context.Background(), newCancel("m2", contracts.MutationRequested)); err != nil {
		t.Fatalf("Insert m2: %v", err)
	}
	if err := s.InsertCancel(context.Background(), newCancel("m3", contracts.MutationRequested)); err != nil {
		t.Fatalf("Insert m3 should evict terminal m1: %v", err)
	}
	if _, err := s.GetCancel(context.Background(), "m1"); err != ErrNotFound {
		t.Fatal("expected m1 to have been evicted")
	}
}

func TestStoreCancelFullWithNothingEvictable(t *testing.T) {
	s := NewStore(1)
	if err := s.InsertCancel(context.Background(), newCancel("m1", contracts.MutationRequested)); err != nil {
		t.Fatalf("Insert m1: %v", err)
	}
	if err := s.InsertCancel(context.Background(), newCancel("m2", contracts.MutationRequested)); err == nil {
		t.Fatal("expected insert to fail when nothing is evictable")
	}
}

func TestStoreReplaceCancelRequiresExistingMutation(t *testing.T) {
	s := NewStore(10)
	if err := s.ReplaceCancel(context.Background(), newCancel("missing", contracts.MutationGranted)); err != ErrNotFound {
		t.Fatalf("ReplaceCancel missing = %v, want ErrNotFound", err)
	}
}

func TestStoreInsertAndGetModify(t *testing.T) {
	s := NewStore(10)
	now := time.Now().UTC()
	mi := contracts.ModifyIntent{MutationID: "m1", BrokerOrderID: "bo-1", State: contracts.MutationRequested, CreatedAt: now, UpdatedAt: now}
	if err := s.InsertModify(context.Background(), mi); err != nil {
		t.Fatalf("InsertModify: %v", err)
	}
	got, err := s.GetModify(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetModify: %v", err)
	}
	if got.MutationID != "m1" {
		t.Fatalf("MutationID = %q, want m1", got.MutationID)
	}
}
