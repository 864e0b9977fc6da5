package audit

import (
	"context"
	"testing"
	"time"

	"tradegate/internal/contracts"
)

func TestMemoryStoreAppendAndGet(t *testing.T) {
	store := NewMemoryStore()
	event := contracts.AuditEvent{ID: "evt-1", EventType: contracts.EventOrderSubmitted, CorrelationID: "c1", Timestamp: time.Now().UTC()}
	if err := store.Append(context.Background(), event); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "evt-1" {
		t.Fatalf("Get id = %q, want evt-1", got.ID)
	}

	if _, err := store.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreQueryFiltersAndPaginates(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		eventType := contracts.EventOrderSubmitted
		if i%2 == 0 {
			eventType = contracts.EventRiskGateEvaluated
		}
		event := contracts.AuditEvent{
			ID:            string(rune('a' + i)),
			EventType:     eventType,
			CorrelationID: "c1",
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Append(context.Background(), event); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	out, err := store.Query(context.Background(), Filter{
		CorrelationID: "c1",
		EventTypes:    []contracts.EventType{contracts.EventOrderSubmitted},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 events of type ORDER_SUBMITTED, got %d", len(out))
	}

	paged, err := store.Query(context.Background(), Filter{CorrelationID: "c1", Offset: 3, Limit: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(paged) != 1 {
		t.Fatalf("expected 1 paged event, got %d", len(paged))
	}

	beyond, err := store.Query(context.Background(), Filter{CorrelationID: "c1", Offset: 100})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(beyond) != 0 {
		t.Fatalf("expected 0 events beyond range, got %d", len(beyond))
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 3; i++ {
		event := contracts.AuditEvent{ID: string(rune('a' + i)), EventType: contracts.EventOrderSubmitted, CorrelationID: "c1", Timestamp: time.Now().UTC()}
		if err := store.Append(context.Background(), event); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[contracts.EventOrderSubmitted] != 3 {
		t.Fatalf("stats[ORDER_SUBMITTED] = %d, want 3", stats[contracts.EventOrderSubmitted])
	}
}
