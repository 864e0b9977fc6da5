// Package audit implements the append-only Audit Log: a typed event
// taxonomy keyed by correlation id, queryable by type/id/time range,
// backed by either an in-memory store or Postgres.
package audit

import (
	"context"
	"errors"
	"time"

	"tradegate/internal/contracts"
)

// ErrNotFound is returned by Get when no event has the given id.
var ErrNotFound = errors.New("audit: event not found")

// Filter constrains a Query call.
type Filter struct {
	EventTypes    []contracts.EventType
	CorrelationID string
	From          time.Time
	To            time.Time
	Limit         int
	Offset        int
}

// Store is the durable, append-only backing for the Audit Log. A
// conforming implementation MUST reject any attempt to update or delete
// an event once appended — in the Postgres store that rejection lives at
// the database layer (see migrations/0001_init.up.sql), not merely here.
type Store interface {
	Append(ctx context.Context, event contracts.AuditEvent) error
	Get(ctx context.Context, id string) (contracts.AuditEvent, error)
	Query(ctx context.Context, filter Filter) ([]contracts.AuditEvent, error)
	Stats(ctx context.Context) (map[contracts.EventType]int, error)
}
