package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"tradegate/internal/contracts"
	"tradegate/internal/observability"
)

// Logger fills in the mechanical fields of an AuditEvent (id, correlation
// id, timestamp) before appending to a Store, mirroring the surrounding
// stack's AuditLogger.Log/LogDecision split between "record this event"
// and "record this event, and also make it loud".
type Logger struct {
	store Store
}

// NewLogger wraps store.
func NewLogger(store Store) *Logger {
	return &Logger{store: store}
}

// Log appends a new event of eventType carrying data. The correlation id is
// read from ctx if present, otherwise one is generated and attached to the
// returned context so callers can propagate it onward.
func (l *Logger) Log(ctx context.Context, eventType contracts.EventType, data map[string]any) (context.Context, error) {
	corrID := observability.CorrelationIDFromContext(ctx)
	if corrID == "" {
		corrID = newID()
		ctx = observability.WithCorrelationID(ctx, corrID)
	}

	event := contracts.AuditEvent{
		ID:            newID(),
		EventType:     eventType,
		CorrelationID: corrID,
		Timestamp:     time.Now().UTC(),
		Data:          data,
	}
	if err := l.store.Append(ctx, event); err != nil {
		return ctx, fmt.Errorf("audit: log %s: %w", eventType, err)
	}

	observability.LogEvent(ctx, "info", string(eventType), data)
	return ctx, nil
}

// LogDecision is Log specialized for a risk decision outcome: it always
// attaches the verdict and rule ids alongside the caller-supplied data.
func (l *Logger) LogDecision(ctx context.Context, verdict contracts.RiskDecisionVerdict, ruleIDs []contracts.RuleID, data map[string]any) (context.Context, error) {
	merged := make(map[string]any, len(data)+2)
	for k, v := range data {
		merged[k] = v
	}
	merged["verdict"] = verdict
	merged["rule_ids"] = ruleIDs

	return l.Log(ctx, contracts.EventRiskGateEvaluated, merged)
}

func newID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("audit: crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(b)
}
