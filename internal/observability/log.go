// Package observability implements the ambient structured-logging,
// metrics, and output-redaction helpers shared by every core component,
// built on a JSON-over-log.Logger idiom.
package observability

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"
)

var logger = log.New(os.Stdout, "", 0)

// LogEvent writes one structured JSON line. Every line carries a
// timestamp, level, event name, and (when present in ctx) a
// correlation_id and component.
func LogEvent(ctx context.Context, level, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"event": event,
	}
	if cid := CorrelationIDFromContext(ctx); cid != "" {
		payload["correlation_id"] = cid
	}
	if component := ComponentFromContext(ctx); component != "" {
		payload["component"] = component
	}
	for key, value := range normalizeFields(fields) {
		payload[key] = value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("{\"level\":\"error\",\"event\":\"log_marshal_failed\",\"error\":%q}", err.Error())
		return
	}
	logger.Print(string(raw))
}

// LogToolStart records the beginning of a tool gateway call.
func LogToolStart(ctx context.Context, sessionID, toolName string, input any) {
	LogEvent(ctx, "info", "tool_start", map[string]any{
		"session": sessionID,
		"tool":    toolName,
		"input":   input,
	})
}

// LogToolEnd records the completion of a tool gateway call.
func LogToolEnd(ctx context.Context, sessionID, toolName string, duration time.Duration, err error) {
	fields := map[string]any{
		"session":    sessionID,
		"tool":       toolName,
		"latency_ms": duration.Milliseconds(),
		"success":    err == nil,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogEvent(ctx, "info", "tool_end", fields)
}

func normalizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		switch key {
		case "input", "payload", "output":
			out[key] = RedactValue(value)
			continue
		}
		if err, ok := value.(error); ok {
			out[key] = err.Error()
			continue
		}
		out[key] = value
	}
	return out
}
