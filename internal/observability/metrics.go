package observability

import (
	"context"
	"time"
)

// RecordToolCall emits a metric line for one tool gateway invocation.
func RecordToolCall(ctx context.Context, toolName string, duration time.Duration, err error) {
	fields := map[string]any{
		"name":       "tool_call",
		"tool":       toolName,
		"latency_ms": duration.Milliseconds(),
		"success":    err == nil,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogEvent(ctx, "info", "metric", fields)
}

// RecordRiskEvaluation emits a metric line for one risk engine decision.
func RecordRiskEvaluation(ctx context.Context, decision string, violated []string, duration time.Duration) {
	LogEvent(ctx, "info", "metric", map[string]any{
		"name":       "risk_evaluation",
		"decision":   decision,
		"violated":   violated,
		"latency_ms": duration.Milliseconds(),
	})
}

// RecordBrokerCall emits a metric line for one broker adapter call.
func RecordBrokerCall(ctx context.Context, method string, duration time.Duration, err error) {
	fields := map[string]any{
		"name":       "broker_call",
		"method":     method,
		"latency_ms": duration.Milliseconds(),
		"success":    err == nil,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogEvent(ctx, "info", "metric", fields)
}

// RecordSchedulerJob emits a metric line for one scheduler job run.
func RecordSchedulerJob(ctx context.Context, jobID string, duration time.Duration, err error) {
	fields := map[string]any{
		"name":       "scheduler_job",
		"job_id":     jobID,
		"latency_ms": duration.Milliseconds(),
		"success":    err == nil,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogEvent(ctx, "info", "metric", fields)
}
