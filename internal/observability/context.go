package observability

import "context"

type ctxKey int

const (
	correlationIDKey ctxKey = iota
	componentKey
)

// WithCorrelationID attaches a correlation id to ctx for structured logging
// and for the Audit Log's generate-if-absent rule.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationIDFromContext returns the correlation id carried by ctx, or ""
// if none was attached.
func CorrelationIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}

// WithComponent attaches the emitting component's name to ctx, included in
// every log line produced while it is in scope.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name carried by ctx, or "" if
// none was attached.
func ComponentFromContext(ctx context.Context) string {
	v, _ := ctx.Value(componentKey).(string)
	return v
}
