package scheduler

import "context"

// Job is one configured cron-driven export: {id, name, enabled,
// auto_schedule, cron expression, retention_days}.
type Job struct {
	ID            string
	Name          string
	Enabled       bool
	AutoSchedule  bool
	Cron          string
	RetentionDays int

	schedule Schedule
}

// ReportSource is the broker adapter's async reporting capability: an
// optional interface a Broker implementation may satisfy in addition to
// the core Broker interface. Checked via type assertion at wiring time
// rather than added to internal/broker.Broker itself, since not every
// deployment exposes a reporting endpoint.
type ReportSource interface {
	RequestReport(ctx context.Context, jobID string) (requestID string, err error)
	ReportReady(ctx context.Context, requestID string) (bool, error)
	DownloadReport(ctx context.Context, requestID string) ([]byte, error)
}
