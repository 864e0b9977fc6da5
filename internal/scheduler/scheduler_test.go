package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradegate/internal/audit"
)

type fakeSource struct {
	ready bool
	data  []byte
}

func (f *fakeSource) RequestReport(ctx context.Context, jobID string) (string, error) {
	return "req-" + jobID, nil
}

func (f *fakeSource) ReportReady(ctx context.Context, requestID string) (bool, error) {
	return f.ready, nil
}

func (f *fakeSource) DownloadReport(ctx context.Context, requestID string) ([]byte, error) {
	return f.data, nil
}

func TestAddJobRejectsInvalidCron(t *testing.T) {
	s := New(DefaultConfig(), nil, nil)
	if err := s.AddJob(Job{ID: "j1", Cron: "not a cron"}); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestRunJobDownloadsAndPersistsReport(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{ready: true, data: []byte("csv,data\n1,2\n")}
	cfg := Config{TickInterval: time.Minute, WorkerCount: 1, ExportDir: dir, ReportPollInterval: 5 * time.Millisecond, ReportPollTimeout: time.Second}
	s := New(cfg, source, audit.NewLogger(audit.NewMemoryStore()))

	job := Job{ID: "j1", Name: "daily-export", Enabled: true, AutoSchedule: true, Cron: "* * * * *"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if err := s.executeJob(context.Background(), s.jobs["j1"]); err != nil {
		t.Fatalf("executeJob: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "j1"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
}

func TestExecuteJobFailsWithNoReportSource(t *testing.T) {
	s := New(DefaultConfig(), nil, nil)
	if err := s.executeJob(context.Background(), Job{ID: "j1"}); err == nil {
		t.Fatal("expected error with no configured report source")
	}
}

func TestExecuteJobFailsWhenReportNeverReady(t *testing.T) {
	source := &fakeSource{ready: false}
	cfg := Config{TickInterval: time.Minute, WorkerCount: 1, ExportDir: t.TempDir(), ReportPollInterval: 5 * time.Millisecond, ReportPollTimeout: 20 * time.Millisecond}
	s := New(cfg, source, nil)
	if err := s.executeJob(context.Background(), Job{ID: "j1"}); err == nil {
		t.Fatal("expected timeout error when report never becomes ready")
	}
}

func TestApplyRetentionRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	jobDir := filepath.Join(dir, "j1")
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	stalePath := filepath.Join(jobDir, "old.csv")
	if err := os.WriteFile(stalePath, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	old := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(stalePath, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	s := New(Config{TickInterval: time.Minute, WorkerCount: 1, ExportDir: dir}, nil, nil)
	removed, err := s.applyRetention(Job{ID: "j1", RetentionDays: 1})
	if err != nil {
		t.Fatalf("applyRetention: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}

func TestDispatchDueEnqueuesMatchingJobs(t *testing.T) {
	s := New(DefaultConfig(), nil, nil)
	if err := s.AddJob(Job{ID: "j1", Enabled: true, AutoSchedule: true, Cron: "30 9 * * *"}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob(Job{ID: "j2", Enabled: false, AutoSchedule: true, Cron: "30 9 * * *"}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	s.dispatchDue(time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC))

	select {
	case job := <-s.queue:
		if job.ID != "j1" {
			t.Fatalf("job.ID = %q, want j1", job.ID)
		}
	default:
		t.Fatal("expected j1 to be enqueued")
	}

	select {
	case job := <-s.queue:
		t.Fatalf("expected no second job queued, got %q", job.ID)
	default:
	}
}
