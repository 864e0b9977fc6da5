package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tradegate/internal/audit"
	"tradegate/internal/contracts"
	"tradegate/internal/observability"
)

// Config controls the Scheduler's polling cadence and worker pool size.
type Config struct {
	TickInterval time.Duration
	WorkerCount  int
	ExportDir    string
	ReportPollInterval time.Duration
	ReportPollTimeout  time.Duration
}

// DefaultConfig ticks once a minute with 4 workers: each due unit of work
// dispatches onto the worker pool, bounded to a fixed size so a slow job
// never starves the next tick.
func DefaultConfig() Config {
	return Config{
		TickInterval:       time.Minute,
		WorkerCount:        4,
		ExportDir:          "./exports",
		ReportPollInterval: 5 * time.Second,
		ReportPollTimeout:  2 * time.Minute,
	}
}

// Scheduler fires due Jobs onto a bounded worker pool.
type Scheduler struct {
	cfg    Config
	source ReportSource
	audit  *audit.Logger

	mu   sync.Mutex
	jobs map[string]Job

	queue chan Job
	stop  chan struct{}
	wg    sync.WaitGroup
}

// New builds a Scheduler. source may be nil; jobs will then fail at fire
// time with a descriptive error rather than panicking.
func New(cfg Config, source ReportSource, auditLogger *audit.Logger) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		cfg:    cfg,
		source: source,
		audit:  auditLogger,
		jobs:   make(map[string]Job),
		queue:  make(chan Job, 64),
		stop:   make(chan struct{}),
	}
}

// AddJob registers or replaces a Job, parsing its cron expression.
func (s *Scheduler) AddJob(job Job) error {
	schedule, err := ParseSchedule(job.Cron)
	if err != nil {
		return err
	}
	job.schedule = schedule

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

// Start launches the worker pool and the minute-ticker dispatch loop. It
// returns immediately; call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case now := <-ticker.C:
				s.dispatchDue(now)
			}
		}
	}()
}

// Stop signals the dispatch loop and workers to exit. If wait is true it
// blocks until all in-flight jobs finish.
func (s *Scheduler) Stop(wait bool) {
	close(s.stop)
	close(s.queue)
	if wait {
		s.wg.Wait()
	}
}

func (s *Scheduler) dispatchDue(now time.Time) {
	s.mu.Lock()
	due := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Enabled && job.AutoSchedule && job.schedule.Matches(now) {
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		select {
		case s.queue <- job:
		default:
			observability.LogEvent(context.Background(), "warn", "scheduler_queue_full", map[string]any{"job_id": job.ID})
		}
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.queue:
			if !ok {
				return
			}
			s.runJob(ctx, job)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	start := time.Now()
	s.logEvent(ctx, contracts.EventSchedulerJobStarted, job, nil)

	err := s.executeJob(ctx, job)
	observability.RecordSchedulerJob(ctx, job.ID, time.Since(start), err)

	if err != nil {
		s.logEvent(ctx, contracts.EventSchedulerJobFailed, job, map[string]any{"error": err.Error()})
		return
	}
	s.logEvent(ctx, contracts.EventSchedulerJobCompleted, job, nil)

	if job.RetentionDays > 0 {
		if n, rerr := s.applyRetention(job); rerr != nil {
			observability.LogEvent(ctx, "warn", "scheduler_retention_failed", map[string]any{"job_id": job.ID, "error": rerr.Error()})
		} else if n > 0 {
			observability.LogEvent(ctx, "info", "scheduler_retention_swept", map[string]any{"job_id": job.ID, "files_removed": n})
		}
	}
}

func (s *Scheduler) executeJob(ctx context.Context, job Job) error {
	if s.source == nil {
		return fmt.Errorf("scheduler: job %s has no configured report source", job.ID)
	}

	requestID, err := s.source.RequestReport(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("scheduler: request report for %s: %w", job.ID, err)
	}

	deadline := time.Now().Add(s.cfg.ReportPollTimeout)
	ticker := time.NewTicker(s.cfg.ReportPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ready, err := s.source.ReportReady(ctx, requestID)
			if err != nil {
				return fmt.Errorf("scheduler: poll report %s: %w", requestID, err)
			}
			if ready {
				return s.downloadAndPersist(ctx, job, requestID)
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("scheduler: report %s not ready after %s", requestID, s.cfg.ReportPollTimeout)
			}
		}
	}
}

func (s *Scheduler) downloadAndPersist(ctx context.Context, job Job, requestID string) error {
	data, err := s.source.DownloadReport(ctx, requestID)
	if err != nil {
		return fmt.Errorf("scheduler: download report %s: %w", requestID, err)
	}

	dir := filepath.Join(s.cfg.ExportDir, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scheduler: create export dir: %w", err)
	}
	path := filepath.Join(dir, requestID+".csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scheduler: write export file: %w", err)
	}
	return nil
}

func (s *Scheduler) applyRetention(job Job) (int, error) {
	dir := filepath.Join(s.cfg.ExportDir, job.ID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -job.RetentionDays)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *Scheduler) logEvent(ctx context.Context, eventType contracts.EventType, job Job, extra map[string]any) {
	if s.audit == nil {
		return
	}
	data := map[string]any{"job_id": job.ID, "job_name": job.Name}
	for k, v := range extra {
		data[k] = v
	}
	_, _ = s.audit.Log(ctx, eventType, data)
}
