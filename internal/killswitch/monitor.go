package killswitch

import (
	"context"
	"fmt"
	"time"
)

// Probe reports whether a dependency is currently healthy.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// MonitorConfig controls automatic halting: a probe is considered
// failing after FailuresBeforeHalt consecutive Check errors, polled
// every Interval.
type MonitorConfig struct {
	Interval          time.Duration
	FailuresBeforeHalt int
}

// DefaultMonitorConfig returns sane polling defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{Interval: 30 * time.Second, FailuresBeforeHalt: 3}
}

// Monitor runs a set of probes on a timer and auto-activates sw when one
// fails FailuresBeforeHalt consecutive times, extending the manual
// operator-override surface with an automatic health-driven trip.
type Monitor struct {
	cfg    MonitorConfig
	sw     *Switch
	probes []Probe

	failures map[string]int
}

// NewMonitor constructs a Monitor for sw using cfg.
func NewMonitor(cfg MonitorConfig, sw *Switch) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultMonitorConfig().Interval
	}
	if cfg.FailuresBeforeHalt <= 0 {
		cfg.FailuresBeforeHalt = DefaultMonitorConfig().FailuresBeforeHalt
	}
	return &Monitor{cfg: cfg, sw: sw, failures: make(map[string]int)}
}

// RegisterProbe adds p to the rotation.
func (m *Monitor) RegisterProbe(p Probe) {
	m.probes = append(m.probes, p)
}

// RunOnce checks every probe a single time, updating failure counters and
// activating the kill switch if any probe crosses the threshold. Returns
// the probes that failed this round.
func (m *Monitor) RunOnce(ctx context.Context) []string {
	var failed []string
	for _, p := range m.probes {
		if err := p.Check(ctx); err != nil {
			m.failures[p.Name()]++
			failed = append(failed, p.Name())
			if m.failures[p.Name()] >= m.cfg.FailuresBeforeHalt {
				reason := fmt.Sprintf("health probe %q failed %d consecutive checks", p.Name(), m.failures[p.Name()])
				_ = m.sw.Activate(ctx, reason, "health-monitor")
			}
		} else {
			m.failures[p.Name()] = 0
		}
	}
	return failed
}

// Run polls every probe on cfg.Interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}
