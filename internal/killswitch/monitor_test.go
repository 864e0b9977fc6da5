package killswitch

import (
	"context"
	"errors"
	"testing"
)

type fakeProbe struct {
	name string
	fail bool
}

func (p *fakeProbe) Name() string { return p.name }
func (p *fakeProbe) Check(context.Context) error {
	if p.fail {
		return errors.New("probe down")
	}
	return nil
}

func TestMonitorActivatesAfterThreshold(t *testing.T) {
	sw := newTestSwitch(t, false, "")
	m := NewMonitor(MonitorConfig{FailuresBeforeHalt: 2}, sw)
	probe := &fakeProbe{name: "broker", fail: true}
	m.RegisterProbe(probe)

	failed := m.RunOnce(context.Background())
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed probe, got %d", len(failed))
	}
	if sw.IsEnabled() {
		t.Fatal("expected switch to stay released below threshold")
	}

	m.RunOnce(context.Background())
	if !sw.IsEnabled() {
		t.Fatal("expected switch to activate at threshold")
	}
}

func TestMonitorResetsFailureCountOnSuccess(t *testing.T) {
	sw := newTestSwitch(t, false, "")
	m := NewMonitor(MonitorConfig{FailuresBeforeHalt: 2}, sw)
	probe := &fakeProbe{name: "broker", fail: true}
	m.RegisterProbe(probe)

	m.RunOnce(context.Background())
	probe.fail = false
	m.RunOnce(context.Background())
	probe.fail = true
	m.RunOnce(context.Background())

	if sw.IsEnabled() {
		t.Fatal("expected failure streak to have reset after a healthy check")
	}
}
