package calendar

import (
	"testing"
	"time"
)

func testWindow() Window {
	return Window{OpenMinute: 9*60 + 30, CloseMinute: 16 * 60, Location: time.UTC}
}

func TestSessionInTradingWindow(t *testing.T) {
	s := NewSession(testWindow())

	inside := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if !s.InTradingWindow(inside) {
		t.Fatal("expected noon to be inside the trading window")
	}

	before := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	if s.InTradingWindow(before) {
		t.Fatal("expected 8am to be outside the trading window")
	}

	after := time.Date(2026, 1, 5, 17, 0, 0, 0, time.UTC)
	if s.InTradingWindow(after) {
		t.Fatal("expected 5pm to be outside the trading window")
	}
}

func TestSessionAllowExtendedHoursBypassesWindow(t *testing.T) {
	s := NewSession(testWindow())
	s.AllowExtendedHours = true
	before := time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)
	if !s.InTradingWindow(before) {
		t.Fatal("expected extended hours to allow any time")
	}
}

func TestSessionNearSessionEdge(t *testing.T) {
	s := NewSession(testWindow())
	nearOpen := time.Date(2026, 1, 5, 9, 35, 0, 0, time.UTC)
	if !s.NearSessionEdge(nearOpen, 10) {
		t.Fatal("expected time just after open to be near the edge")
	}

	midday := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if s.NearSessionEdge(midday, 10) {
		t.Fatal("expected midday to not be near the edge")
	}
}

func TestSessionNewsBlackoutActive(t *testing.T) {
	s := NewSession(testWindow())
	s.NewsBlackoutBefore = 10 * time.Minute
	s.NewsBlackoutAfter = 10 * time.Minute
	eventTime := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	s.SetEvents([]EconEvent{{ID: "fomc", Title: "FOMC Rate Decision", ScheduledAt: eventTime, Impact: ImpactHigh}})

	active, ev := s.NewsBlackoutActive(eventTime.Add(5 * time.Minute))
	if !active || ev == nil || ev.ID != "fomc" {
		t.Fatalf("expected blackout active near event, got active=%v ev=%v", active, ev)
	}

	active, _ = s.NewsBlackoutActive(eventTime.Add(time.Hour))
	if active {
		t.Fatal("expected no blackout an hour after the event")
	}
}

func TestSessionNewsBlackoutIgnoresLowImpact(t *testing.T) {
	s := NewSession(testWindow())
	s.NewsBlackoutBefore = 10 * time.Minute
	s.NewsBlackoutAfter = 10 * time.Minute
	eventTime := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	s.SetEvents([]EconEvent{{ID: "cpi", ScheduledAt: eventTime, Impact: ImpactLow}})

	active, _ := s.NewsBlackoutActive(eventTime)
	if active {
		t.Fatal("expected low-impact events to never trigger a blackout")
	}
}

func TestEventIDIsDeterministic(t *testing.T) {
	ts := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	a := EventID("FOMC Rate Decision", ts)
	b := EventID("fomc rate decision", ts)
	if a != b {
		t.Fatalf("EventID should be case-insensitive: %q != %q", a, b)
	}

	c := EventID("CPI Release", ts)
	if a == c {
		t.Fatal("expected different titles to produce different ids")
	}
}
