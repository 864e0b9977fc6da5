// Package calendar supplies the risk evaluator's trading-window (R5) and
// session-edge (R12) inputs, plus a news-blackout extension built on the
// Impact/EconEvent vocabulary and a Session helper the risk rules
// actually consult.
package calendar

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Impact is the expected market-moving severity of an economic event.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// EconEvent is a single scheduled economic release.
type EconEvent struct {
	ID          string
	Title       string
	ScheduledAt time.Time
	Impact      Impact
}

// EventID derives a deterministic id from title + scheduled time, used
// for deduplication when merging events from multiple feeds.
func EventID(title string, scheduledAt time.Time) string {
	key := strings.ToUpper(strings.TrimSpace(title)) + "|" + scheduledAt.UTC().Format(time.RFC3339)
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Window is a trading session's open/close, both expressed as
// minutes-since-midnight in the session's timezone.
type Window struct {
	OpenMinute  int
	CloseMinute int
	Location    *time.Location
}

// Session evaluates whether a point in time falls within the configured
// trading window (R5) and near its edges (R12), and applies an optional
// news blackout around high-impact events.
type Session struct {
	window Window
	events []EconEvent

	AllowExtendedHours  bool
	NewsBlackoutBefore  time.Duration
	NewsBlackoutAfter   time.Duration
}

// NewSession builds a Session over window. events may be updated later
// via SetEvents as the calendar feed refreshes.
func NewSession(window Window) *Session {
	return &Session{window: window}
}

// SetEvents replaces the set of known economic events.
func (s *Session) SetEvents(events []EconEvent) {
	s.events = events
}

// InTradingWindow reports whether now falls inside the configured
// session, honoring AllowExtendedHours.
func (s *Session) InTradingWindow(now time.Time) bool {
	if s.AllowExtendedHours {
		return true
	}
	loc := s.window.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()
	return minute >= s.window.OpenMinute && minute < s.window.CloseMinute
}

// NearSessionEdge reports whether now is within edgeMinutes of the
// session's open or close (R12).
func (s *Session) NearSessionEdge(now time.Time, edgeMinutes int) bool {
	loc := s.window.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()
	return minute < s.window.OpenMinute+edgeMinutes || minute > s.window.CloseMinute-edgeMinutes
}

// NewsBlackoutActive reports whether now falls within the configured
// blackout window around any high-impact event — R5's extension: a
// high-impact event in progress closes the trading window regardless of
// the regular session hours, unless overridden by the caller.
func (s *Session) NewsBlackoutActive(now time.Time) (bool, *EconEvent) {
	for i, ev := range s.events {
		if ev.Impact != ImpactHigh {
			continue
		}
		blackoutStart := ev.ScheduledAt.Add(-s.NewsBlackoutBefore)
		blackoutEnd := ev.ScheduledAt.Add(s.NewsBlackoutAfter)
		if !now.Before(blackoutStart) && !now.After(blackoutEnd) {
			return true, &s.events[i]
		}
	}
	return false, nil
}
