package scheduler

import (
	"testing"
	"time"
)

func TestParseScheduleRejectsWrongFieldCount(t *testing.T) {
	if _, err := ParseSchedule("* * *"); err == nil {
		t.Fatal("expected error for a 3-field expression")
	}
}

func TestParseScheduleAcceptsFiveAndSixFields(t *testing.T) {
	if _, err := ParseSchedule("0 9 * * *"); err != nil {
		t.Fatalf("5-field parse: %v", err)
	}
	if _, err := ParseSchedule("30 0 9 * * *"); err != nil {
		t.Fatalf("6-field parse: %v", err)
	}
}

func TestScheduleMatchesExactMinuteHour(t *testing.T) {
	sched, err := ParseSchedule("30 9 * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	matching := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	if !sched.Matches(matching) {
		t.Fatal("expected 09:30 to match")
	}
	nonMatching := time.Date(2026, 1, 5, 9, 31, 0, 0, time.UTC)
	if sched.Matches(nonMatching) {
		t.Fatal("expected 09:31 not to match")
	}
}

func TestScheduleStepExpression(t *testing.T) {
	sched, err := ParseSchedule("*/15 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	for _, minute := range []int{0, 15, 30, 45} {
		moment := time.Date(2026, 1, 5, 12, minute, 0, 0, time.UTC)
		if !sched.Matches(moment) {
			t.Fatalf("expected minute %d to match */15", minute)
		}
	}
	if sched.Matches(time.Date(2026, 1, 5, 12, 7, 0, 0, time.UTC)) {
		t.Fatal("expected minute 7 not to match */15")
	}
}

func TestScheduleRangeExpression(t *testing.T) {
	sched, err := ParseSchedule("0 9-17 * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	if !sched.Matches(time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("expected hour 12 to match 9-17")
	}
	if sched.Matches(time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)) {
		t.Fatal("expected hour 18 not to match 9-17")
	}
}

func TestScheduleDayOfWeekList(t *testing.T) {
	sched, err := ParseSchedule("0 9 * * 1,3,5")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	monday := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	if monday.Weekday() != time.Monday {
		t.Fatalf("test fixture bug: expected Monday, got %v", monday.Weekday())
	}
	if !sched.Matches(monday) {
		t.Fatal("expected Monday to match 1,3,5")
	}
	tuesday := monday.AddDate(0, 0, 1)
	if sched.Matches(tuesday) {
		t.Fatal("expected Tuesday not to match 1,3,5")
	}
}

func TestParseScheduleRejectsOutOfRangeValue(t *testing.T) {
	if _, err := ParseSchedule("0 25 * * *"); err == nil {
		t.Fatal("expected error for hour 25")
	}
}
