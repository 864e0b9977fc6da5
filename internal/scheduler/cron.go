// Package scheduler is the cron-driven background runner for long-
// running data-export queries against the broker adapter's reporting
// endpoint. No cron-expression-parsing library exists anywhere in the
// example pack (checked across every example repo's go.mod), so this
// package implements its own minimal 5/6-field cron-field matcher in the
// teacher's plain-stdlib style: a time.Ticker firing once a minute,
// comparing time.Now()'s fields against the parsed field-sets. This is
// the one ambient concern in the repository built on the standard
// library alone.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field (minute hour dom month dow) or 6-field
// (second minute hour dom month dow) cron expression.
type Schedule struct {
	seconds map[int]bool // nil means "every second" (5-field form: always nil)
	minutes map[int]bool
	hours   map[int]bool
	doms    map[int]bool
	months  map[int]bool
	dows    map[int]bool
}

// ParseSchedule accepts both 5-field and 6-field cron expressions.
func ParseSchedule(expr string) (Schedule, error) {
	fields := strings.Fields(strings.TrimSpace(expr))
	switch len(fields) {
	case 5:
		fields = append([]string{"*"}, fields...)
	case 6:
		// already has seconds
	default:
		return Schedule{}, fmt.Errorf("scheduler: cron expression %q must have 5 or 6 fields, got %d", expr, len(fields))
	}

	sec, err := parseField(fields[0], 0, 59)
	if err != nil {
		return Schedule{}, err
	}
	min, err := parseField(fields[1], 0, 59)
	if err != nil {
		return Schedule{}, err
	}
	hour, err := parseField(fields[2], 0, 23)
	if err != nil {
		return Schedule{}, err
	}
	dom, err := parseField(fields[3], 1, 31)
	if err != nil {
		return Schedule{}, err
	}
	month, err := parseField(fields[4], 1, 12)
	if err != nil {
		return Schedule{}, err
	}
	dow, err := parseField(fields[5], 0, 6)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{seconds: sec, minutes: min, hours: hour, doms: dom, months: month, dows: dow}, nil
}

// parseField parses one cron field: "*", "N", "N,M,...", "N-M", or
// "*/N". Returns nil for "*" (meaning "every value").
func parseField(field string, min, max int) (map[int]bool, error) {
	if field == "*" {
		return nil, nil
	}

	out := make(map[int]bool)
	for _, part := range strings.Split(field, ",") {
		if strings.HasPrefix(part, "*/") {
			step, err := strconv.Atoi(strings.TrimPrefix(part, "*/"))
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("scheduler: invalid step field %q", part)
			}
			for v := min; v <= max; v += step {
				out[v] = true
			}
			continue
		}
		if dash := strings.IndexByte(part, '-'); dash >= 0 {
			lo, err1 := strconv.Atoi(part[:dash])
			hi, err2 := strconv.Atoi(part[dash+1:])
			if err1 != nil || err2 != nil || lo > hi {
				return nil, fmt.Errorf("scheduler: invalid range field %q", part)
			}
			for v := lo; v <= hi; v++ {
				out[v] = true
			}
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil || v < min || v > max {
			return nil, fmt.Errorf("scheduler: invalid field value %q (want %d-%d)", part, min, max)
		}
		out[v] = true
	}
	return out, nil
}

// Matches reports whether now satisfies the schedule. Matching is at
// minute granularity when the expression is 5-field (seconds is the
// implicit "*" set, so any second of a matching minute matches).
func (s Schedule) Matches(now time.Time) bool {
	return matchField(s.seconds, now.Second()) &&
		matchField(s.minutes, now.Minute()) &&
		matchField(s.hours, now.Hour()) &&
		matchField(s.doms, now.Day()) &&
		matchField(s.months, int(now.Month())) &&
		matchField(s.dows, int(now.Weekday()))
}

func matchField(set map[int]bool, v int) bool {
	if set == nil {
		return true
	}
	return set[v]
}
