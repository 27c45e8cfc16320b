package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultIntervalSeconds is used whenever the interval field does not hold a positive integer.
const DefaultIntervalSeconds = 300

// ParseIntervalSeconds returns raw as a positive integer, or DefaultIntervalSeconds.
func ParseIntervalSeconds(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	// Only the leading integer counts: "45.5" and "45s" are 45.
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return DefaultIntervalSeconds
	}
	return n
}

// ParseClock parses "HH:MM". Missing or out-of-range input yields 00:00.
func ParseClock(raw string) (hour, minute int) {
	h, m, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, 0
	}
	hour, errH := strconv.Atoi(h)
	minute, errM := strconv.Atoi(m)
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0
	}
	return hour, minute
}

// ComposeSchedule builds the schedule for the active mode. The day field of
// cron_advanced is used verbatim.
func ComposeSchedule(s Snapshot) (Schedule, error) {
	switch s.ScheduleMode {
	case ModeInterval:
		return Interval{Seconds: ParseIntervalSeconds(s.Interval.Seconds)}, nil
	case ModeCronSimple:
		return CronSimple{Preset: s.CronSimple.Preset}, nil
	case ModeCronAdvanced:
		hour, minute := ParseClock(s.CronAdvanced.Time)
		return CronAdvanced{Hour: hour, Minute: minute, Day: s.CronAdvanced.Day}, nil
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", s.ScheduleMode)
	}
}

// parseAdvanced reverses AdvancedExpression. Everything after the fourth
// separator is the day field, kept verbatim even when empty or spaced.
func parseAdvanced(expr string) (CronAdvanced, error) {
	fields := strings.SplitN(expr, " ", 5)
	if len(fields) != 5 || fields[2] != "*" || fields[3] != "*" {
		return CronAdvanced{}, fmt.Errorf("cron expression %q is not of the form \"M H * * D\"", expr)
	}
	minute, errM := strconv.Atoi(fields[0])
	hour, errH := strconv.Atoi(fields[1])
	if errM != nil || errH != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return CronAdvanced{}, fmt.Errorf("cron expression %q has an invalid time", expr)
	}
	return CronAdvanced{Hour: hour, Minute: minute, Day: fields[4]}, nil
}
