// Package schedule implements the five-field cron expressions used by the
// periodic feed refresh.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const wildcard = -1

// Schedule is a parsed "minute hour day month weekday" cron expression.
// A field value of -1 means "every".
type Schedule struct {
	Minute  int
	Hour    int
	Day     int
	Month   int
	Weekday int // cron convention, 0 = Sunday
}

var weekdayNames = map[string]int{
	"SUN": 0, "SUNDAY": 0,
	"MON": 1, "MONDAY": 1,
	"TUE": 2, "TUESDAY": 2,
	"WED": 3, "WEDNESDAY": 3,
	"THU": 4, "THURSDAY": 4,
	"FRI": 5, "FRIDAY": 5,
	"SAT": 6, "SATURDAY": 6,
}

// Parse parses a five-field cron expression. Weekdays accept both numbers
// (0 = Sunday) and names ("FRI", "friday").
func Parse(expr string) (Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Schedule{}, fmt.Errorf("invalid schedule %q: expected 5 fields (minute hour day month weekday)", expr)
	}

	var s Schedule
	var err error
	if s.Minute, err = parseField(fields[0], 0, 59); err != nil {
		return Schedule{}, fmt.Errorf("minute: %w", err)
	}
	if s.Hour, err = parseField(fields[1], 0, 23); err != nil {
		return Schedule{}, fmt.Errorf("hour: %w", err)
	}
	if s.Day, err = parseField(fields[2], 1, 31); err != nil {
		return Schedule{}, fmt.Errorf("day: %w", err)
	}
	if s.Month, err = parseField(fields[3], 1, 12); err != nil {
		return Schedule{}, fmt.Errorf("month: %w", err)
	}
	if s.Weekday, err = parseWeekday(fields[4]); err != nil {
		return Schedule{}, fmt.Errorf("weekday: %w", err)
	}
	return s, nil
}

func parseField(field string, min, max int) (int, error) {
	if field == "*" {
		return wildcard, nil
	}
	value, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", field)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("value %d out of range [%d,%d]", value, min, max)
	}
	return value, nil
}

func parseWeekday(field string) (int, error) {
	if field == "*" {
		return wildcard, nil
	}
	if day, ok := weekdayNames[strings.ToUpper(field)]; ok {
		return day, nil
	}
	return parseField(field, 0, 6)
}

// Matches reports whether the schedule fires at the given minute.
func (s Schedule) Matches(t time.Time) bool {
	if s.Minute != wildcard && t.Minute() != s.Minute {
		return false
	}
	if s.Hour != wildcard && t.Hour() != s.Hour {
		return false
	}
	if s.Day != wildcard && t.Day() != s.Day {
		return false
	}
	if s.Month != wildcard && int(t.Month()) != s.Month {
		return false
	}
	if s.Weekday != wildcard && int(t.Weekday()) != s.Weekday {
		return false
	}
	return true
}

// Next returns the first minute strictly after t at which the schedule
// fires. The scan is bounded; a schedule that cannot fire within four years
// (e.g. day 31 in a 30-day month chain) returns the zero time.
func (s Schedule) Next(t time.Time) time.Time {
	candidate := t.Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(4, 0, 1)
	for candidate.Before(limit) {
		if s.Matches(candidate) {
			return candidate
		}
		candidate = candidate.Add(time.Minute)
	}
	return time.Time{}
}
