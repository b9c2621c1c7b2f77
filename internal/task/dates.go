package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDate parses a DD/MM/YYYY user input into UTC midnight of that
// calendar date. Malformed input and impossible calendar dates (31/04)
// are rejected.
func ParseDate(input string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(input), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("task: date %q is not DD/MM/YYYY", input)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("task: date %q: invalid day", input)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("task: date %q: invalid month", input)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("task: date %q: invalid year", input)
	}
	if year < 1000 || year > 9999 {
		return time.Time{}, fmt.Errorf("task: date %q: year out of range", input)
	}

	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/04 -> 01/05); reject anything that moved.
	if parsed.Day() != day || parsed.Month() != time.Month(month) || parsed.Year() != year {
		return time.Time{}, fmt.Errorf("task: date %q does not exist", input)
	}
	return parsed, nil
}

// TodayUTC returns UTC midnight of now's calendar date in loc.
func TodayUTC(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight of now's calendar date in loc, in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// TomorrowAnchor returns midnight of the day after now in loc. Tasks whose
// start date lies strictly after this anchor are hidden from the default
// open-task view.
func TomorrowAnchor(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now, loc).AddDate(0, 0, 1)
}
