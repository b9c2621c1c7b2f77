// Package schedule fires the per-guild recurring jobs: morning briefing,
// Monday digest, overdue and tomorrow-due reminders, Friday stats and the
// completed-of-the-day recap. Fire times come from the store as wall-clock
// strings interpreted in each guild's timezone.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock parses a configured fire time: "HH:MM" or a bare hour 0-23.
func ParseClock(value string) (hour, minute int, err error) {
	value = strings.TrimSpace(value)
	if m := clockRe.FindStringSubmatch(value); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute, nil
	}
	if h, err := strconv.Atoi(value); err == nil && h >= 0 && h <= 23 {
		return h, 0, nil
	}
	return 0, 0, fmt.Errorf("schedule: invalid time %q (HH:MM or hour 0-23)", value)
}

// NextFire returns the next time at or after now falling on one of the given
// weekdays at hour:minute in loc.
func NextFire(now time.Time, loc *time.Location, hour, minute int, days map[time.Weekday]bool) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	for i := 0; i < 8; i++ {
		if days[candidate.Weekday()] && candidate.After(now) {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
