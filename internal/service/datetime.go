package service

import (
	"fmt"
	"strings"
	"time"
)

// Clients send dates and times either as the bare component or as a
// full date-time string; both create and update accept either form and
// keep only the component they need.

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

var timeOfDayLayouts = []string{
	"15:04:05",
	"15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDate extracts the calendar date from raw, normalized to
// midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			y, m, d := parsed.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// ParseTimeOfDay extracts the time-of-day component from raw in the
// canonical "15:04:05" form.
func ParseTimeOfDay(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty time")
	}
	for _, layout := range timeOfDayLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("unparseable time %q", raw)
}
