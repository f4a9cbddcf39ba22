package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuietHours is a per-user daily window during which notifications are
// dropped, not queued. Start/End are "HH:MM" local times; the window may
// wrap past midnight (e.g., 22:00 -> 06:00).
type QuietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether t's local wall-clock time falls inside the
// window, inclusive of both ends.
func (q QuietHours) Contains(t time.Time) (bool, error) {
	start, err := parseMinuteOfDay(q.Start)
	if err != nil {
		return false, fmt.Errorf("quiet hours start: %w", err)
	}
	end, err := parseMinuteOfDay(q.End)
	if err != nil {
		return false, fmt.Errorf("quiet hours end: %w", err)
	}

	cur := t.Hour()*60 + t.Minute()
	if start <= end {
		return cur >= start && cur <= end, nil
	}
	// window spans midnight
	return cur >= start || cur <= end, nil
}

func parseMinuteOfDay(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return h*60 + m, nil
}
