package ojp

import (
	"fmt"
	"strconv"
	"time"
)

const wallLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses "YYYY-MM-DDTHH:MM:SS" with an optional "Z" or "±HH:MM"
// suffix. Fractional seconds are ignored.
//
// Without a suffix the wall clock is taken as local time. With a suffix ("Z"
// counts as +00:00) the wall clock is first read as local time and then
// shifted by the difference between the local offset and the parsed offset.
// The local offset is measured at "now", not at the parsed instant, so results
// are off by the DST delta when a transition lies between the two.
func (c *Codec) ParseTimestamp(s string) (time.Time, error) {
	if len(s) < len(wallLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q too short", s)
	}
	wall, err := time.ParseInLocation(wallLayout, s[:len(wallLayout)], c.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	rest := s[len(wallLayout):]
	if len(rest) > 0 && rest[0] == '.' {
		i := 1
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		rest = rest[i:]
	}

	if rest == "" {
		return wall, nil
	}

	parsedOffset, err := parseOffset(rest)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	correction := localOffset(c.now(), c.location) - parsedOffset
	return wall.Add(correction), nil
}

// parseOffset accepts "Z", "±HH:MM" and "±HHMM"
func parseOffset(s string) (time.Duration, error) {
	if s == "Z" || s == "z" {
		return 0, nil
	}
	if len(s) != 6 && len(s) != 5 {
		return 0, fmt.Errorf("unsupported offset %q", s)
	}
	sign := time.Duration(1)
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("unsupported offset %q", s)
	}
	hh := s[1:3]
	mm := s[len(s)-2:]
	if len(s) == 6 && s[3] != ':' {
		return 0, fmt.Errorf("unsupported offset %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h > 23 {
		return 0, fmt.Errorf("unsupported offset %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return 0, fmt.Errorf("unsupported offset %q", s)
	}
	return sign * (time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// localOffset compares the local and UTC wall clocks of now
func localOffset(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	utc := now.UTC()
	localWall := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
	utcWall := time.Date(utc.Year(), utc.Month(), utc.Day(), utc.Hour(), utc.Minute(), utc.Second(), 0, time.UTC)
	return localWall.Sub(utcWall)
}
