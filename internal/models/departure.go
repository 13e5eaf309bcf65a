package models

import (
	"time"
)

// Departure is a single upcoming departure at the configured stop.
// Values are never mutated after parsing.
type Departure struct {
	Line      string    `json:"line"`
	Direction string    `json:"direction"`
	Scheduled time.Time `json:"scheduled"`
	Estimated time.Time `json:"estimated,omitzero"`
	Mode      string    `json:"mode,omitempty"`
}

// HasEstimate reports whether a realtime estimate is present
func (d Departure) HasEstimate() bool {
	return !d.Estimated.IsZero() && d.Estimated.Unix() > 0
}

// EffectiveTime returns the realtime estimate if present, otherwise the timetable time
func (d Departure) EffectiveTime() time.Time {
	if d.HasEstimate() {
		return d.Estimated
	}
	return d.Scheduled
}

// Delay returns the delay in whole minutes, or 0 without an estimate
func (d Departure) Delay() int {
	if !d.HasEstimate() {
		return 0
	}
	return int(d.Estimated.Sub(d.Scheduled).Minutes())
}

// MinutesUntil returns the floor of minutes from now until the effective time
func (d Departure) MinutesUntil(now time.Time) int {
	diff := d.EffectiveTime().Sub(now)
	mins := int(diff / time.Minute)
	if diff < 0 && diff%time.Minute != 0 {
		mins--
	}
	return mins
}

// LineInfo identifies a line serving a stop. All three fields form the identity.
type LineInfo struct {
	Line      string `json:"line"`
	Direction string `json:"direction"`
	Mode      string `json:"mode,omitempty"`
}

// LinesFromDepartures returns the distinct lines in first-seen order
func LinesFromDepartures(deps []Departure) []LineInfo {
	seen := make(map[LineInfo]struct{}, len(deps))
	lines := make([]LineInfo, 0, len(deps))
	for _, d := range deps {
		li := LineInfo{Line: d.Line, Direction: d.Direction, Mode: d.Mode}
		if _, ok := seen[li]; ok {
			continue
		}
		seen[li] = struct{}{}
		lines = append(lines, li)
	}
	return lines
}
