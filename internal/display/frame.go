package display

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mobil-koeln/ojp-sign/internal/models"
)

const (
	lineWidth    = 4
	minutesWidth = 4

	// NoDataText is the placeholder for an empty snapshot
	NoDataText = "No departures"
)

// Row is one departure as shown on the dashboard
type Row struct {
	Line        string
	Destination string
	Minutes     string
}

// Frame is everything a panel needs to draw one screen
type Frame struct {
	State   State
	Title   string
	Clock   string
	Rows    []Row
	Message string
	Lines   []string
}

// FormatMinutes labels a whole-minute countdown
func FormatMinutes(minutes int) string {
	switch {
	case minutes <= 0:
		return "0′"
	case minutes > 60:
		return ">1h"
	default:
		return fmt.Sprintf("%d′", minutes)
	}
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// DashboardRows converts departures into at most maxRows rows for a screen
// columns wide.
func DashboardRows(deps []models.Departure, now time.Time, maxRows, columns int) []Row {
	n := min(len(deps), maxRows)
	destWidth := columns - lineWidth - minutesWidth - 2
	rows := make([]Row, 0, max(n, 0))
	for _, d := range deps[:max(n, 0)] {
		rows = append(rows, Row{
			Line:        Truncate(d.Line, lineWidth),
			Destination: Truncate(models.StationNameOnly(d.Direction), destWidth),
			Minutes:     FormatMinutes(d.MinutesUntil(now)),
		})
	}
	return rows
}

// Text lays the frame out as plain lines, columns wide
func (f Frame) Text(columns int) []string {
	var out []string

	title := Truncate(f.Title, columns-utf8.RuneCountInString(f.Clock)-1)
	if f.Clock != "" {
		pad := columns - utf8.RuneCountInString(title) - utf8.RuneCountInString(f.Clock)
		title += strings.Repeat(" ", max(pad, 1)) + f.Clock
	}
	out = append(out, title, strings.Repeat("-", columns))

	switch {
	case f.State == Dashboard && len(f.Rows) > 0:
		destWidth := columns - lineWidth - minutesWidth - 2
		for _, r := range f.Rows {
			out = append(out, fmt.Sprintf("%-*s %-*s %*s", lineWidth, r.Line, destWidth, r.Destination, minutesWidth, r.Minutes))
		}
	case f.Message != "":
		out = append(out, Truncate(f.Message, columns))
	}

	for _, l := range f.Lines {
		out = append(out, Truncate(l, columns))
	}
	return out
}
