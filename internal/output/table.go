package output

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/models"
)

// TableOptions configures the table output
type TableOptions struct {
	Colors   *Colors
	Location *time.Location
	Now      time.Time
	ShowMode bool
}

func (o TableOptions) colors() *Colors {
	if o.Colors == nil {
		return NewColors(ColorNever)
	}
	return o.Colors
}

func (o TableOptions) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// RenderDepartures renders departures as a formatted table
func RenderDepartures(w io.Writer, departures []models.Departure, opts TableOptions) {
	if len(departures) == 0 {
		_, _ = fmt.Fprintln(w, "No departures found.")
		return
	}

	c := opts.colors()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	for _, dep := range departures {
		// Time (timetable)
		timeStr := dep.Scheduled.In(opts.location()).Format("15:04")

		// Delay (fixed 4-char width)
		delayStr := c.FormatDelay(dep.Delay())

		// Line (truncate/pad to 6 chars)
		lineStr := fmt.Sprintf("%-6s", display.Truncate(dep.Line, 6))

		minutes := dep.MinutesUntil(now)
		countdown := c.FormatCountdown(minutes, display.FormatMinutes(minutes))

		modeStr := ""
		if opts.ShowMode && dep.Mode != "" {
			modeStr = " " + c.Mode("[%s]", dep.Mode)
		}

		// Format the line: TIME DELAY LINE DEST ... COUNTDOWN
		_, _ = fmt.Fprintf(w, "%s %s  %s %s  %s%s\n",
			c.Time(timeStr),
			delayStr,
			c.Line(lineStr),
			countdown,
			c.Dest("%s", dep.Direction),
			modeStr,
		)
	}
}

// RenderStops renders stop search results as a formatted list
func RenderStops(w io.Writer, stops []models.StopSearchResult, opts TableOptions) {
	if len(stops) == 0 {
		_, _ = fmt.Fprintln(w, "No stops found.")
		return
	}

	c := opts.colors()

	_, _ = fmt.Fprintln(w, c.Header("Found stops:"))
	_, _ = fmt.Fprintln(w)

	for _, s := range stops {
		_, _ = fmt.Fprintf(w, "  %s\n", c.Line("%s", s.DisplayName()))
		_, _ = fmt.Fprintf(w, "    %s %s\n", c.Muted("ID:"), s.ID)
		_, _ = fmt.Fprintf(w, "    %s sign config station %s %q\n",
			c.Muted("Use:"),
			s.ID,
			s.Name,
		)
		_, _ = fmt.Fprintln(w)
	}
}

// RenderLines renders the lines serving a stop
func RenderLines(w io.Writer, lines []models.LineInfo, opts TableOptions) {
	if len(lines) == 0 {
		_, _ = fmt.Fprintln(w, "No lines found.")
		return
	}

	c := opts.colors()
	for _, l := range lines {
		mode := ""
		if l.Mode != "" {
			mode = " " + c.Mode("[%s]", l.Mode)
		}
		_, _ = fmt.Fprintf(w, "%s %s%s\n", c.Line("%-6s", l.Line), c.Dest("%s", l.Direction), mode)
	}
}

// RenderSettings renders key/value pairs sorted by key
func RenderSettings(w io.Writer, values map[string]string, opts TableOptions) {
	c := opts.colors()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := values[k]
		if v == "" {
			v = c.Muted("(unset)")
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", c.Header("%-9s", k), v)
	}
}
