package output

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/fatih/color"

	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

var ansiPattern = regexp.MustCompile("\033\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func noColor(t *testing.T) *Colors {
	t.Helper()
	old := color.NoColor
	t.Cleanup(func() { color.NoColor = old })
	color.NoColor = true
	return NewColors(ColorNever)
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"always", ColorAlways},
		{"never", ColorNever},
		{"auto", ColorAuto},
		{"", ColorAuto},
		{"invalid", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testutil.AssertEqual(t, ParseColorMode(tt.input), tt.want)
		})
	}
}

func TestNewColors_NeverMode(t *testing.T) {
	c := noColor(t)

	testutil.AssertEqual(t, c.Time("15:04"), "15:04")
	testutil.AssertEqual(t, c.Delay("+2"), "+2")
	testutil.AssertEqual(t, c.Line("S9"), "S9")
	testutil.AssertEqual(t, c.Mode("tram"), "tram")
	testutil.AssertEqual(t, c.Dest("Zürich HB"), "Zürich HB")
	testutil.AssertEqual(t, c.Soon("0′"), "0′")
	testutil.AssertEqual(t, c.Error("connection lost"), "connection lost")
	testutil.AssertEqual(t, c.Header("Departures"), "Departures")
	testutil.AssertEqual(t, c.Muted("details"), "details")
}

func TestNewColors_AlwaysMode(t *testing.T) {
	c := NewColors(ColorAlways)

	for _, got := range []string{c.Time("15:04"), c.DelayHigh("+12"), c.Line("S9")} {
		testutil.AssertContains(t, got, "\033[")
	}
	testutil.AssertEqual(t, stripANSI(c.Line("S9")), "S9")
}

func TestFormatDelay_NoColor(t *testing.T) {
	c := noColor(t)

	tests := []struct {
		name  string
		delay int
		want  string
	}{
		{"zero delay", 0, "    "},
		{"minor delay", 5, "  +5"},
		{"major delay", 12, " +12"},
		{"early", -3, "  -3"},
		{"large delay", 123, "+123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, c.FormatDelay(tt.delay), tt.want)
		})
	}
}

func TestFormatDelay_WithColor(t *testing.T) {
	c := NewColors(ColorAlways)

	testutil.AssertNotContains(t, c.FormatDelay(0), "\033[")
	for _, delay := range []int{5, 12, -3} {
		got := c.FormatDelay(delay)
		testutil.AssertContains(t, got, "\033[")
		testutil.AssertEqual(t, len(stripANSI(got)), 4)
	}
}

func TestFormatDelay_Width(t *testing.T) {
	c := noColor(t)
	for _, delay := range []int{0, 1, 9, 10, 99, 100, 999} {
		t.Run(fmt.Sprint(delay), func(t *testing.T) {
			testutil.AssertEqual(t, len(c.FormatDelay(delay)), 4)
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	c := noColor(t)
	testutil.AssertEqual(t, c.FormatCountdown(0, "0′"), "  0′")
	testutil.AssertEqual(t, c.FormatCountdown(12, "12′"), " 12′")

	colored := NewColors(ColorAlways)
	testutil.AssertEqual(t, stripANSI(colored.FormatCountdown(61, ">1h")), " >1h")
}

func TestColors_Sprintf(t *testing.T) {
	c := noColor(t)
	testutil.AssertEqual(t, c.Time("%02d:%02d", 14, 30), "14:30")
	testutil.AssertEqual(t, c.Line("S%d", 9), "S9")
}
