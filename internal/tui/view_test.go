package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/models"
	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

func sized(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	return m
}

func TestView_Loading(t *testing.T) {
	_, m := newFixture()
	testutil.AssertEqual(t, m.View(), "Loading...")
}

func TestView_WaitingForFrame(t *testing.T) {
	_, m := newFixture()
	m = sized(t, m)
	out := m.View()
	testutil.AssertContains(t, out, "Waiting for first frame")
	testutil.AssertContains(t, out, "m:menu")
	testutil.AssertContains(t, out, "[link up]")
}

func TestView_Frame(t *testing.T) {
	_, m := newFixture()
	m = sized(t, m)
	m, _ = update(t, m, frameMsg(display.Frame{
		State: display.Dashboard,
		Title: "Bucheggplatz",
		Clock: "09:00",
		Rows:  []display.Row{{Line: "11", Destination: "Auzelg", Minutes: "5′"}},
	}))

	out := m.View()
	testutil.AssertContains(t, out, "Bucheggplatz")
	testutil.AssertContains(t, out, "Auzelg")
	testutil.AssertContains(t, out, "frame #1")
	testutil.AssertNotContains(t, out, "Stop:")
}

func TestView_SearchResults(t *testing.T) {
	_, m := newFixture()
	m = sized(t, m)
	m.focus = focusStops
	m.stops = []models.StopSearchResult{{ID: "8591123", Name: "Bucheggplatz", Locality: "Zürich"}}

	out := m.View()
	testutil.AssertContains(t, out, "Bucheggplatz, Zürich")
	testutil.AssertContains(t, out, "8591123")
	testutil.AssertContains(t, out, "Enter:use stop")
}

func TestView_SearchError(t *testing.T) {
	_, m := newFixture()
	m = sized(t, m)
	m.focus = focusSearch
	m.stopsErr = errors.New("api key or station id not configured")

	testutil.AssertContains(t, m.View(), "Error: api key")
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		cursor, total, max int
		start, end         int
	}{
		{0, 3, 8, 0, 3},
		{0, 20, 8, 0, 8},
		{10, 20, 8, 6, 14},
		{19, 20, 8, 12, 20},
	}
	for _, tt := range tests {
		start, end := visibleRange(tt.cursor, tt.total, tt.max)
		testutil.AssertEqual(t, start, tt.start)
		testutil.AssertEqual(t, end, tt.end)
	}
}
