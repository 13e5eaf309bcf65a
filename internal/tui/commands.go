package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/models"
)

const apiTimeout = 5 * time.Second

// waitForFrame returns a tea.Cmd that blocks until the panel draws.
func waitForFrame(frames <-chan display.Frame) tea.Cmd {
	if frames == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return nil
		}
		return frameMsg(f)
	}
}

// searchStops returns a tea.Cmd that searches for stops.
func searchStops(s Searcher, query string, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()

		stops, err := s.SearchStops(ctx, query)
		return searchResultMsg{seq: seq, stops: stops, err: err}
	}
}

// saveStation stores the stop and asks for fresh departures.
func saveStation(store StationStore, refresher Refresher, stop models.StopSearchResult) tea.Cmd {
	return func() tea.Msg {
		st := models.StationConfig{Name: stop.Name, ID: stop.ID}
		if err := store.SetStation(st); err != nil {
			return stationSavedMsg{station: st, err: err}
		}
		if refresher != nil {
			refresher.TriggerUpdate()
		}
		return stationSavedMsg{station: st}
	}
}
