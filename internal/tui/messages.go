package tui

import (
	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/models"
)

// frameMsg carries a frame the orchestrator drew.
type frameMsg display.Frame

// searchResultMsg carries stop search results back to the model.
// seq is used for stale-result detection.
type searchResultMsg struct {
	seq   int
	stops []models.StopSearchResult
	err   error
}

// stationSavedMsg reports the outcome of storing the chosen stop.
type stationSavedMsg struct {
	station models.StationConfig
	err     error
}
