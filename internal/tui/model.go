package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/models"
)

type focusPanel int

const (
	focusSign focusPanel = iota
	focusSearch
	focusStops
)

// Button is a simulated hardware button
type Button interface {
	Press()
	PressLong()
}

// Link is the simulated network link
type Link interface {
	Toggle() bool
	Connected() bool
}

// Searcher looks up stops by name
type Searcher interface {
	SearchStops(ctx context.Context, query string) ([]models.StopSearchResult, error)
}

// StationStore persists the chosen stop
type StationStore interface {
	SetStation(st models.StationConfig) error
}

// Refresher requests fresh departures
type Refresher interface {
	TriggerUpdate()
}

// Deps are the simulator's collaborators. Nil members disable their keys.
type Deps struct {
	Frames    <-chan display.Frame
	Menu      Button
	Exit      Button
	Rotary    Button
	Link      Link
	Searcher  Searcher
	Store     StationStore
	Refresher Refresher
	Columns   int
}

// Model is the root Bubble Tea model of the sign simulator.
type Model struct {
	deps   Deps
	width  int
	height int
	focus  focusPanel

	frame    display.Frame
	hasFrame bool
	frames   int

	searchInput  textinput.Model
	stops        []models.StopSearchResult
	stopCursor   int
	stopsLoading bool
	stopsErr     error
	searchSeq    int

	// status is the last action, shown above the key help
	status string
}

// New creates a new simulator model.
func New(deps Deps) Model {
	if deps.Columns <= 0 {
		deps.Columns = display.DefaultColumns
	}

	ti := textinput.New()
	ti.Placeholder = "Search stop..."
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		deps:        deps,
		focus:       focusSign,
		searchInput: ti,
	}
}

// Init starts listening for frames.
func (m Model) Init() tea.Cmd {
	return waitForFrame(m.deps.Frames)
}
