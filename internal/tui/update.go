package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/ojp-sign/internal/display"
)

// Update handles all messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		m.frame = display.Frame(msg)
		m.hasFrame = true
		m.frames++
		return m, waitForFrame(m.deps.Frames)

	case searchResultMsg:
		return m.handleSearchResult(msg)

	case stationSavedMsg:
		if msg.err != nil {
			m.status = "Saving stop failed: " + msg.err.Error()
		} else {
			m.status = "Stop set to " + msg.station.Name
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusSearch {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	// Ignore stale results
	if msg.seq != m.searchSeq {
		return m, nil
	}
	m.stopsLoading = false
	m.stopsErr = msg.err
	if msg.err != nil {
		return m, nil
	}
	m.stops = msg.stops
	m.stopCursor = 0
	if len(m.stops) > 0 {
		m.focus = focusStops
		m.searchInput.Blur()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKeys(msg)
	case focusStops:
		return m.handleStopKeys(msg)
	}
	return m.handleSignKeys(msg)
}

func (m Model) handleSignKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "m":
		m.status = press(m.deps.Menu, false, "Menu")
	case "M":
		m.status = press(m.deps.Menu, true, "Menu")
	case "e":
		m.status = press(m.deps.Exit, false, "Exit")
	case "r":
		m.status = press(m.deps.Rotary, false, "Rotary")
	case "w":
		if m.deps.Link == nil {
			return m, nil
		}
		if m.deps.Link.Toggle() {
			m.status = "Link up"
		} else {
			m.status = "Link down"
		}
	case "/":
		if m.deps.Searcher == nil {
			return m, nil
		}
		m.focus = focusSearch
		cmd := m.searchInput.Focus()
		return m, tea.Batch(cmd, textinput.Blink)
	}
	return m, nil
}

func press(b Button, long bool, name string) string {
	if b == nil {
		return ""
	}
	if long {
		b.PressLong()
		return name + " held"
	}
	b.Press()
	return name + " pressed"
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.searchInput.Value())
		if query == "" {
			return m, nil
		}
		m.searchSeq++
		m.stopsLoading = true
		m.stopsErr = nil
		return m, searchStops(m.deps.Searcher, query, m.searchSeq)

	case "esc":
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.focus = focusSign
		return m, nil

	case "tab":
		if len(m.stops) > 0 {
			m.focus = focusStops
			m.searchInput.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleStopKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.stopCursor < len(m.stops)-1 {
			m.stopCursor++
		}
	case "k", "up":
		if m.stopCursor > 0 {
			m.stopCursor--
		}
	case "enter":
		if m.stopCursor >= len(m.stops) || m.deps.Store == nil {
			return m, nil
		}
		stop := m.stops[m.stopCursor]
		m.focus = focusSign
		m.status = "Saving " + stop.Name + "..."
		return m, saveStation(m.deps.Store, m.deps.Refresher, stop)
	case "/":
		m.focus = focusSearch
		cmd := m.searchInput.Focus()
		return m, cmd
	case "esc", "q":
		m.focus = focusSign
	}
	return m, nil
}
