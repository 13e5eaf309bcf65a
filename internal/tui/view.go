package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mobil-koeln/ojp-sign/internal/output"
)

const maxVisibleStops = 8

// View renders the entire TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	parts := []string{renderHeader(), m.renderSign()}
	if m.focus == focusSearch || m.focus == focusStops || len(m.stops) > 0 || m.stopsLoading || m.stopsErr != nil {
		parts = append(parts, m.renderSearch())
	}
	if m.status != "" {
		parts = append(parts, styleMuted.Render(" "+m.status))
	}
	parts = append(parts, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderHeader() string {
	return styleLogo.Render("ojp-sign") + styleMuted.Render("  panel simulator")
}

// renderSign shows the last frame the orchestrator drew.
func (m Model) renderSign() string {
	if !m.hasFrame {
		return stylePanelNormal.Width(m.deps.Columns + 2).Render(styleLoading.Render("Waiting for first frame..."))
	}
	sign := output.RenderFrame(m.frame, m.deps.Columns)
	return sign + "\n" + styleMuted.Render(fmt.Sprintf(" frame #%d  state %s", m.frames, m.frame.State))
}

func (m Model) renderSearch() string {
	border := stylePanelNormal
	if m.focus == focusSearch || m.focus == focusStops {
		border = stylePanelFocused
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render("Stop: ") + m.searchInput.View())

	switch {
	case m.stopsLoading:
		b.WriteString("\n" + styleLoading.Render(" Searching..."))
	case m.stopsErr != nil:
		b.WriteString("\n" + styleError.Render(" Error: "+m.stopsErr.Error()))
	default:
		start, end := visibleRange(m.stopCursor, len(m.stops), maxVisibleStops)
		for i := start; i < end; i++ {
			s := m.stops[i]
			line := fmt.Sprintf("  %s %s", s.DisplayName(), styleMuted.Render(s.ID))
			if i == m.stopCursor && m.focus == focusStops {
				line = styleSelected.Render("> "+s.DisplayName()) + " " + styleLine.Render(s.ID)
			}
			b.WriteString("\n" + line)
		}
	}

	width := max(m.width-2, m.deps.Columns+2)
	return border.Width(width).Render(b.String())
}

func (m Model) renderStatusBar() string {
	var hints string
	switch m.focus {
	case focusSearch:
		hints = "Enter:search  Tab:results  Esc:back  Ctrl+C:quit"
	case focusStops:
		hints = "j/k:navigate  Enter:use stop  /:search  Esc:back"
	default:
		link := ""
		if m.deps.Link != nil {
			link = "  [link down]"
			if m.deps.Link.Connected() {
				link = "  [link up]"
			}
		}
		hints = "m:menu  M:hold menu  e:exit  r:rotary  w:link  /:stop search  q:quit" + link
	}
	return styleStatusBar.Width(m.width).Render(" " + hints)
}

// visibleRange calculates the start and end indices for a scrollable list.
func visibleRange(cursor, total, maxVisible int) (int, int) {
	if total <= maxVisible {
		return 0, total
	}

	start := cursor - maxVisible/2
	if start < 0 {
		start = 0
	}
	end := start + maxVisible
	if end > total {
		end = total
		start = end - maxVisible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}
