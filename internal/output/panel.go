package output

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/mobil-koeln/ojp-sign/internal/display"
)

var (
	frameBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)

	frameTitle = lipgloss.NewStyle().Bold(true)
	frameError = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// RenderFrame lays out a frame as a bordered text block
func RenderFrame(f display.Frame, columns int) string {
	lines := f.Text(columns)
	if len(lines) > 0 {
		lines[0] = frameTitle.Render(lines[0])
	}
	if f.State == display.Error {
		for i := 2; i < len(lines); i++ {
			lines[i] = frameError.Render(lines[i])
		}
	}
	return frameBorder.Width(columns + 2).Render(strings.Join(lines, "\n"))
}

// TerminalPanel draws frames to a terminal, or any writer, in place of an
// e-paper panel.
type TerminalPanel struct {
	w           io.Writer
	columns     int
	clearScreen bool

	mu     sync.Mutex
	awake  bool
	frames int
}

// NewTerminalPanel creates a panel that writes to w. With clearScreen set the
// screen is wiped before every frame.
func NewTerminalPanel(w io.Writer, columns int, clearScreen bool) *TerminalPanel {
	if columns <= 0 {
		columns = display.DefaultColumns
	}
	return &TerminalPanel{w: w, columns: columns, clearScreen: clearScreen}
}

func (p *TerminalPanel) Ready() bool { return p.w != nil }

func (p *TerminalPanel) Wake() error {
	p.mu.Lock()
	p.awake = true
	p.mu.Unlock()
	return nil
}

func (p *TerminalPanel) Draw(f display.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.awake {
		return errors.New("draw on hibernating panel")
	}
	if p.clearScreen {
		ClearScreen(p.w)
	}
	if _, err := fmt.Fprintln(p.w, RenderFrame(f, p.columns)); err != nil {
		return err
	}
	p.frames++
	return nil
}

func (p *TerminalPanel) Hibernate() error {
	p.mu.Lock()
	p.awake = false
	p.mu.Unlock()
	return nil
}

// Frames returns how many frames were drawn
func (p *TerminalPanel) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}
