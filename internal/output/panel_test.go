package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

func TestRenderFrame(t *testing.T) {
	f := display.Frame{
		State: display.Dashboard,
		Title: "Bucheggplatz",
		Clock: "09:00",
		Rows:  []display.Row{{Line: "11", Destination: "Auzelg", Minutes: "5′"}},
	}
	out := stripANSI(RenderFrame(f, 30))
	testutil.AssertContains(t, out, "Bucheggplatz")
	testutil.AssertContains(t, out, "Auzelg")
	testutil.AssertContains(t, out, "╭")
}

func TestTerminalPanel_Cycle(t *testing.T) {
	var buf bytes.Buffer
	p := NewTerminalPanel(&buf, 30, false)
	testutil.AssertTrue(t, p.Ready())

	// drawing without waking fails
	testutil.AssertError(t, p.Draw(display.Frame{Title: "x"}))

	testutil.AssertNil(t, p.Wake())
	testutil.AssertNil(t, p.Draw(display.Frame{State: display.Error, Title: "Error", Message: display.ErrConnectionLost}))
	testutil.AssertNil(t, p.Hibernate())

	testutil.AssertEqual(t, p.Frames(), 1)
	testutil.AssertContains(t, stripANSI(buf.String()), "connection lost")
	testutil.AssertFalse(t, strings.Contains(buf.String(), "\033[2J"))
}

func TestTerminalPanel_ClearScreen(t *testing.T) {
	var buf bytes.Buffer
	p := NewTerminalPanel(&buf, 0, true)
	testutil.AssertNil(t, p.Wake())
	testutil.AssertNil(t, p.Draw(display.Frame{Title: "Boot"}))
	testutil.AssertContains(t, buf.String(), "\033[2J")
}

func TestTerminalPanel_NilWriterNotReady(t *testing.T) {
	p := NewTerminalPanel(nil, 30, false)
	testutil.AssertFalse(t, p.Ready())
}
