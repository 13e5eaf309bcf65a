package epaper

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/logging"
	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

func inked(img *image.Gray, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.GrayAt(x, y).Y < 128 {
				n++
			}
		}
	}
	return n
}

func TestColumns(t *testing.T) {
	testutil.AssertEqual(t, Columns(250), 34)
	testutil.AssertEqual(t, Columns(0), 1)
}

func TestRender_BlankFrameHasRuleOnly(t *testing.T) {
	img := Render(display.Frame{}, image.Pt(250, 122))
	testutil.AssertEqual(t, img.Bounds().Size(), image.Pt(250, 122))

	// no title text, just the separator spanning the width
	testutil.AssertEqual(t, inked(img, img.Bounds()), 250)
}

func TestRender_DrawsText(t *testing.T) {
	f := display.Frame{
		State: display.Dashboard,
		Title: "Bucheggplatz",
		Clock: "09:00",
		Rows:  []display.Row{{Line: "11", Destination: "Auzelg", Minutes: "5′"}},
	}
	img := Render(f, image.Pt(250, 122))

	header := image.Rect(0, 0, 250, 15)
	body := image.Rect(0, 25, 250, 45)
	testutil.AssertTrue(t, inked(img, header) > 0)
	testutil.AssertTrue(t, inked(img, body) > 0)
	testutil.AssertEqual(t, inked(img, image.Rect(0, 60, 250, 122)), 0)
}

func TestRender_ClipsOverflow(t *testing.T) {
	f := display.Frame{Title: "x", Lines: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}}
	img := Render(f, image.Pt(100, 40))
	testutil.AssertEqual(t, img.Bounds().Size(), image.Pt(100, 40))
}

func TestRotate(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 2))
	src.SetGray(0, 0, color.Gray{Y: 1})
	src.SetGray(3, 1, color.Gray{Y: 2})

	dst := Rotate(src)
	testutil.AssertEqual(t, dst.Bounds().Size(), image.Pt(2, 4))
	// top-left of the landscape ends up top-right
	testutil.AssertEqual(t, dst.GrayAt(1, 0).Y, uint8(1))
	testutil.AssertEqual(t, dst.GrayAt(0, 3).Y, uint8(2))
}

func TestCanvas_Orientation(t *testing.T) {
	portrait := Canvas(display.Frame{Title: "x"}, image.Rect(0, 0, 122, 250))
	testutil.AssertEqual(t, portrait.Bounds().Size(), image.Pt(122, 250))

	landscape := Canvas(display.Frame{Title: "x"}, image.Rect(0, 0, 296, 128))
	testutil.AssertEqual(t, landscape.Bounds().Size(), image.Pt(296, 128))
}

type fakeDevice struct {
	bounds  image.Rectangle
	inits   int
	draws   int
	sleeps  int
	halted  bool
	drawErr error
}

func (d *fakeDevice) Init() error { d.inits++; return nil }
func (d *fakeDevice) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.drawErr != nil {
		return d.drawErr
	}
	d.draws++
	return nil
}
func (d *fakeDevice) Sleep() error            { d.sleeps++; return nil }
func (d *fakeDevice) Halt() error             { d.halted = true; return nil }
func (d *fakeDevice) Bounds() image.Rectangle { return d.bounds }

func TestPanel_Cycle(t *testing.T) {
	dev := &fakeDevice{bounds: image.Rect(0, 0, 122, 250)}
	p := NewPanel(dev, logging.Nop())

	testutil.AssertTrue(t, p.Ready())
	testutil.AssertNil(t, p.Wake())
	testutil.AssertNil(t, p.Draw(display.Frame{Title: "Boot"}))
	testutil.AssertNil(t, p.Hibernate())

	testutil.AssertEqual(t, dev.inits, 1)
	testutil.AssertEqual(t, dev.draws, 1)
	testutil.AssertEqual(t, dev.sleeps, 1)

	testutil.AssertNil(t, p.Close())
	testutil.AssertTrue(t, dev.halted)
	testutil.AssertFalse(t, p.Ready())
}

func TestPanel_DrawError(t *testing.T) {
	errBusy := errors.New("busy")
	p := NewPanel(&fakeDevice{bounds: image.Rect(0, 0, 122, 250), drawErr: errBusy}, logging.Nop())
	testutil.AssertErrorIs(t, p.Draw(display.Frame{}), errBusy)
}

func TestPanel_NotReady(t *testing.T) {
	p := NewPanel(nil, logging.Nop())
	testutil.AssertFalse(t, p.Ready())
	testutil.AssertError(t, p.Wake())
	testutil.AssertError(t, p.Draw(display.Frame{}))
	testutil.AssertNil(t, p.Hibernate())
}
