// Package epaper drives a Waveshare-style SPI e-paper hat through periph.
package epaper

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/models"
)

const (
	glyphWidth  = 7
	lineHeight  = 14
	marginX     = 3
	marginY     = 2
	ruleYOffset = 4
)

var (
	ink   = color.Gray{Y: 0}
	paper = color.Gray{Y: 255}
)

// Columns returns how many glyphs fit across a landscape canvas of width w
func Columns(w int) int {
	return max((w-2*marginX)/glyphWidth, 1)
}

// Render draws f onto a white landscape canvas of the given size. Text is
// transliterated because the built-in face only covers ASCII.
func Render(f display.Frame, size image.Point) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(img, img.Bounds(), &image.Uniform{paper}, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
	}

	lines := f.Text(Columns(size.X))
	y := marginY + basicfont.Face7x13.Ascent
	for i, l := range lines {
		if y > size.Y {
			break
		}
		// the dashed separator becomes a solid rule
		if i == 1 {
			hline(img, y-lineHeight+ruleYOffset+basicfont.Face7x13.Descent)
			y += lineHeight / 2
			continue
		}
		d.Dot = fixed.P(marginX, y)
		d.DrawString(models.ToASCII(l))
		y += lineHeight
	}
	return img
}

func hline(img *image.Gray, y int) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetGray(x, y, ink)
	}
}

// Rotate turns a landscape canvas clockwise into the portrait orientation
// most small hats scan in.
func Rotate(src *image.Gray) *image.Gray {
	sb := src.Bounds()
	w, h := sb.Dy(), sb.Dx()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetGray(x, y, src.GrayAt(sb.Min.X+y, sb.Min.Y+w-1-x))
		}
	}
	return dst
}
