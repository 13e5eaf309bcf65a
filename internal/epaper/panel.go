package epaper

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"

	"github.com/mobil-koeln/ojp-sign/internal/display"
)

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Device is the subset of the waveshare driver the panel uses
type Device interface {
	Init() error
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Sleep() error
	Halt() error
	Bounds() image.Rectangle
}

// Panel implements display.Panel on top of an e-paper device. Frames are
// laid out in landscape and rotated when the device is portrait.
type Panel struct {
	dev    Device
	closer func() error
	log    zerolog.Logger
	ready  bool
}

// Open initializes the host, the SPI port and the hat. A failure leaves a
// panel that reports not ready so the sign keeps running headless.
func Open(port string, log zerolog.Logger) *Panel {
	p := &Panel{log: log}
	if err := hostInit(); err != nil {
		log.Error().Err(err).Msg("periph host init failed")
		return p
	}
	sp, err := spireg.Open(port)
	if err != nil {
		log.Error().Err(err).Str("port", port).Msg("open spi port failed")
		return p
	}
	dev, err := openHat(sp)
	if err != nil {
		_ = sp.Close()
		log.Error().Err(err).Msg("e-paper init failed")
		return p
	}
	p.dev = dev
	p.closer = sp.Close
	p.ready = true
	log.Info().Str("bounds", dev.Bounds().String()).Msg("e-paper ready")
	return p
}

func openHat(sp spi.Port) (*waveshare2in13v4.Dev, error) {
	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(sp, &opts)
	if err != nil {
		return nil, err
	}
	if err := dev.Init(); err != nil {
		return nil, err
	}
	return dev, nil
}

// NewPanel wraps an already initialized device
func NewPanel(dev Device, log zerolog.Logger) *Panel {
	return &Panel{dev: dev, log: log, ready: dev != nil}
}

func (p *Panel) Ready() bool { return p.ready }

// Wake re-runs the controller init sequence, which leaves deep sleep
func (p *Panel) Wake() error {
	if !p.ready {
		return errors.New("panel not initialized")
	}
	return p.dev.Init()
}

func (p *Panel) Draw(f display.Frame) error {
	if !p.ready {
		return errors.New("panel not initialized")
	}
	bounds := p.dev.Bounds()
	img := image1bit.NewVerticalLSB(bounds)
	draw.Draw(img, bounds, Canvas(f, bounds), image.Point{}, draw.Src)
	if err := p.dev.Draw(bounds, img, image.Point{}); err != nil {
		return fmt.Errorf("e-paper draw: %w", err)
	}
	return nil
}

func (p *Panel) Hibernate() error {
	if !p.ready {
		return nil
	}
	return p.dev.Sleep()
}

// Close halts the device and releases the SPI port
func (p *Panel) Close() error {
	if !p.ready {
		return nil
	}
	p.ready = false
	err := p.dev.Halt()
	if p.closer != nil {
		err = errors.Join(err, p.closer())
	}
	return err
}

// Canvas renders f for a device of the given bounds
func Canvas(f display.Frame, bounds image.Rectangle) *image.Gray {
	if bounds.Dy() > bounds.Dx() {
		return Rotate(Render(f, image.Pt(bounds.Dy(), bounds.Dx())))
	}
	return Render(f, bounds.Size())
}
