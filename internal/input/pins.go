package input

import (
	"fmt"
	"sync"
	"sync/atomic"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// GPIOPin reads an active-low button wired to a GPIO line with the internal
// pull-up enabled.
type GPIOPin struct {
	pin gpio.PinIO
}

// OpenGPIOPin opens the named line, e.g. "GPIO17"
func OpenGPIOPin(name string) (*GPIOPin, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure %s as input: %w", name, err)
	}
	return &GPIOPin{pin: p}, nil
}

func (p *GPIOPin) Pressed() bool {
	return p.pin.Read() == gpio.Low
}

// OpenGPIOPins opens the three button lines
func OpenGPIOPins(menu, exit, rotary string) (Pins, error) {
	var pins Pins
	var err error
	if pins.Menu, err = openPin(menu); err != nil {
		return Pins{}, err
	}
	if pins.Exit, err = openPin(exit); err != nil {
		return Pins{}, err
	}
	if pins.Rotary, err = openPin(rotary); err != nil {
		return Pins{}, err
	}
	return pins, nil
}

func openPin(name string) (Pin, error) {
	if name == "" {
		return nil, nil
	}
	return OpenGPIOPin(name)
}

// SimPin turns discrete presses from a keyboard or web request into a level
// the poller can sample. Press and PressLong may be called from any
// goroutine; Pressed only from the poller.
type SimPin struct {
	short atomic.Bool
	long  atomic.Bool

	shortTicks int
	longTicks  int
	remaining  int
}

// NewSimPin creates a pin whose presses last long enough to register as a
// short or a long press under opts.
func NewSimPin(opts Options) *SimPin {
	opts.fillDefaults()
	shortTicks := int(opts.Debounce/opts.PollInterval) + 2
	longTicks := int(opts.LongPress/opts.PollInterval) + 1
	if shortTicks*int(opts.PollInterval) >= int(opts.LongPress) {
		shortTicks = longTicks - 1
	}
	return &SimPin{shortTicks: shortTicks, longTicks: longTicks}
}

// Press latches one short press
func (p *SimPin) Press() { p.short.Store(true) }

// PressLong latches one long press
func (p *SimPin) PressLong() { p.long.Store(true) }

func (p *SimPin) Pressed() bool {
	if p.remaining == 0 {
		switch {
		case p.long.Swap(false):
			p.remaining = p.longTicks
		case p.short.Swap(false):
			p.remaining = p.shortTicks
		}
	}
	if p.remaining > 0 {
		p.remaining--
		return true
	}
	return false
}

// SimPins creates a simulated pin per button
func SimPins(opts Options) (Pins, [3]*SimPin) {
	sims := [3]*SimPin{NewSimPin(opts), NewSimPin(opts), NewSimPin(opts)}
	return Pins{Menu: sims[Menu], Exit: sims[Exit], Rotary: sims[Rotary]}, sims
}
