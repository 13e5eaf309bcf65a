// Package input turns button levels into short and long presses.
package input

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/events"
)

const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultDebounce     = 50 * time.Millisecond
	DefaultLongPress    = 3 * time.Second
)

// Button identifies one physical control
type Button int

const (
	Menu Button = iota
	Exit
	Rotary

	numButtons
)

func (b Button) String() string {
	switch b {
	case Menu:
		return "menu"
	case Exit:
		return "exit"
	case Rotary:
		return "rotary"
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

// Pin reports the level of one button; true while held
type Pin interface {
	Pressed() bool
}

// Pins wires a Pin to every button. A nil pin is never pressed.
type Pins struct {
	Menu   Pin
	Exit   Pin
	Rotary Pin
}

// Refreshable is anything that can be asked to refresh its data now
type Refreshable interface {
	TriggerUpdate()
}

// Resetter wipes persisted configuration
type Resetter interface {
	ResetToFactory() error
}

// Restarter restarts the device. It does not return control to the caller's
// loop in any meaningful way; the process is expected to go down.
type Restarter interface {
	Restart(reason string)
}

// Options tunes press detection. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	Debounce     time.Duration
	LongPress    time.Duration
}

func (o *Options) fillDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.LongPress <= 0 {
		o.LongPress = DefaultLongPress
	}
}

type buttonState struct {
	held      time.Duration
	longFired bool
}

// Service polls the pins and acts on presses
type Service struct {
	pins      [numButtons]Pin
	bus       events.Publisher
	refresher Refreshable
	resetter  Resetter
	restarter Restarter
	opts      Options
	log       zerolog.Logger

	state [numButtons]buttonState
}

// New creates an input service
func New(pins Pins, bus events.Publisher, refresher Refreshable, resetter Resetter, restarter Restarter, opts Options, log zerolog.Logger) *Service {
	opts.fillDefaults()
	return &Service{
		pins:      [numButtons]Pin{Menu: pins.Menu, Exit: pins.Exit, Rotary: pins.Rotary},
		bus:       bus,
		refresher: refresher,
		resetter:  resetter,
		restarter: restarter,
		opts:      opts,
		log:       log,
	}
}

// Run polls every PollInterval until ctx is done
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Poll()
		}
	}
}

// Poll samples every pin once. Run calls it; tests call it directly.
func (s *Service) Poll() {
	for b := Button(0); b < numButtons; b++ {
		pin := s.pins[b]
		s.sample(b, pin != nil && pin.Pressed())
	}
}

func (s *Service) sample(b Button, pressed bool) {
	st := &s.state[b]
	if pressed {
		st.held += s.opts.PollInterval
		if !st.longFired && st.held >= s.opts.LongPress {
			st.longFired = true
			s.longPress(b)
		}
		return
	}

	if st.held == 0 {
		return
	}
	if !st.longFired && st.held > s.opts.Debounce && st.held < s.opts.LongPress {
		s.shortPress(b)
	}
	*st = buttonState{}
}

func (s *Service) shortPress(b Button) {
	s.log.Info().Stringer("button", b).Msg("short press")

	var ev events.Event
	switch b {
	case Menu:
		if s.refresher != nil {
			s.refresher.TriggerUpdate()
		}
		ev = events.ButtonMenu
	case Exit:
		ev = events.ButtonExit
	case Rotary:
		ev = events.ButtonRotary
	default:
		return
	}
	if !s.bus.TryPublish(ev) {
		s.log.Warn().Stringer("event", ev).Msg("event queue full, press dropped")
	}
}

func (s *Service) longPress(b Button) {
	if b != Menu {
		s.log.Debug().Stringer("button", b).Msg("long press ignored")
		return
	}

	s.log.Warn().Msg("menu held, resetting to factory settings")
	if s.resetter != nil {
		if err := s.resetter.ResetToFactory(); err != nil {
			s.log.Error().Err(err).Msg("factory reset failed")
		}
	}
	if s.restarter != nil {
		s.restarter.Restart("factory reset")
	}
}
