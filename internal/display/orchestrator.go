package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/events"
	"github.com/mobil-koeln/ojp-sign/internal/metrics"
	"github.com/mobil-koeln/ojp-sign/internal/models"
)

const (
	DefaultMaxRows = 4
	DefaultColumns = 30
)

// Panel is the slow, power-hungry output device. Calls are never concurrent.
type Panel interface {
	// Ready reports whether the device was initialized
	Ready() bool
	Wake() error
	Draw(f Frame) error
	Hibernate() error
}

// EventSource is the consumer side of the event bus
type EventSource interface {
	ReceiveOr(ctx context.Context, signal <-chan struct{}) (events.Event, bool, error)
}

// DepartureSource is pulled on DataAvailable
type DepartureSource interface {
	GetDepartures() []models.Departure
}

// StationSource supplies the configured station, name already shortened
type StationSource interface {
	Station() models.StationConfig
}

// NetworkInfo describes how to reach the device
type NetworkInfo interface {
	IPAddress() string
	APSSID() string
}

// Options tunes layout and time. Zero values select the defaults.
type Options struct {
	MaxRows  int
	Columns  int
	Location *time.Location
	Now      func() time.Time
	Version  string
}

// Status is a copy of the orchestrator's state for outside readers
type Status struct {
	State     State  `json:"-"`
	StateName string `json:"state"`
	Message   string `json:"message,omitempty"`
	LastEvent string `json:"last_event,omitempty"`
	Renders   int    `json:"renders"`
}

// Orchestrator is the single consumer of the event bus
type Orchestrator struct {
	panel   Panel
	source  EventSource
	deps    DepartureSource
	station StationSource
	network NetworkInfo
	opts    Options
	log     zerolog.Logger
	info    chan struct{}

	mu         sync.RWMutex
	state      State
	message    string
	lastEvent  events.Event
	seenEvent  bool
	renders    int
	departures []models.Departure
}

// New creates an orchestrator in the Boot state
func New(panel Panel, source EventSource, deps DepartureSource, station StationSource, network NetworkInfo, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.Columns <= 0 {
		opts.Columns = DefaultColumns
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		panel:   panel,
		source:  source,
		deps:    deps,
		station: station,
		network: network,
		opts:    opts,
		log:     log,
		info:    make(chan struct{}, 1),
		state:   Boot,
	}
}

// Status returns the current state
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st := Status{
		State:     o.state,
		StateName: o.state.String(),
		Message:   o.message,
		Renders:   o.renders,
	}
	if o.seenEvent {
		st.LastEvent = o.lastEvent.String()
	}
	return st
}

// ShowInfo asks the consumer loop to switch to the Info screen. Requests
// made before the loop gets to them collapse into one.
func (o *Orchestrator) ShowInfo() {
	select {
	case o.info <- struct{}{}:
	default:
	}
}

// Run consumes events until ctx is done. Each event is fully rendered
// before the next one is taken.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		ev, ok, err := o.source.ReceiveOr(ctx, o.info)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive event: %w", err)
		}
		if !ok {
			o.enterInfo()
			continue
		}
		o.Handle(ev)
	}
}

// Handle applies ev to the state machine and renders the result
func (o *Orchestrator) Handle(ev events.Event) {
	var deps []models.Departure
	if ev == events.DataAvailable && o.deps != nil {
		deps = o.deps.GetDepartures()
	}

	o.mu.Lock()
	prev := o.state
	o.state, o.message = Transition(o.state, o.message, ev)
	if ev == events.DataAvailable {
		o.departures = deps
	}
	o.lastEvent = ev
	o.seenEvent = true
	next := o.state
	o.mu.Unlock()

	if prev != next {
		o.log.Info().Stringer("event", ev).Stringer("from", prev).Stringer("to", next).Msg("display state change")
	} else {
		o.log.Debug().Stringer("event", ev).Stringer("state", next).Msg("redraw")
	}
	o.render()
}

func (o *Orchestrator) enterInfo() {
	o.mu.Lock()
	o.state, o.message = Info, ""
	o.mu.Unlock()
	o.log.Info().Msg("showing info screen")
	o.render()
}

func (o *Orchestrator) render() {
	if o.panel == nil || !o.panel.Ready() {
		o.log.Error().Msg("display not initialized, skipping render")
		return
	}

	if err := o.panel.Wake(); err != nil {
		o.log.Error().Err(err).Msg("display wake failed")
		return
	}

	frame := o.buildFrame()
	if err := o.panel.Draw(frame); err != nil {
		o.log.Error().Err(err).Stringer("state", frame.State).Msg("display draw failed")
	} else {
		o.mu.Lock()
		o.renders++
		o.mu.Unlock()
		metrics.DisplayRenders.WithLabelValues(frame.State.String()).Inc()
	}

	if err := o.panel.Hibernate(); err != nil {
		o.log.Error().Err(err).Msg("display hibernate failed")
	}
}

func (o *Orchestrator) buildFrame() Frame {
	o.mu.RLock()
	state, message, deps := o.state, o.message, o.departures
	lastEvent, seen, renders := o.lastEvent, o.seenEvent, o.renders
	o.mu.RUnlock()

	now := o.opts.Now().In(o.opts.Location)
	f := Frame{State: state}

	switch state {
	case Boot:
		f.Title = "Departure board"
		f.Message = "Starting..."

	case Setup:
		f.Title = "Setup"
		ssid, ip := "", ""
		if o.network != nil {
			ssid, ip = o.network.APSSID(), o.network.IPAddress()
		}
		f.Lines = []string{
			"Join Wi-Fi: " + ssid,
			"Open http://" + ip,
		}

	case Dashboard:
		f.Title = "Departures"
		if o.station != nil {
			if name := o.station.Station().Name; name != "" {
				f.Title = name
			}
		}
		f.Clock = now.Format("15:04")
		f.Rows = DashboardRows(deps, now, o.opts.MaxRows, o.opts.Columns)
		if len(f.Rows) == 0 {
			f.Message = NoDataText
		}

	case Error:
		f.Title = "Error"
		f.Message = message

	case Info:
		f.Title = "Info"
		f.Clock = now.Format("15:04")
		last := "none"
		if seen {
			last = lastEvent.String()
		}
		f.Lines = []string{
			"Last event: " + last,
			fmt.Sprintf("Update #%d", renders+1),
		}
		if o.network != nil {
			f.Lines = append(f.Lines, "IP: "+o.network.IPAddress())
		}
		if o.opts.Version != "" {
			f.Lines = append(f.Lines, "Version: "+o.opts.Version)
		}
	}
	return f
}

// NullPanel accepts every frame and draws nothing
type NullPanel struct{}

func (NullPanel) Ready() bool      { return true }
func (NullPanel) Wake() error      { return nil }
func (NullPanel) Draw(Frame) error { return nil }
func (NullPanel) Hibernate() error { return nil }
