// Package connectivity owns the network link lifecycle: joining the
// configured network, falling back to a local access point, reconnecting
// after losses, and probing for internet reachability once per session.
package connectivity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/events"
	"github.com/mobil-koeln/ojp-sign/internal/metrics"
)

const (
	DefaultAPSSID            = "CrowPanel-Setup"
	DefaultConnectTimeout    = 10 * time.Second
	DefaultReconnectInterval = 30 * time.Second
	DefaultTickInterval      = 100 * time.Millisecond
)

// State of the link state machine
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	APMode
)

var stateNames = map[State]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Connected:    "connected",
	APMode:       "ap_mode",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func allStateNames() []string {
	return []string{"disconnected", "connecting", "connected", "ap_mode"}
}

// Link is the network interface being managed
type Link interface {
	// Begin starts joining ssid. It returns before the join completes.
	Begin(ssid, password string) error
	Connected() bool
	StartAP(ssid string) error
	LocalIP() string
	APIP() string
}

// Prober checks whether the internet is reachable over the link
type Prober interface {
	Probe(ctx context.Context) error
}

// Credentials is the part of the config store the manager reads
type Credentials interface {
	HasWifiConfig() bool
	WifiSSID() string
	WifiPassword() string
}

// Options tunes timing. Zero values select the defaults.
type Options struct {
	APSSID            string
	ConnectTimeout    time.Duration
	ReconnectInterval time.Duration
	TickInterval      time.Duration
}

func (o *Options) fillDefaults() {
	if o.APSSID == "" {
		o.APSSID = DefaultAPSSID
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = DefaultReconnectInterval
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
}

// Manager drives the link state machine. Tick must only be called from one
// goroutine; the accessors are safe from any.
type Manager struct {
	link   Link
	prober Prober
	creds  Credentials
	bus    events.Publisher
	opts   Options
	now    func() time.Time
	log    zerolog.Logger

	mu           sync.RWMutex
	state        State
	attemptStart time.Time
	lastCheck    time.Time
	probed       bool
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a manager in the Disconnected state
func New(link Link, prober Prober, creds Credentials, bus events.Publisher, opts Options, log zerolog.Logger, options ...Option) *Manager {
	opts.fillDefaults()
	m := &Manager{
		link:   link,
		prober: prober,
		creds:  creds,
		bus:    bus,
		opts:   opts,
		now:    time.Now,
		log:    log,
		state:  Disconnected,
	}
	for _, o := range options {
		o(m)
	}
	metrics.SetState(metrics.ConnectivityState, Disconnected.String(), allStateNames()...)
	return m
}

// State returns the current state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connected reports whether the link is in the Connected state
func (m *Manager) Connected() bool {
	return m.State() == Connected
}

// IPAddress returns the access point address in AP mode and the station
// address otherwise.
func (m *Manager) IPAddress() string {
	if m.State() == APMode {
		return m.link.APIP()
	}
	return m.link.LocalIP()
}

// APSSID returns the name of the setup access point
func (m *Manager) APSSID() string {
	return m.opts.APSSID
}

// Start picks the first transition: join when credentials exist, otherwise
// open the setup access point.
func (m *Manager) Start(ctx context.Context) {
	if m.creds.HasWifiConfig() {
		m.Connect()
		return
	}
	m.log.Info().Msg("no network credentials, starting access point")
	m.StartAPMode(ctx)
}

// Connect begins a join attempt with the stored credentials
func (m *Manager) Connect() {
	ssid := m.creds.WifiSSID()
	m.log.Info().Str("ssid", ssid).Msg("connecting")
	if err := m.link.Begin(ssid, m.creds.WifiPassword()); err != nil {
		m.log.Warn().Err(err).Str("ssid", ssid).Msg("join request failed")
	}

	m.mu.Lock()
	m.attemptStart = m.now()
	m.probed = false
	m.mu.Unlock()
	m.setState(Connecting)
}

// StartAPMode opens the setup access point and stays there until restart
func (m *Manager) StartAPMode(ctx context.Context) {
	if err := m.link.StartAP(m.opts.APSSID); err != nil {
		m.log.Error().Err(err).Str("ssid", m.opts.APSSID).Msg("could not start access point")
	}
	m.setState(APMode)
	m.log.Info().Str("ssid", m.opts.APSSID).Str("ip", m.link.APIP()).Msg("access point started")
	m.publish(ctx, events.WifiApMode)
}

// Tick advances the state machine by one step
func (m *Manager) Tick(ctx context.Context) {
	now := m.now()

	switch m.State() {
	case Disconnected:
		m.mu.RLock()
		due := now.Sub(m.lastCheck) > m.opts.ReconnectInterval
		m.mu.RUnlock()
		if due && m.creds.HasWifiConfig() {
			m.log.Info().Msg("reconnecting")
			m.Connect()
			m.mu.Lock()
			m.lastCheck = now
			m.mu.Unlock()
		}

	case Connecting:
		if m.link.Connected() {
			m.mu.Lock()
			m.probed = false
			m.mu.Unlock()
			m.setState(Connected)
			m.log.Info().Str("ip", m.link.LocalIP()).Msg("connected")
			m.publish(ctx, events.WifiConnected)
			return
		}
		m.mu.RLock()
		expired := now.Sub(m.attemptStart) > m.opts.ConnectTimeout
		m.mu.RUnlock()
		if expired {
			m.log.Error().Dur("timeout", m.opts.ConnectTimeout).Msg("connection timed out, falling back to access point")
			m.StartAPMode(ctx)
			m.mu.Lock()
			m.lastCheck = now
			m.mu.Unlock()
		}

	case Connected:
		if !m.link.Connected() {
			m.mu.Lock()
			m.lastCheck = now
			m.probed = false
			m.mu.Unlock()
			m.setState(Disconnected)
			m.log.Error().Msg("connection lost")
			m.publish(ctx, events.WifiLost)
			return
		}
		m.mu.Lock()
		probe := !m.probed
		m.probed = true
		m.mu.Unlock()
		if probe {
			m.checkInternet(ctx)
		}

	case APMode:
	}
}

func (m *Manager) checkInternet(ctx context.Context) {
	if m.prober == nil {
		return
	}
	if err := m.prober.Probe(ctx); err != nil {
		m.log.Warn().Err(err).Msg("internet check failed")
		return
	}
	m.log.Info().Msg("internet check ok")
	m.publish(ctx, events.InternetOk)
}

// Run starts the machine and ticks it until ctx is done
func (m *Manager) Run(ctx context.Context) error {
	m.Start(ctx)

	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()

	if prev != s {
		m.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("state change")
		metrics.SetState(metrics.ConnectivityState, s.String(), allStateNames()...)
	}
}

func (m *Manager) publish(ctx context.Context, ev events.Event) {
	if err := m.bus.Publish(ctx, ev); err != nil {
		m.log.Warn().Err(err).Stringer("event", ev).Msg("could not publish event")
	}
}
