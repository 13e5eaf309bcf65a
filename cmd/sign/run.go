package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mobil-koeln/ojp-sign/internal/api"
	"github.com/mobil-koeln/ojp-sign/internal/config"
	"github.com/mobil-koeln/ojp-sign/internal/connectivity"
	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/epaper"
	"github.com/mobil-koeln/ojp-sign/internal/events"
	"github.com/mobil-koeln/ojp-sign/internal/input"
	"github.com/mobil-koeln/ojp-sign/internal/logging"
	"github.com/mobil-koeln/ojp-sign/internal/output"
	"github.com/mobil-koeln/ojp-sign/internal/timesync"
	"github.com/mobil-koeln/ojp-sign/internal/transport"
	"github.com/mobil-koeln/ojp-sign/internal/tui"
	"github.com/mobil-koeln/ojp-sign/internal/web"
)

const probeTimeout = 5 * time.Second

var errRestartRequested = errors.New("restart requested")

// Run/simulate flags
var (
	flagPanel   string
	flagListen  string
	flagNoWeb   bool
	flagLogFile string
	flagOffline bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sign (default command)",
	Long: `Run the sign until interrupted.

The panel is chosen by the "panel" setting or --panel:
  epaper     Waveshare SPI hat with GPIO buttons
  terminal   Frames are printed to stdout
  none       Nothing is drawn (headless, web API only)

A restart requested by a button or the web API exits with status 3 so a
supervisor (systemd Restart=on-failure) starts the sign again.`,
	Args: cobra.NoArgs,
	RunE: runSign,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the sign in a full-screen terminal simulator",
	Long: `Run every worker against a simulated panel, buttons and network link.

Keyboard:
  m      Short press on Menu (refresh)
  M      Long press on Menu (factory reset and restart)
  e      Short press on Exit
  r      Short press on Rotary
  w      Toggle the network link
  /      Search a stop and store it
  q      Quit`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&flagPanel, "panel", "", "Panel: epaper, terminal, none (overrides settings)")
	}
	for _, c := range []*cobra.Command{rootCmd, runCmd, simulateCmd} {
		c.Flags().StringVar(&flagListen, "listen", "", "Web API listen address (overrides settings)")
		c.Flags().BoolVar(&flagNoWeb, "no-web", false, "Do not start the web API")
	}
	simulateCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (default: discard)")
	simulateCmd.Flags().BoolVar(&flagOffline, "offline", false, "Start with the simulated link down")
}

// restarter ends the run so the process can exit for a supervisor restart
type restarter struct {
	cancel context.CancelFunc
	log    zerolog.Logger

	once   sync.Once
	mu     sync.Mutex
	reason string
}

func newRestarter(cancel context.CancelFunc, log zerolog.Logger) *restarter {
	return &restarter{cancel: cancel, log: log}
}

func (r *restarter) Restart(reason string) {
	r.once.Do(func() {
		r.mu.Lock()
		r.reason = reason
		r.mu.Unlock()
		r.log.Warn().Str("reason", reason).Msg("restarting")
		r.cancel()
	})
}

// Requested returns the restart reason, or "" if none was requested
func (r *restarter) Requested() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// signParts are the wired components of one sign instance
type signParts struct {
	bus       *events.Bus
	conn      *connectivity.Manager
	transport *transport.Service
	timesync  *timesync.Service
	input     *input.Service
	display   *display.Orchestrator
	web       *web.Server
}

type hardware struct {
	link  connectivity.Link
	clock timesync.Clock
	pins  input.Pins
	panel display.Panel
}

// assemble wires the workers around the given hardware
func assemble(e *env, client *api.Client, hw hardware, rs *restarter) *signParts {
	s := e.settings
	log := e.log
	bus := events.NewBus(events.DefaultCapacity, events.DefaultPublishWait)

	conn := connectivity.New(hw.link,
		connectivity.NewHTTPProber(s.ProbeURL, probeTimeout),
		e.store, bus,
		connectivity.Options{
			APSSID:            s.APSSID,
			ConnectTimeout:    s.ConnectTimeout.Duration,
			ReconnectInterval: s.ReconnectInterval.Duration,
		},
		logging.Component(log, "wifi"))

	tr := transport.New(client, e.store, conn, bus, transport.Options{
		Interval:       s.FetchInterval.Duration,
		DepartureLimit: s.DepartureLimit,
		LinesLimit:     s.LinesLimit,
		SearchLimit:    s.SearchLimit,
	}, logging.Component(log, "transport"))

	ts := timesync.New(hw.clock, conn, bus, timesync.Options{
		Servers:  s.NTPServers,
		Location: s.Location(),
	}, logging.Component(log, "time"))

	in := input.New(hw.pins, bus, tr, e.store, rs, input.Options{
		Debounce:  s.Debounce.Duration,
		LongPress: s.LongPress.Duration,
	}, logging.Component(log, "input"))

	disp := display.New(hw.panel, bus, tr, e.store, conn, display.Options{
		MaxRows:  s.Rows,
		Columns:  s.Columns,
		Location: s.Location(),
		Now:      displayClock(ts),
		Version:  version,
	}, logging.Component(log, "display"))

	parts := &signParts{bus: bus, conn: conn, transport: tr, timesync: ts, input: in, display: disp}

	if !flagNoWeb {
		addr := s.ListenAddr
		if flagListen != "" {
			addr = flagListen
		}
		parts.web = web.New(web.Deps{
			Transport: tr,
			Network:   conn,
			Display:   disp,
			Config:    e.store,
			Restarter: rs,
		}, web.Options{Addr: addr, Version: version}, logging.Component(log, "web"))
	}
	return parts
}

// displayClock prefers the synchronized clock and falls back to the host
// clock until the first sync.
func displayClock(ts *timesync.Service) func() time.Time {
	return func() time.Time {
		if ts.Synced() {
			return ts.Now()
		}
		return time.Now()
	}
}

// start publishes Init and runs every worker until ctx is done
func (p *signParts) start(ctx context.Context, g *errgroup.Group) error {
	if err := p.bus.Publish(ctx, events.Init); err != nil {
		return fmt.Errorf("publish init: %w", err)
	}
	g.Go(func() error { return p.display.Run(ctx) })
	g.Go(func() error { return p.conn.Run(ctx) })
	g.Go(func() error { return p.transport.Run(ctx) })
	g.Go(func() error { return p.timesync.Run(ctx) })
	g.Go(func() error { return p.input.Run(ctx) })
	if p.web != nil {
		g.Go(func() error { return p.web.Run(ctx) })
	}
	return nil
}

func openPanel(kind string, s config.Settings, log zerolog.Logger) (display.Panel, func() error) {
	switch kind {
	case "epaper":
		p := epaper.Open("", logging.Component(log, "epaper"))
		return p, p.Close
	case "none":
		return display.NullPanel{}, nil
	default:
		return output.NewTerminalPanel(os.Stdout, s.Columns, true), nil
	}
}

func runSign(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(logging.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	client, err := newClient(e.settings, e.log)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	kind := e.settings.Panel
	if flagPanel != "" {
		kind = flagPanel
	}
	panel, closePanel := openPanel(kind, e.settings, e.log)
	if closePanel != nil {
		defer func() { _ = closePanel() }()
	}

	var pins input.Pins
	if kind == "epaper" {
		p := e.settings.Pins
		if pins, err = input.OpenGPIOPins(p.Menu, p.Exit, p.Rotary); err != nil {
			e.log.Warn().Err(err).Msg("buttons unavailable")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rs := newRestarter(cancel, e.log)

	parts := assemble(e, client, hardware{
		link:  connectivity.NewHostLink(e.settings.Interface, logging.Component(e.log, "link")),
		clock: timesync.NewNTPClock(),
		pins:  pins,
		panel: panel,
	}, rs)

	e.log.Info().Str("version", version).Str("panel", kind).Str("db", e.settings.DBPath).Msg("sign starting")

	g, gctx := errgroup.WithContext(ctx)
	if err := parts.start(gctx, g); err != nil {
		return err
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if reason := rs.Requested(); reason != "" {
		return fmt.Errorf("%w: %s", errRestartRequested, reason)
	}
	e.log.Info().Msg("sign stopped")
	return nil
}

func simulatorLogOutput() (io.Writer, func() error, error) {
	if flagLogFile == "" {
		return io.Discard, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(flagLogFile), 0o750); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f.Close, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logOut, closeLog, err := simulatorLogOutput()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	e, err := loadEnv(logging.Options{Output: logOut, Format: logging.FormatJSON})
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	client, err := newClient(e.settings, e.log)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	link := connectivity.NewManualLink(!flagOffline)
	inputOpts := input.Options{Debounce: e.settings.Debounce.Duration, LongPress: e.settings.LongPress.Duration}
	pins, sims := input.SimPins(inputOpts)
	panel := tui.NewPanel()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	rs := newRestarter(cancel, e.log)

	parts := assemble(e, client, hardware{
		link:  link,
		clock: timesync.NewSystemClock(),
		pins:  pins,
		panel: panel,
	}, rs)

	g, gctx := errgroup.WithContext(ctx)
	if err := parts.start(gctx, g); err != nil {
		return err
	}

	model := tui.New(tui.Deps{
		Frames:    panel.Frames(),
		Menu:      sims[input.Menu],
		Exit:      sims[input.Exit],
		Rotary:    sims[input.Rotary],
		Link:      link,
		Searcher:  parts.transport,
		Store:     e.store,
		Refresher: parts.transport,
		Columns:   e.settings.Columns,
	})
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))

	_, runErr := prog.Run()
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if reason := rs.Requested(); reason != "" {
		return fmt.Errorf("%w: %s", errRestartRequested, reason)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}
