// Package transport keeps the departure snapshot fresh and answers ad-hoc
// stop and line lookups for the configuration API.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/api"
	"github.com/mobil-koeln/ojp-sign/internal/events"
	"github.com/mobil-koeln/ojp-sign/internal/metrics"
	"github.com/mobil-koeln/ojp-sign/internal/models"
	"github.com/mobil-koeln/ojp-sign/internal/ojp"
)

const (
	DefaultInterval       = 30 * time.Second
	DefaultDepartureLimit = 4
	DefaultLinesLimit     = 40
	DefaultSearchLimit    = 10
)

var (
	// ErrConfigMissing means the API key or the station id is not set
	ErrConfigMissing = errors.New("api key or station id not configured")
	// ErrLinkUnavailable means the network link is down
	ErrLinkUnavailable = errors.New("network link unavailable")
)

// Upstream is the subset of api.Client the service needs
type Upstream interface {
	Departures(ctx context.Context, apiKey, stopID string, limit int) ([]models.Departure, error)
	SearchStops(ctx context.Context, apiKey, query string, limit int) ([]models.StopSearchResult, error)
}

// ConfigSource supplies the values re-read at the top of every cycle
type ConfigSource interface {
	APIKey() string
	StationID() string
}

// Link reports whether the network is usable
type Link interface {
	Connected() bool
}

// Options tunes the service. Zero values select the defaults.
type Options struct {
	Interval       time.Duration
	DepartureLimit int
	LinesLimit     int
	SearchLimit    int
}

func (o *Options) fillDefaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.DepartureLimit <= 0 {
		o.DepartureLimit = DefaultDepartureLimit
	}
	if o.LinesLimit <= 0 {
		o.LinesLimit = DefaultLinesLimit
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = DefaultSearchLimit
	}
}

// Service owns the departure snapshot and the worker that refreshes it
type Service struct {
	upstream Upstream
	cfg      ConfigSource
	link     Link
	bus      events.Publisher
	opts     Options
	log      zerolog.Logger

	snapshot Snapshot
	refresh  chan struct{}

	mu          sync.Mutex
	lastUpdate  time.Time
	lastFailure error
}

// New creates a transport service
func New(upstream Upstream, cfg ConfigSource, link Link, bus events.Publisher, opts Options, log zerolog.Logger) *Service {
	opts.fillDefaults()
	return &Service{
		upstream: upstream,
		cfg:      cfg,
		link:     link,
		bus:      bus,
		opts:     opts,
		log:      log,
		refresh:  make(chan struct{}, 1),
	}
}

// Run refreshes the snapshot every interval, or sooner when TriggerUpdate is
// called, until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.opts.Interval).Msg("transport worker started")
	for {
		if err := s.cycle(ctx); err != nil && ctx.Err() == nil {
			s.log.Info().Err(err).Msg("fetch skipped")
		}

		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		case <-s.refresh:
			timer.Stop()
			s.log.Debug().Msg("refresh requested")
		}
	}
}

func (s *Service) cycle(ctx context.Context) error {
	apiKey, stationID := s.cfg.APIKey(), s.cfg.StationID()
	if apiKey == "" || stationID == "" {
		metrics.TransportFetches.WithLabelValues("config_missing").Inc()
		return ErrConfigMissing
	}
	if !s.link.Connected() {
		metrics.TransportFetches.WithLabelValues("link_unavailable").Inc()
		return ErrLinkUnavailable
	}
	// upstream failures are logged inside FetchData
	_ = s.fetch(ctx, apiKey, stationID)
	return nil
}

// TriggerUpdate asks the worker to refresh now. Calls made before the worker
// wakes collapse into one refresh. Safe from any goroutine.
func (s *Service) TriggerUpdate() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// FetchData fetches departures for the configured station, replaces the
// snapshot and publishes DataAvailable. On failure the snapshot is kept.
func (s *Service) FetchData(ctx context.Context) error {
	apiKey, stationID := s.cfg.APIKey(), s.cfg.StationID()
	if apiKey == "" || stationID == "" {
		return ErrConfigMissing
	}
	return s.fetch(ctx, apiKey, stationID)
}

func (s *Service) fetch(ctx context.Context, apiKey, stationID string) error {
	start := time.Now()
	deps, err := s.upstream.Departures(ctx, apiKey, stationID, s.opts.DepartureLimit)
	metrics.TransportFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.recordFailure(err)
		if errors.Is(err, ojp.ErrMalformedResponse) || errors.Is(err, ojp.ErrUnexpectedStructure) {
			metrics.TransportFetches.WithLabelValues("parse_error").Inc()
			s.log.Warn().Err(err).Msg("could not parse departures, keeping previous data")
			return err
		}

		metrics.TransportFetches.WithLabelValues("upstream_error").Inc()
		evt := s.log.Error().Err(err).Str("station", stationID)
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			evt = evt.Int("status", apiErr.StatusCode)
		}
		if hint := api.HintFor(err); hint != "" {
			evt = evt.Str("hint", hint)
		}
		evt.Msg("departure request failed")
		return err
	}

	s.snapshot.Replace(deps)
	s.mu.Lock()
	s.lastUpdate = time.Now()
	s.lastFailure = nil
	s.mu.Unlock()

	metrics.TransportFetches.WithLabelValues("ok").Inc()
	metrics.TransportDepartures.Set(float64(len(deps)))
	s.log.Info().Int("departures", len(deps)).Str("station", stationID).Msg("departures updated")

	if err := s.bus.Publish(ctx, events.DataAvailable); err != nil {
		s.log.Warn().Err(err).Msg("could not publish DataAvailable")
	}
	return nil
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	s.lastFailure = err
	s.mu.Unlock()
}

// GetDepartures returns a copy of the current snapshot
func (s *Service) GetDepartures() []models.Departure {
	return s.snapshot.Load()
}

// LastUpdate returns when the snapshot was last replaced and the error of
// the most recent failed fetch since then, if any.
func (s *Service) LastUpdate() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate, s.lastFailure
}

// SearchStops looks up stops by name. An empty query or a down link returns
// an empty result without a network call.
func (s *Service) SearchStops(ctx context.Context, query string) ([]models.StopSearchResult, error) {
	empty := []models.StopSearchResult{}
	if query == "" {
		return empty, nil
	}
	if !s.link.Connected() {
		return empty, ErrLinkUnavailable
	}
	apiKey := s.cfg.APIKey()
	if apiKey == "" {
		return empty, ErrConfigMissing
	}

	stops, err := s.upstream.SearchStops(ctx, apiKey, query, s.opts.SearchLimit)
	if err != nil {
		s.log.Warn().Err(err).Str("query", query).Msg("stop search failed")
		return empty, err
	}
	return stops, nil
}

// GetAvailableLines lists the distinct (line, direction, mode) triples
// currently departing from stopID.
func (s *Service) GetAvailableLines(ctx context.Context, stopID string) ([]models.LineInfo, error) {
	empty := []models.LineInfo{}
	if stopID == "" {
		return empty, nil
	}
	if !s.link.Connected() {
		return empty, ErrLinkUnavailable
	}
	apiKey := s.cfg.APIKey()
	if apiKey == "" {
		return empty, ErrConfigMissing
	}

	deps, err := s.upstream.Departures(ctx, apiKey, stopID, s.opts.LinesLimit)
	if err != nil {
		s.log.Warn().Err(err).Str("stop", stopID).Msg("line lookup failed")
		return empty, err
	}
	return models.LinesFromDepartures(deps), nil
}
