// Package timesync waits for the network, points the clock at NTP servers and
// announces the first plausible wall-clock reading.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/events"
)

const (
	DefaultUnsyncedPoll = time.Second
	DefaultSyncedPoll   = time.Minute

	// a clock reporting a year at or before this has not been set yet
	unsetYear = 2020
)

// Clock is a time source that must be configured before it can be trusted
type Clock interface {
	Configure(servers []string, loc *time.Location) error
	Now() time.Time
}

// Link reports whether the network is usable
type Link interface {
	Connected() bool
}

// Options tunes the service. Zero values select the defaults.
type Options struct {
	Servers      []string
	Location     *time.Location
	UnsyncedPoll time.Duration
	SyncedPoll   time.Duration
}

// Service publishes TimeSynced exactly once
type Service struct {
	clock Clock
	link  Link
	bus   events.Publisher
	opts  Options
	log   zerolog.Logger

	configured bool
	synced     atomic.Bool
}

// New creates a time service
func New(clock Clock, link Link, bus events.Publisher, opts Options, log zerolog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.UnsyncedPoll <= 0 {
		opts.UnsyncedPoll = DefaultUnsyncedPoll
	}
	if opts.SyncedPoll <= 0 {
		opts.SyncedPoll = DefaultSyncedPoll
	}
	return &Service{clock: clock, link: link, bus: bus, opts: opts, log: log}
}

// Synced reports whether the clock has been seen in sync
func (s *Service) Synced() bool {
	return s.synced.Load()
}

// Now returns the clock's time in the configured location
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.opts.Location)
}

// Step runs one iteration and returns how long to wait before the next
func (s *Service) Step(ctx context.Context) time.Duration {
	if !s.configured {
		if !s.link.Connected() {
			return s.opts.UnsyncedPoll
		}
		s.log.Info().Strs("servers", s.opts.Servers).Str("tz", s.opts.Location.String()).Msg("configuring clock")
		if err := s.clock.Configure(s.opts.Servers, s.opts.Location); err != nil {
			s.log.Warn().Err(err).Msg("clock configuration failed")
			return s.opts.UnsyncedPoll
		}
		s.configured = true
	}

	if !s.synced.Load() {
		now := s.Now()
		if now.Year() <= unsetYear {
			return s.opts.UnsyncedPoll
		}
		s.synced.Store(true)
		s.log.Info().Str("time", now.Format(time.DateTime)).Msg("time synchronized")
		if err := s.bus.Publish(ctx, events.TimeSynced); err != nil {
			s.log.Warn().Err(err).Msg("could not publish TimeSynced")
		}
	}
	return s.opts.SyncedPoll
}

// Run steps until ctx is done
func (s *Service) Run(ctx context.Context) error {
	for {
		wait := s.Step(ctx)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// NTPClock derives the time from an offset measured against NTP servers.
// Until the first successful query it reports the zero time, which reads as
// unsynchronized.
type NTPClock struct {
	query func(server string) (*ntp.Response, error)
	now   func() time.Time

	mu      sync.RWMutex
	servers []string
	loc     *time.Location
	offset  time.Duration
	valid   bool
}

// NewNTPClock creates a clock backed by github.com/beevik/ntp
func NewNTPClock() *NTPClock {
	return &NTPClock{
		query: func(server string) (*ntp.Response, error) {
			return ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: 5 * time.Second})
		},
		now: time.Now,
		loc: time.Local,
	}
}

// Configure stores the servers and location and makes a first attempt to
// measure the offset. A failed attempt is retried by Refresh.
func (c *NTPClock) Configure(servers []string, loc *time.Location) error {
	if len(servers) == 0 {
		return errors.New("no NTP servers configured")
	}
	c.mu.Lock()
	c.servers = append([]string(nil), servers...)
	if loc != nil {
		c.loc = loc
	}
	c.mu.Unlock()

	_ = c.Refresh()
	return nil
}

// Refresh queries the servers in order until one answers
func (c *NTPClock) Refresh() error {
	c.mu.RLock()
	servers := c.servers
	c.mu.RUnlock()
	if len(servers) == 0 {
		return errors.New("clock not configured")
	}

	var errs []error
	for _, srv := range servers {
		resp, err := c.query(srv)
		if err == nil {
			err = resp.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", srv, err))
			continue
		}
		c.mu.Lock()
		c.offset = resp.ClockOffset
		c.valid = true
		c.mu.Unlock()
		return nil
	}
	return errors.Join(errs...)
}

// Now returns the corrected time, or the zero time before the first
// successful query. Each unsynchronized call retries the query.
func (c *NTPClock) Now() time.Time {
	c.mu.RLock()
	valid, offset, loc := c.valid, c.offset, c.loc
	c.mu.RUnlock()

	if !valid {
		if c.Refresh() != nil {
			return time.Time{}
		}
		c.mu.RLock()
		offset = c.offset
		c.mu.RUnlock()
	}
	return c.now().Add(offset).In(loc)
}

// SystemClock trusts the host clock, which the OS keeps in sync
type SystemClock struct {
	now func() time.Time
}

func NewSystemClock() *SystemClock { return &SystemClock{now: time.Now} }

func (c *SystemClock) Configure([]string, *time.Location) error { return nil }

func (c *SystemClock) Now() time.Time { return c.now() }
