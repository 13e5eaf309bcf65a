// Package web serves the sign's configuration and status API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/api"
	"github.com/mobil-koeln/ojp-sign/internal/connectivity"
	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/metrics"
	"github.com/mobil-koeln/ojp-sign/internal/models"
	"github.com/mobil-koeln/ojp-sign/internal/transport"
)

const (
	DefaultAddr         = ":8080"
	DefaultRestartDelay = time.Second

	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Transport is the departure service as seen by the API
type Transport interface {
	GetDepartures() []models.Departure
	LastUpdate() (time.Time, error)
	TriggerUpdate()
	SearchStops(ctx context.Context, query string) ([]models.StopSearchResult, error)
	GetAvailableLines(ctx context.Context, stopID string) ([]models.LineInfo, error)
}

// Network reports the link state
type Network interface {
	State() connectivity.State
	IPAddress() string
}

// Display exposes the screen state and the Info screen request
type Display interface {
	Status() display.Status
	ShowInfo()
}

// ConfigStore is the persistent configuration
type ConfigStore interface {
	HasWifiConfig() bool
	SetWifiCredentials(ssid, password string) error
	SetAPIKey(key string) error
	Station() models.StationConfig
	SetStation(st models.StationConfig) error
	Line1() models.LineConfig
	Line2() models.LineConfig
	SetLines(l1, l2 models.LineConfig) error
	ResetToFactory() error
}

// Restarter reboots the sign
type Restarter interface {
	Restart(reason string)
}

// Deps are the collaborators behind the routes
type Deps struct {
	Transport Transport
	Network   Network
	Display   Display
	Config    ConfigStore
	Restarter Restarter
}

// Options tunes the server. Zero values select the defaults.
type Options struct {
	Addr    string
	Version string
	// RestartDelay lets the response reach the client before a restart
	RestartDelay time.Duration
}

// Server is the HTTP configuration API
type Server struct {
	deps Deps
	opts Options
	log  zerolog.Logger
}

// New creates a server
func New(deps Deps, opts Options, log zerolog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.RestartDelay < 0 {
		opts.RestartDelay = 0
	}
	return &Server{deps: deps, opts: opts, log: log}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(metricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/departures", s.handleDepartures)
		r.Get("/stops", s.handleStops)
		r.Get("/lines", s.handleLines)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/config", s.handleConfig)
		r.Post("/reset", s.handleReset)
		r.Post("/info", s.handleInfo)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("web server shutdown")
		}
		return nil
	}
}

type statusResponse struct {
	IP          string         `json:"ip"`
	State       string         `json:"state"`
	Configured  bool           `json:"configured"`
	Version     string         `json:"version,omitempty"`
	Display     display.Status `json:"display"`
	LastUpdate  *time.Time     `json:"last_update,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	StationID   string         `json:"station_id,omitempty"`
	StationName string         `json:"station_name,omitempty"`
	Departures  int            `json:"departures"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		IP:         s.deps.Network.IPAddress(),
		State:      s.deps.Network.State().String(),
		Configured: s.deps.Config.HasWifiConfig(),
		Version:    s.opts.Version,
		Display:    s.deps.Display.Status(),
		Departures: len(s.deps.Transport.GetDepartures()),
	}
	st := s.deps.Config.Station()
	resp.StationID, resp.StationName = st.ID, st.Name
	at, err := s.deps.Transport.LastUpdate()
	if !at.IsZero() {
		resp.LastUpdate = &at
	}
	if err != nil {
		resp.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDepartures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"departures": s.deps.Transport.GetDepartures(),
	})
}

func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	stops, err := s.deps.Transport.SearchStops(r.Context(), q)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stops": stops})
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	stop := strings.TrimSpace(r.URL.Query().Get("stop"))
	if stop == "" {
		stop = s.deps.Config.Station().ID
	}
	lines, err := s.deps.Transport.GetAvailableLines(r.Context(), stop)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.deps.Transport.TriggerUpdate()
	writeJSON(w, http.StatusAccepted, okResponse("Refresh requested"))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.deps.Display.ShowInfo()
	writeJSON(w, http.StatusAccepted, okResponse("Info screen requested"))
}

type lineBody struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

type stationBody struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type configRequest struct {
	SSID     *string      `json:"ssid"`
	Password *string      `json:"password"`
	APIKey   *string      `json:"apikey"`
	Station  *stationBody `json:"station"`
	Line1    *lineBody    `json:"line1"`
	Line2    *lineBody    `json:"line2"`
}

// handleConfig saves whatever sections the body carries and restarts
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := s.applyConfig(req); err != nil {
		s.log.Error().Err(err).Msg("config save failed")
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Info().Msg("received new config")
	writeJSON(w, http.StatusOK, okResponse("Saved. Restarting..."))
	s.restartLater("config saved")
}

func (s *Server) applyConfig(req configRequest) error {
	cfg := s.deps.Config
	if req.SSID != nil && req.Password != nil {
		if err := cfg.SetWifiCredentials(*req.SSID, *req.Password); err != nil {
			return err
		}
	}
	if req.APIKey != nil {
		if err := cfg.SetAPIKey(*req.APIKey); err != nil {
			return err
		}
	}
	if req.Station != nil {
		if err := cfg.SetStation(models.StationConfig{Name: req.Station.Name, ID: req.Station.ID}); err != nil {
			return err
		}
	}
	if req.Line1 != nil || req.Line2 != nil {
		l1, l2 := cfg.Line1(), cfg.Line2()
		if req.Line1 != nil {
			l1 = models.LineConfig{Name: req.Line1.Name, Direction: req.Line1.Dir}
		}
		if req.Line2 != nil {
			l2 = models.LineConfig{Name: req.Line2.Name, Direction: req.Line2.Dir}
		}
		if err := cfg.SetLines(l1, l2); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.log.Info().Msg("factory reset requested via web")
	if err := s.deps.Config.ResetToFactory(); err != nil {
		s.log.Error().Err(err).Msg("factory reset failed")
	}
	writeJSON(w, http.StatusOK, okResponse("Resetting..."))
	s.restartLater("factory reset")
}

func (s *Server) restartLater(reason string) {
	if s.deps.Restarter == nil {
		return
	}
	if s.opts.RestartDelay == 0 {
		s.deps.Restarter.Restart(reason)
		return
	}
	time.AfterFunc(s.opts.RestartDelay, func() { s.deps.Restarter.Restart(reason) })
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transport.ErrLinkUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, transport.ErrConfigMissing):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, api.ErrTimeout):
		writeJSONError(w, http.StatusGatewayTimeout, err.Error())
	default:
		msg := err.Error()
		if hint := api.HintFor(err); hint != "" {
			msg += ": " + hint
		}
		writeJSONError(w, http.StatusBadGateway, msg)
	}
}

func okResponse(msg string) map[string]string {
	return map[string]string{"status": "ok", "message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"status": "error",
		"error":  msg,
		"code":   status,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware labels by chi route pattern, which is only known once
// routing has run.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				path = p
			}
		}
		status := strconv.Itoa(sr.status)
		metrics.HTTPRequests.WithLabelValues(path, r.Method, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}
