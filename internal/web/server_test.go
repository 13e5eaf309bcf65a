package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mobil-koeln/ojp-sign/internal/api"
	"github.com/mobil-koeln/ojp-sign/internal/config"
	"github.com/mobil-koeln/ojp-sign/internal/connectivity"
	"github.com/mobil-koeln/ojp-sign/internal/display"
	"github.com/mobil-koeln/ojp-sign/internal/logging"
	"github.com/mobil-koeln/ojp-sign/internal/models"
	"github.com/mobil-koeln/ojp-sign/internal/testutil"
	"github.com/mobil-koeln/ojp-sign/internal/transport"
)

type fakeTransport struct {
	mu       sync.Mutex
	deps     []models.Departure
	stops    []models.StopSearchResult
	lines    []models.LineInfo
	err      error
	triggers int
	lastStop string
	updated  time.Time
}

func (f *fakeTransport) GetDepartures() []models.Departure { return f.deps }
func (f *fakeTransport) LastUpdate() (time.Time, error)    { return f.updated, nil }
func (f *fakeTransport) TriggerUpdate() {
	f.mu.Lock()
	f.triggers++
	f.mu.Unlock()
}
func (f *fakeTransport) SearchStops(_ context.Context, q string) ([]models.StopSearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q == "" {
		return []models.StopSearchResult{}, nil
	}
	return f.stops, nil
}
func (f *fakeTransport) GetAvailableLines(_ context.Context, stop string) ([]models.LineInfo, error) {
	f.lastStop = stop
	if f.err != nil {
		return nil, f.err
	}
	return f.lines, nil
}

type fakeNetwork struct{}

func (fakeNetwork) State() connectivity.State { return connectivity.Connected }
func (fakeNetwork) IPAddress() string         { return "10.0.0.42" }

type fakeDisplay struct{ infos int }

func (d *fakeDisplay) Status() display.Status {
	return display.Status{State: display.Dashboard, StateName: display.Dashboard.String(), Renders: 3}
}
func (d *fakeDisplay) ShowInfo() { d.infos++ }

type fakeRestarter struct {
	mu      sync.Mutex
	reasons []string
}

func (r *fakeRestarter) Restart(reason string) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
}

func (r *fakeRestarter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

type harness struct {
	tr      *fakeTransport
	disp    *fakeDisplay
	store   *config.Store
	restart *fakeRestarter
	h       http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hs := &harness{
		tr:      &fakeTransport{},
		disp:    &fakeDisplay{},
		store:   config.NewStore(config.NewMemoryKV(nil), logging.Nop()),
		restart: &fakeRestarter{},
	}
	srv := New(Deps{
		Transport: hs.tr,
		Network:   fakeNetwork{},
		Display:   hs.disp,
		Config:    hs.store,
		Restarter: hs.restart,
	}, Options{Version: "test", RestartDelay: 0}, logging.Nop())
	hs.h = srv.Handler()
	return hs
}

func (hs *harness) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	hs.h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestStatus(t *testing.T) {
	hs := newHarness(t)
	testutil.AssertNil(t, hs.store.SetWifiCredentials("home", "secret"))
	testutil.AssertNil(t, hs.store.SetStation(models.StationConfig{Name: "Zürich, Bucheggplatz", ID: "8591123"}))
	hs.tr.deps = []models.Departure{{Line: "11"}, {Line: "15"}}

	rr := hs.do(http.MethodGet, "/api/status", "")
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertEqual(t, rr.Header().Get("Content-Type"), "application/json")

	body := decode(t, rr)
	testutil.AssertEqual(t, body["ip"], any("10.0.0.42"))
	testutil.AssertEqual(t, body["state"], any("connected"))
	testutil.AssertEqual(t, body["configured"], any(true))
	testutil.AssertEqual(t, body["station_name"], any("Bucheggplatz"))
	testutil.AssertEqual(t, body["departures"], any(float64(2)))
	testutil.AssertContains(t, rr.Body.String(), `"state":"dashboard"`)
}

func TestDepartures(t *testing.T) {
	hs := newHarness(t)
	hs.tr.deps = []models.Departure{{Line: "11", Direction: "Auzelg"}}

	rr := hs.do(http.MethodGet, "/api/departures", "")
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertContains(t, rr.Body.String(), `"direction":"Auzelg"`)
}

func TestStops(t *testing.T) {
	hs := newHarness(t)
	hs.tr.stops = []models.StopSearchResult{{ID: "8503000", Name: "Zürich HB"}}

	rr := hs.do(http.MethodGet, "/api/stops?q=HB", "")
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertContains(t, rr.Body.String(), `"id":"8503000"`)

	rr = hs.do(http.MethodGet, "/api/stops", "")
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertContains(t, rr.Body.String(), `"stops":[]`)
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"link down", transport.ErrLinkUnavailable, http.StatusServiceUnavailable},
		{"not configured", transport.ErrConfigMissing, http.StatusConflict},
		{"timeout", api.ErrTimeout, http.StatusGatewayTimeout},
		{"upstream", api.NewAPIError(http.StatusForbidden, "403 Forbidden", "ojp"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			hs.tr.err = tt.err

			rr := hs.do(http.MethodGet, "/api/stops?q=x", "")
			testutil.AssertEqual(t, rr.Code, tt.want)
			body := decode(t, rr)
			testutil.AssertEqual(t, body["status"], any("error"))
			testutil.AssertEqual(t, body["code"], any(float64(tt.want)))
		})
	}
}

func TestLines_DefaultsToConfiguredStation(t *testing.T) {
	hs := newHarness(t)
	testutil.AssertNil(t, hs.store.SetStation(models.StationConfig{Name: "HB", ID: "8503000"}))
	hs.tr.lines = []models.LineInfo{{Line: "S9", Direction: "Uster"}}

	rr := hs.do(http.MethodGet, "/api/lines", "")
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertEqual(t, hs.tr.lastStop, "8503000")
	testutil.AssertContains(t, rr.Body.String(), `"line":"S9"`)

	hs.do(http.MethodGet, "/api/lines?stop=8591123", "")
	testutil.AssertEqual(t, hs.tr.lastStop, "8591123")
}

func TestRefreshAndInfo(t *testing.T) {
	hs := newHarness(t)

	rr := hs.do(http.MethodPost, "/api/refresh", "")
	testutil.AssertEqual(t, rr.Code, http.StatusAccepted)
	testutil.AssertEqual(t, hs.tr.triggers, 1)

	rr = hs.do(http.MethodPost, "/api/info", "")
	testutil.AssertEqual(t, rr.Code, http.StatusAccepted)
	testutil.AssertEqual(t, hs.disp.infos, 1)

	rr = hs.do(http.MethodGet, "/api/refresh", "")
	testutil.AssertEqual(t, rr.Code, http.StatusMethodNotAllowed)
}

func TestConfig_SavesAndRestarts(t *testing.T) {
	hs := newHarness(t)
	testutil.AssertNil(t, hs.store.SetLines(models.LineConfig{Name: "4", Direction: "Tiefenbrunnen"}, models.LineConfig{}))

	body := `{
		"ssid": "home", "password": "pw",
		"apikey": "token-1234",
		"station": {"name": "Zürich, Bucheggplatz", "id": "8591123"},
		"line2": {"name": "11", "dir": "Auzelg"}
	}`
	rr := hs.do(http.MethodPost, "/api/config", body)
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertContains(t, rr.Body.String(), "Restarting")

	testutil.AssertEqual(t, hs.store.WifiSSID(), "home")
	testutil.AssertEqual(t, hs.store.APIKey(), "token-1234")
	testutil.AssertEqual(t, hs.store.StationID(), "8591123")
	testutil.AssertEqual(t, hs.store.Line1(), models.LineConfig{Name: "4", Direction: "Tiefenbrunnen"})
	testutil.AssertEqual(t, hs.store.Line2(), models.LineConfig{Name: "11", Direction: "Auzelg"})
	testutil.AssertEqual(t, hs.restart.count(), 1)
}

func TestConfig_SSIDWithoutPasswordIgnored(t *testing.T) {
	hs := newHarness(t)
	rr := hs.do(http.MethodPost, "/api/config", `{"ssid":"home"}`)
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertFalse(t, hs.store.HasWifiConfig())
}

func TestConfig_Rejects(t *testing.T) {
	hs := newHarness(t)

	rr := hs.do(http.MethodPost, "/api/config", `{not json`)
	testutil.AssertEqual(t, rr.Code, http.StatusBadRequest)
	testutil.AssertContains(t, rr.Body.String(), "Invalid JSON")

	rr = hs.do(http.MethodPost, "/api/config", `{"station":{"name":"x","id":""}}`)
	testutil.AssertEqual(t, rr.Code, http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader("ssid=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	testutil.AssertEqual(t, rec.Code, http.StatusUnsupportedMediaType)

	testutil.AssertEqual(t, hs.restart.count(), 0)
}

func TestReset(t *testing.T) {
	hs := newHarness(t)
	testutil.AssertNil(t, hs.store.SetAPIKey("token"))

	rr := hs.do(http.MethodPost, "/api/reset", "")
	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertEqual(t, hs.store.APIKey(), "")
	testutil.AssertEqual(t, hs.restart.count(), 1)
}

func TestRestartDelay(t *testing.T) {
	hs := newHarness(t)
	restarter := &fakeRestarter{}
	srv := New(Deps{Transport: hs.tr, Network: fakeNetwork{}, Display: hs.disp, Config: hs.store, Restarter: restarter},
		Options{RestartDelay: 20 * time.Millisecond}, logging.Nop())

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	testutil.AssertEqual(t, restarter.count(), 0)
	testutil.Eventually(t, time.Second, func() bool { return restarter.count() == 1 })
}

func TestCORSAndHealth(t *testing.T) {
	hs := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://crowpanel.local")
	rr := httptest.NewRecorder()
	hs.h.ServeHTTP(rr, req)

	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertEqual(t, rr.Body.String(), "ok")
	testutil.AssertEqual(t, rr.Header().Get("Access-Control-Allow-Origin"), "*")
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	hs := newHarness(t)
	hs.do(http.MethodGet, "/api/stops?q=HB", "")

	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := mrr.Body.Bytes()
	testutil.AssertTrue(t, bytes.Contains(body, []byte("sign_http_requests_total")))
	testutil.AssertTrue(t, bytes.Contains(body, []byte(`path="/api/stops"`)))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	hs := newHarness(t)
	srv := New(Deps{Transport: hs.tr, Network: fakeNetwork{}, Display: hs.disp, Config: hs.store},
		Options{Addr: "127.0.0.1:0"}, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		testutil.AssertNil(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
