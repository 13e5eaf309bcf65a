package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Duration reads "30s" style values from yaml, toml, json and env
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := parseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// parseDuration accepts Go durations and bare integers as seconds
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return v, nil
}

// Pins names the GPIO lines of the three buttons
type Pins struct {
	Menu   string `json:"menu" yaml:"menu" toml:"menu"`
	Exit   string `json:"exit" yaml:"exit" toml:"exit"`
	Rotary string `json:"rotary" yaml:"rotary" toml:"rotary"`
}

// Settings are the runtime parameters of the sign. Zero values are replaced
// by defaults.
type Settings struct {
	Endpoint       string   `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Dialect        string   `json:"dialect" yaml:"dialect" toml:"dialect"`
	RequestorRef   string   `json:"requestor_ref" yaml:"requestor_ref" toml:"requestor_ref"`
	APIKey         string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	FetchInterval  Duration `json:"fetch_interval" yaml:"fetch_interval" toml:"fetch_interval"`
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	DepartureLimit int      `json:"departure_limit" yaml:"departure_limit" toml:"departure_limit"`
	LinesLimit     int      `json:"lines_limit" yaml:"lines_limit" toml:"lines_limit"`
	SearchLimit    int      `json:"search_limit" yaml:"search_limit" toml:"search_limit"`
	SearchCacheTTL Duration `json:"search_cache_ttl" yaml:"search_cache_ttl" toml:"search_cache_ttl"`
	CacheDir       string   `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`

	Interface         string   `json:"interface" yaml:"interface" toml:"interface"`
	APSSID            string   `json:"ap_ssid" yaml:"ap_ssid" toml:"ap_ssid"`
	ConnectTimeout    Duration `json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
	ReconnectInterval Duration `json:"reconnect_interval" yaml:"reconnect_interval" toml:"reconnect_interval"`
	ProbeURL          string   `json:"probe_url" yaml:"probe_url" toml:"probe_url"`

	NTPServers []string `json:"ntp_servers" yaml:"ntp_servers" toml:"ntp_servers"`
	Timezone   string   `json:"timezone" yaml:"timezone" toml:"timezone"`

	Panel     string   `json:"panel" yaml:"panel" toml:"panel"`
	Rows      int      `json:"rows" yaml:"rows" toml:"rows"`
	Columns   int      `json:"columns" yaml:"columns" toml:"columns"`
	Pins      Pins     `json:"pins" yaml:"pins" toml:"pins"`
	LongPress Duration `json:"long_press" yaml:"long_press" toml:"long_press"`
	Debounce  Duration `json:"debounce" yaml:"debounce" toml:"debounce"`

	DBPath     string `json:"db_path" yaml:"db_path" toml:"db_path"`
	ListenAddr string `json:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
	LogLevel   string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat  string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// Defaults returns the built-in settings
func Defaults() Settings {
	return Settings{
		Dialect:        "v1",
		RequestorRef:   "ojp-sign",
		FetchInterval:  Duration{30 * time.Second},
		RequestTimeout: Duration{10 * time.Second},
		DepartureLimit: 4,
		LinesLimit:     40,
		SearchLimit:    10,
		SearchCacheTTL: Duration{10 * time.Minute},

		Interface:         "wlan0",
		APSSID:            "CrowPanel-Setup",
		ConnectTimeout:    Duration{10 * time.Second},
		ReconnectInterval: Duration{30 * time.Second},
		ProbeURL:          "http://www.google.com",

		NTPServers: []string{"pool.ntp.org", "time.nist.gov"},
		Timezone:   "Europe/Zurich",

		Panel:     "terminal",
		Rows:      4,
		Columns:   30,
		Pins:      Pins{Menu: "GPIO17", Exit: "GPIO27", Rotary: "GPIO22"},
		LongPress: Duration{3 * time.Second},
		Debounce:  Duration{50 * time.Millisecond},

		DBPath:     filepath.Join(DefaultDataDir(), "sign.db"),
		ListenAddr: ":8080",
		LogLevel:   "info",
		LogFormat:  "auto",
	}
}

// DefaultDataDir returns the directory for the settings database
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ojp-sign")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ojp-sign")
	}
	return filepath.Join(home, ".local", "share", "ojp-sign")
}

// LoadDotEnv loads .env files into the environment. Missing files are ignored;
// variables already set win.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Load reads settings from path (yaml, yml, json or toml; empty path means
// defaults only), then applies SIGN_* environment overrides.
func Load(path string) (Settings, error) {
	cfg := Defaults()

	if path != "" {
		b, err := os.ReadFile(path) // #nosec G304 -- operator supplied config path
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &cfg)
		case ".json":
			err = json.Unmarshal(b, &cfg)
		case ".toml":
			err = toml.Unmarshal(b, &cfg)
		default:
			return cfg, fmt.Errorf("unsupported config extension: %s", ext)
		}
		if err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.fillDefaults()
	return cfg, cfg.Validate()
}

func (s *Settings) applyEnv() error {
	s.Endpoint = getEnv("SIGN_ENDPOINT", s.Endpoint)
	s.Dialect = getEnv("SIGN_DIALECT", s.Dialect)
	s.RequestorRef = getEnv("SIGN_REQUESTOR_REF", s.RequestorRef)
	s.APIKey = getEnv("SIGN_API_KEY", getEnv("OJP_API_KEY", s.APIKey))
	s.Interface = getEnv("SIGN_INTERFACE", s.Interface)
	s.APSSID = getEnv("SIGN_AP_SSID", s.APSSID)
	s.ProbeURL = getEnv("SIGN_PROBE_URL", s.ProbeURL)
	s.Timezone = getEnv("SIGN_TIMEZONE", s.Timezone)
	s.Panel = getEnv("SIGN_PANEL", s.Panel)
	s.DBPath = getEnv("SIGN_DB", s.DBPath)
	s.CacheDir = getEnv("SIGN_CACHE_DIR", s.CacheDir)
	s.ListenAddr = getEnv("SIGN_LISTEN", s.ListenAddr)
	s.LogLevel = getEnv("SIGN_LOG_LEVEL", s.LogLevel)
	s.LogFormat = getEnv("SIGN_LOG_FORMAT", s.LogFormat)
	s.Rows = getEnvInt("SIGN_ROWS", s.Rows)
	s.DepartureLimit = getEnvInt("SIGN_DEPARTURE_LIMIT", s.DepartureLimit)

	if v := os.Getenv("SIGN_NTP_SERVERS"); v != "" {
		s.NTPServers = splitList(v)
	}
	if v := os.Getenv("SIGN_FETCH_INTERVAL"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("SIGN_FETCH_INTERVAL: %w", err)
		}
		s.FetchInterval = Duration{d}
	}
	return nil
}

func (s *Settings) fillDefaults() {
	def := Defaults()
	if s.Dialect == "" {
		s.Dialect = def.Dialect
	}
	if s.RequestorRef == "" {
		s.RequestorRef = def.RequestorRef
	}
	if s.FetchInterval.Duration == 0 {
		s.FetchInterval = def.FetchInterval
	}
	if s.RequestTimeout.Duration == 0 {
		s.RequestTimeout = def.RequestTimeout
	}
	if s.DepartureLimit == 0 {
		s.DepartureLimit = def.DepartureLimit
	}
	if s.LinesLimit == 0 {
		s.LinesLimit = def.LinesLimit
	}
	if s.SearchLimit == 0 {
		s.SearchLimit = def.SearchLimit
	}
	if s.SearchCacheTTL.Duration == 0 {
		s.SearchCacheTTL = def.SearchCacheTTL
	}
	if s.ConnectTimeout.Duration == 0 {
		s.ConnectTimeout = def.ConnectTimeout
	}
	if s.ReconnectInterval.Duration == 0 {
		s.ReconnectInterval = def.ReconnectInterval
	}
	if len(s.NTPServers) == 0 {
		s.NTPServers = def.NTPServers
	}
	if s.Timezone == "" {
		s.Timezone = def.Timezone
	}
	if s.Rows == 0 {
		s.Rows = def.Rows
	}
	if s.Columns == 0 {
		s.Columns = def.Columns
	}
	if s.LongPress.Duration == 0 {
		s.LongPress = def.LongPress
	}
	if s.Debounce.Duration == 0 {
		s.Debounce = def.Debounce
	}
	if s.DBPath == "" {
		s.DBPath = def.DBPath
	}
}

// Validate checks values that cannot be defaulted
func (s Settings) Validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	if s.FetchInterval.Duration < time.Second {
		return fmt.Errorf("fetch_interval must be at least 1s, got %v", s.FetchInterval)
	}
	if s.Rows < 1 {
		return fmt.Errorf("rows must be positive, got %d", s.Rows)
	}
	if s.Debounce.Duration >= s.LongPress.Duration {
		return fmt.Errorf("debounce (%v) must be shorter than long_press (%v)", s.Debounce, s.LongPress)
	}
	switch s.Panel {
	case "terminal", "epaper", "none":
	default:
		return fmt.Errorf("invalid panel %q (valid: terminal, epaper, none)", s.Panel)
	}
	return nil
}

// Location returns the configured timezone
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
