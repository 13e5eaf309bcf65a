package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mobil-koeln/ojp-sign/internal/api"
	"github.com/mobil-koeln/ojp-sign/internal/cache"
	"github.com/mobil-koeln/ojp-sign/internal/config"
	"github.com/mobil-koeln/ojp-sign/internal/logging"
	"github.com/mobil-koeln/ojp-sign/internal/ojp"
	"github.com/mobil-koeln/ojp-sign/internal/output"
)

var version = "0.1.0"

// exitRestart tells the supervisor to start the sign again
const exitRestart = 3

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRestartRequested) {
			os.Exit(exitRestart)
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		if hint := api.HintFor(err); hint != "" {
			_, _ = fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sign",
	Short: "Transit departure sign driven by an OJP endpoint",
	Long: `sign runs a departure board for a single stop. It keeps the network
link up, fetches departures from an OJP endpoint, listens to three buttons
and draws to an e-paper panel (or the terminal).

Quick Start:
  1. Store the API key:        sign config apikey <token>
  2. Find your stop:           sign search "Bucheggplatz"
  3. Store the stop:           sign config station <id> "<name>"
  4. Check departures:         sign departures
  5. Try it in the terminal:   sign simulate
  6. Run on the device:        sign run`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSign,
}

// Global flags
var (
	flagConfig  string
	flagDB      string
	flagColor   string
	flagJSON    bool
	flagNoCache bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(departuresCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Settings file (.yaml, .json or .toml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Configuration database path")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Disable the stop search cache")
}

// env bundles what every command needs
type env struct {
	settings config.Settings
	log      zerolog.Logger
	store    *config.Store
	close    func() error
}

// loadEnv reads settings and opens the configuration store. The caller must
// call close.
func loadEnv(logOpts logging.Options) (*env, error) {
	config.LoadDotEnv(".env", ".env.local")

	settings, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		settings.DBPath = flagDB
	}

	if logOpts.Level == "" {
		logOpts.Level = settings.LogLevel
	}
	if logOpts.Format == "" {
		logOpts.Format = logging.Format(settings.LogFormat)
	}
	log := logging.New(logOpts)

	kv, err := config.OpenSQLite(settings.DBPath)
	if err != nil {
		return nil, err
	}
	store := config.NewStore(kv, logging.Component(log, "config"))

	// a key from the settings file or the environment seeds an empty store
	if settings.APIKey != "" && store.APIKey() == "" {
		if err := store.SetAPIKey(settings.APIKey); err != nil {
			_ = kv.Close()
			return nil, err
		}
	}

	return &env{settings: settings, log: log, store: store, close: kv.Close}, nil
}

// newClient creates an upstream client from the settings
func newClient(s config.Settings, log zerolog.Logger) (*api.Client, error) {
	dialect, err := ojp.ParseDialect(s.Dialect)
	if err != nil {
		return nil, err
	}
	codec := ojp.NewCodec(dialect, ojp.WithLocation(s.Location()))

	opts := []api.ClientOption{
		api.WithTimeout(s.RequestTimeout.Duration),
		api.WithRequestorRef(s.RequestorRef),
		api.WithUserAgent("ojp-sign/" + version),
		api.WithLogger(logging.Component(log, "api")),
	}
	if s.Endpoint != "" {
		opts = append(opts, api.WithEndpoint(s.Endpoint))
	}

	// Enable caching unless disabled
	if !flagNoCache {
		if s.CacheDir != "" {
			fc, err := cache.NewFileCache(s.CacheDir, s.SearchCacheTTL.Duration)
			if err != nil {
				return nil, fmt.Errorf("failed to open cache: %w", err)
			}
			opts = append(opts, api.WithCache(fc))
		} else {
			opts = append(opts, api.WithDefaultCache(s.SearchCacheTTL.Duration))
		}
	}

	return api.NewClient(codec, opts...)
}

// getColorMode returns the color mode based on flag
func getColorMode() output.ColorMode {
	return output.ParseColorMode(flagColor)
}

func tableOptions(s config.Settings) output.TableOptions {
	return output.TableOptions{
		Colors:   output.NewColors(getColorMode()),
		Location: s.Location(),
		Now:      time.Now(),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
