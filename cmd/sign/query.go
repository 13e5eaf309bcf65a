package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mobil-koeln/ojp-sign/internal/api"
	"github.com/mobil-koeln/ojp-sign/internal/logging"
	"github.com/mobil-koeln/ojp-sign/internal/models"
	"github.com/mobil-koeln/ojp-sign/internal/output"
)

const watchInterval = 30 * time.Second

// Query flags
var (
	flagLimit     int
	flagRaw       bool
	flagWatch     bool
	flagShowMode  bool
	flagLine      string
	flagDirection string
)

var departuresCmd = &cobra.Command{
	Use:   "departures [stop_id]",
	Short: "Show departures at a stop",
	Long: `Show upcoming departures at a stop.

Without an argument the stop stored with 'sign config station' is used.
Use 'sign search <name>' to find stop IDs.

Filtering:
  --line, -l <line>      Filter by line (exact match, e.g. 11, S9)
  --direction <dest>     Filter by destination (substring match)

Examples:
  sign departures                        # Configured stop
  sign departures 8591123 --limit 10
  sign departures --line 11 --watch      # Refresh every 30 seconds
  sign departures --raw                  # Raw OJP XML response`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDepartures,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for stops by name",
	Long: `Search for stops by name.

Example:
  sign search "Zürich, Bucheggplatz"
  sign search Bellevue`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var linesCmd = &cobra.Command{
	Use:   "lines [stop_id]",
	Short: "List the lines currently departing from a stop",
	Long: `List the distinct lines, directions and modes found among the next
departures of a stop. Use the output to pick lines for 'sign config line'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLines,
}

func init() {
	departuresCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Number of departures (default from settings)")
	departuresCmd.Flags().BoolVar(&flagRaw, "raw", false, "Print the raw OJP response")
	departuresCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh every 30 seconds")
	departuresCmd.Flags().BoolVar(&flagShowMode, "mode", false, "Show the transport mode")
	departuresCmd.Flags().StringVarP(&flagLine, "line", "l", "", "Filter by line (exact match)")
	departuresCmd.Flags().StringVar(&flagDirection, "direction", "", "Filter by destination (substring match)")

	searchCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Number of results (default from settings)")
	searchCmd.Flags().BoolVar(&flagRaw, "raw", false, "Print the raw OJP response")
}

// filterDepartures filters departures by line and/or direction
func filterDepartures(deps []models.Departure, line, direction string) []models.Departure {
	if line == "" && direction == "" {
		return deps
	}

	filtered := make([]models.Departure, 0, len(deps))
	for _, d := range deps {
		// Line filter: exact match (case-insensitive)
		if line != "" && !strings.EqualFold(d.Line, line) {
			continue
		}
		// Direction filter: substring match (case-insensitive)
		if direction != "" && !strings.Contains(strings.ToLower(d.Direction), strings.ToLower(direction)) {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered
}

// stopArg returns the stop from args or the configured one
func stopArg(e *env, args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if id := e.store.StationID(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no stop given and none configured\nUse 'sign search <name>' and 'sign config station <id> <name>'")
}

func apiKey(e *env) (string, error) {
	key := e.store.APIKey()
	if key == "" {
		return "", fmt.Errorf("%w\nUse 'sign config apikey <token>' or set SIGN_API_KEY", api.ErrMissingAPIKey)
	}
	return key, nil
}

func queryEnv() (*env, *api.Client, string, error) {
	e, err := loadEnv(logging.Options{Level: "warn"})
	if err != nil {
		return nil, nil, "", err
	}
	key, err := apiKey(e)
	if err != nil {
		_ = e.close()
		return nil, nil, "", err
	}
	client, err := newClient(e.settings, e.log)
	if err != nil {
		_ = e.close()
		return nil, nil, "", fmt.Errorf("failed to create API client: %w", err)
	}
	return e, client, key, nil
}

// runWatch runs a continuous refresh loop for watch mode
func runWatch(fetchAndRender func() error) error {
	sigChan := output.SetupSignalHandler()
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	// Hide cursor during watch mode
	output.HideCursor(os.Stdout)
	defer output.ShowCursor(os.Stdout)

	for {
		output.ClearScreen(os.Stdout)

		// Show header with timestamp
		fmt.Printf("Last update: %s | Next refresh in %s | Press Ctrl+C to exit\n\n",
			time.Now().Format("15:04:05"), watchInterval)

		// Fetch and render data
		if err := fetchAndRender(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		// Wait for next tick or interrupt
		select {
		case <-ticker.C:
			continue
		case <-sigChan:
			output.ClearScreen(os.Stdout)
			fmt.Println("Watch mode ended.")
			return nil
		}
	}
}

func runDepartures(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, client, key, err := queryEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	stop, err := stopArg(e, args)
	if err != nil {
		return err
	}
	limit := flagLimit
	if limit <= 0 {
		limit = e.settings.DepartureLimit
	}

	// Raw output
	if flagRaw {
		raw, err := client.DeparturesRaw(ctx, key, stop, limit)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(raw)
		return err
	}

	fetchAndRender := func() error {
		deps, err := client.Departures(ctx, key, stop, limit)
		if err != nil {
			return err
		}
		deps = filterDepartures(deps, flagLine, flagDirection)

		if flagJSON {
			return printJSON(deps)
		}
		opts := tableOptions(e.settings)
		opts.ShowMode = flagShowMode
		if name := e.store.Station().Name; name != "" && stop == e.store.StationID() {
			_, _ = fmt.Fprintln(os.Stdout, opts.Colors.Header("%s", name))
		}
		output.RenderDepartures(os.Stdout, deps, opts)
		return nil
	}

	if flagWatch {
		return runWatch(fetchAndRender)
	}
	return fetchAndRender()
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, client, key, err := queryEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	limit := flagLimit
	if limit <= 0 {
		limit = e.settings.SearchLimit
	}

	if flagRaw {
		raw, err := client.SearchStopsRaw(ctx, key, args[0], limit)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(raw)
		return err
	}

	stops, err := client.SearchStops(ctx, key, args[0], limit)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(stops)
	}
	output.RenderStops(os.Stdout, stops, tableOptions(e.settings))
	return nil
}

func runLines(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, client, key, err := queryEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	stop, err := stopArg(e, args)
	if err != nil {
		return err
	}

	deps, err := client.Departures(ctx, key, stop, e.settings.LinesLimit)
	if err != nil {
		return err
	}
	lines := models.LinesFromDepartures(deps)

	if flagJSON {
		return printJSON(lines)
	}
	output.RenderLines(os.Stdout, lines, tableOptions(e.settings))
	return nil
}
