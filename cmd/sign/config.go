package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mobil-koeln/ojp-sign/internal/logging"
	"github.com/mobil-koeln/ojp-sign/internal/models"
	"github.com/mobil-koeln/ojp-sign/internal/output"
)

var flagYes bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored configuration",
	Long: `Show or change the configuration stored on the device. The web API at
/api/config writes the same values.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored configuration (secrets masked)",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(e *env, args []string) error {
		values := e.store.Snapshot()
		if flagJSON {
			return printJSON(values)
		}
		output.RenderSettings(os.Stdout, values, tableOptions(e.settings))
		return nil
	}),
}

var configWifiCmd = &cobra.Command{
	Use:   "wifi <ssid> [password]",
	Short: "Store the network credentials",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withEnv(func(e *env, args []string) error {
		password := ""
		if len(args) == 2 {
			password = args[1]
		}
		if err := e.store.SetWifiCredentials(args[0], password); err != nil {
			return err
		}
		fmt.Printf("Network set to %q\n", args[0])
		return nil
	}),
}

var configStationCmd = &cobra.Command{
	Use:   "station <stop_id> <name>",
	Short: "Store the stop to display",
	Long: `Store the stop to display. Use 'sign search <name>' to find the ID.

Example:
  sign config station 8591123 "Zürich, Bucheggplatz"`,
	Args: cobra.ExactArgs(2),
	RunE: withEnv(func(e *env, args []string) error {
		if err := e.store.SetStation(models.StationConfig{ID: args[0], Name: args[1]}); err != nil {
			return err
		}
		fmt.Printf("Stop set to %s (%s)\n", e.store.Station().Name, args[0])
		return nil
	}),
}

var configAPIKeyCmd = &cobra.Command{
	Use:   "apikey <token>",
	Short: "Store the OJP API key",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(e *env, args []string) error {
		if err := e.store.SetAPIKey(strings.TrimSpace(args[0])); err != nil {
			return err
		}
		fmt.Println("API key stored")
		return nil
	}),
}

var configLineCmd = &cobra.Command{
	Use:   "line <1|2> <name> [direction]",
	Short: "Pin a line for the dashboard",
	Args:  cobra.RangeArgs(2, 3),
	RunE: withEnv(func(e *env, args []string) error {
		lc := models.LineConfig{Name: args[1]}
		if len(args) == 3 {
			lc.Direction = args[2]
		}
		l1, l2 := e.store.Line1(), e.store.Line2()
		switch args[0] {
		case "1":
			l1 = lc
		case "2":
			l2 = lc
		default:
			return fmt.Errorf("line slot must be 1 or 2, got %q", args[0])
		}
		if err := e.store.SetLines(l1, l2); err != nil {
			return err
		}
		fmt.Printf("Line %s set to %s\n", args[0], args[1])
		return nil
	}),
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase every stored value",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(e *env, args []string) error {
		if !flagYes && !confirm("Erase network, API key, stop and lines? [y/N] ") {
			fmt.Println("Aborted.")
			return nil
		}
		if err := e.store.ResetToFactory(); err != nil {
			return err
		}
		fmt.Println("Configuration reset.")
		return nil
	}),
}

func init() {
	configCmd.AddCommand(configShowCmd, configWifiCmd, configStationCmd, configAPIKeyCmd, configLineCmd, configResetCmd)
	configResetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask for confirmation")
}

// withEnv opens the configuration store around fn
func withEnv(fn func(e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(logging.Options{Level: "warn"})
		if err != nil {
			return err
		}
		defer func() { _ = e.close() }()
		return fn(e, args)
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
