// Package cli implements the nirbhaya command line
package cli

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/app"
	"github.com/lcrostarosa/nirbhaya/internal/cli/runner"
	"github.com/lcrostarosa/nirbhaya/internal/config"
	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/feedback"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
	"github.com/lcrostarosa/nirbhaya/internal/toast"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// App state
	cfg    *config.Config
	cfgErr error

	homeDir  string
	logLevel string

	// Terminal streams, swapped out by tests
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "nirbhaya",
	Short: "Personal safety companion",
	Long: `Nirbhaya keeps your trusted contacts close. One command starts a short
countdown and then shares your location with every emergency contact over
WhatsApp and SMS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// builder creates command runners that share the loaded config
var builder = runner.NewBuilder(
	func() (*config.Config, error) { return cfg, cfgErr },
	func() app.Options {
		return app.Options{
			Notifier: toast.NewConsoleNotifier(stdout),
			Alerter:  feedback.NewTerminalAlerter(stderr, 3),
			Logger:   logging.L(),
		}
	},
)

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%s", apperrors.SanitizeError(err))
		os.Exit(1)
	}
}

// SetVersion sets the version string
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Config directory (default: $NIRBHAYA_HOME or ~/.nirbhaya)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// initConfig loads the config file. A missing file is fine: defaults are
// used until 'nirbhaya init' writes one.
func initConfig() {
	cfg, cfgErr = config.Load(homeDir)
	if errors.Is(cfgErr, apperrors.ErrNotInitialized) {
		cfgErr = nil
	}

	level := "warn"
	if cfg != nil && cfg.LogLevel != "" && cfg.LogLevel != "info" {
		level = cfg.LogLevel
	}
	if logLevel != "" {
		level = logLevel
	}
	asJSON := cfg != nil && cfg.LogJSON
	_ = logging.Init(logging.Config{Level: level, JSON: asJSON})
}
