package cli

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/cli/runner"
	"github.com/lcrostarosa/nirbhaya/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file",
	Long: `Write the nirbhaya config file. Every setting has a default, so this is
only needed to change storage, location or alert log backends.`,
	Example: `  # Defaults with a fixed home location
  nirbhaya init --lat 12.9716 --lng 77.5946

  # Shared Redis storage, encrypted at rest
  nirbhaya init --storage redis --redis-addr localhost:6379 --passphrase "..."

  # Alert history in Postgres
  nirbhaya init --alert-log postgres --alert-log-dsn "postgres://..."`,
	RunE: builder.Base().Wrap(runInit),
}

func init() {
	f := initCmd.Flags()
	f.Int("countdown", config.DefaultCountdownSeconds, "SOS countdown in seconds")
	f.String("platform", "auto", "Share platform: auto, android, ios, web")
	f.Bool("open-links", false, "Open WhatsApp/SMS links with the system handler")

	f.String("storage", config.BackendFile, "Storage backend: file, redis, memory")
	f.String("redis-addr", "", "Redis address for the redis backend")
	f.String("passphrase", "", "Encrypt stored data with this passphrase")

	f.String("location", config.LocatorStatic, "Location provider: static, ip")
	f.Float64("lat", 0, "Fixed latitude")
	f.Float64("lng", 0, "Fixed longitude")

	f.String("alert-log", config.AlertLogFile, "Alert log backend: file, postgres, none")
	f.String("alert-log-dsn", "", "Postgres DSN for the alert log")

	f.String("news-key", "", "NewsAPI key")
	f.String("relay", "", "MQTT broker URL for relaying alerts")
	f.Bool("force", false, "Overwrite an existing config")

	rootCmd.AddCommand(initCmd)
}

func runInit(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	force := flags.Bool("force")

	if config.Exists(homeDir) && !force {
		return errors.New("config already exists - pass --force to overwrite it")
	}

	c := config.Default(homeDir)
	c.SOS.CountdownSeconds = flags.Int("countdown")
	c.SOS.Platform = flags.String("platform")
	c.SOS.OpenLinks = flags.Bool("open-links")
	c.Storage.Backend = flags.String("storage")
	c.Storage.RedisAddr = flags.String("redis-addr")
	c.Storage.Passphrase = flags.String("passphrase")
	c.Location.Provider = flags.String("location")
	if flags.Changed("lat") || flags.Changed("lng") {
		lat, lng := flags.Float64("lat"), flags.Float64("lng")
		c.Location.Latitude, c.Location.Longitude = &lat, &lng
	}
	c.AlertLog.Backend = flags.String("alert-log")
	c.AlertLog.DSN = flags.String("alert-log-dsn")
	c.News.APIKey = flags.String("news-key")
	c.Relay.Broker = flags.String("relay")
	if err := flags.Err(); err != nil {
		return err
	}

	ctx.Config = c
	if err := ctx.SaveConfig(); err != nil {
		return err
	}
	printSuccess("Config written to %s", filepath.Join(c.ConfigDir, "config.json"))
	if c.Storage.Passphrase != "" {
		printWarning("Keep your passphrase safe. Stored data cannot be read without it.")
	}
	return nil
}
