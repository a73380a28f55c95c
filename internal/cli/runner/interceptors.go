package runner

import (
	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// Interceptor is a function that wraps command execution
type Interceptor func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error

// RequireConfig ensures the configuration is loaded before executing the command
func RequireConfig() Interceptor {
	return func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error {
		if ctx.ConfigErr != nil {
			return ctx.ConfigErr
		}
		if ctx.Config == nil {
			return ErrNoConfig
		}
		return next()
	}
}

// RequireSession opens the app and ensures a user is signed in.
// Implicitly requires config to be loaded.
func RequireSession() Interceptor {
	return func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error {
		if ctx.ConfigErr != nil {
			return ctx.ConfigErr
		}
		a, err := ctx.App(cmd.Context())
		if err != nil {
			return err
		}
		if !a.Session.IsAuthenticated() {
			return ErrNotSignedIn
		}
		return next()
	}
}

// WithLogging logs command execution at debug level
func WithLogging() Interceptor {
	return func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error {
		logging.Debug("CLI command", logging.String("cmd", cmd.CommandPath()))
		err := next()
		if err != nil {
			logging.Debug("CLI error", logging.String("cmd", cmd.CommandPath()), logging.Err(err))
		}
		return err
	}
}
