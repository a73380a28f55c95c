package runner

import (
	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/app"
	"github.com/lcrostarosa/nirbhaya/internal/config"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// ConfigProvider returns the current config and any load error. This
// keeps the runner decoupled from the global config state.
type ConfigProvider func() (*config.Config, error)

// OptionsProvider returns the app options for a command run
type OptionsProvider func() app.Options

// CommandRunner chains interceptors for CLI command execution
type CommandRunner struct {
	interceptors    []Interceptor
	configProvider  ConfigProvider
	optionsProvider OptionsProvider
}

// NewRunner creates a new CommandRunner with the given config provider
func NewRunner(provider ConfigProvider) *CommandRunner {
	return &CommandRunner{
		configProvider: provider,
	}
}

// WithOptions sets the app options provider. Returns self for chaining.
func (r *CommandRunner) WithOptions(provider OptionsProvider) *CommandRunner {
	r.optionsProvider = provider
	return r
}

// Use adds interceptors to the chain. Returns self for chaining.
func (r *CommandRunner) Use(interceptors ...Interceptor) *CommandRunner {
	r.interceptors = append(r.interceptors, interceptors...)
	return r
}

// Clone creates a copy of this runner with its own interceptor chain.
// The providers are shared.
func (r *CommandRunner) Clone() *CommandRunner {
	cloned := &CommandRunner{
		interceptors:    make([]Interceptor, len(r.interceptors)),
		configProvider:  r.configProvider,
		optionsProvider: r.optionsProvider,
	}
	copy(cloned.interceptors, r.interceptors)
	return cloned
}

// CommandFunc is the signature for command handler functions
type CommandFunc func(ctx *CommandContext, cmd *cobra.Command, args []string) error

// Wrap creates a cobra.RunE function with the interceptor chain applied.
// An app opened during the run is closed when the chain returns.
func (r *CommandRunner) Wrap(fn CommandFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := r.configProvider()
		var opts app.Options
		if r.optionsProvider != nil {
			opts = r.optionsProvider()
		}
		ctx := NewContext(cfg, cfgErr, opts)
		defer func() {
			if err := ctx.Close(); err != nil {
				logging.Warn("Failed to release resources", logging.Err(err))
			}
		}()

		chain := func() error { return fn(ctx, cmd, args) }

		// Wrap in reverse order so the first interceptor runs first
		for i := len(r.interceptors) - 1; i >= 0; i-- {
			interceptor := r.interceptors[i]
			next := chain
			chain = func() error { return interceptor(ctx, cmd, args, next) }
		}

		return chain()
	}
}

// Builder helps construct runners with common interceptor patterns
type Builder struct {
	provider ConfigProvider
	options  OptionsProvider
}

// NewBuilder creates a new runner builder
func NewBuilder(provider ConfigProvider, options OptionsProvider) *Builder {
	return &Builder{provider: provider, options: options}
}

// Base creates a runner with just logging
func (b *Builder) Base() *CommandRunner {
	return NewRunner(b.provider).WithOptions(b.options).Use(WithLogging())
}

// Config creates a runner that requires config to be loaded
func (b *Builder) Config() *CommandRunner {
	return NewRunner(b.provider).WithOptions(b.options).Use(
		WithLogging(),
		RequireConfig(),
	)
}

// Session creates a runner that requires a signed-in user
func (b *Builder) Session() *CommandRunner {
	return NewRunner(b.provider).WithOptions(b.options).Use(
		WithLogging(),
		RequireConfig(),
		RequireSession(),
	)
}
