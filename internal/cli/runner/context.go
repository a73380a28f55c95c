package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/lcrostarosa/nirbhaya/internal/app"
	"github.com/lcrostarosa/nirbhaya/internal/config"
)

// CommandContext provides shared dependencies to command handlers.
// The app is opened lazily on first access and closed after the command.
type CommandContext struct {
	// Config is the loaded configuration (may be nil if loading failed)
	Config *config.Config
	// ConfigErr is the error from loading config, if any
	ConfigErr error
	// Options are passed to app.New
	Options app.Options

	app     *app.App
	appErr  error
	appOnce sync.Once
}

// NewContext creates a new CommandContext with the given config
func NewContext(cfg *config.Config, cfgErr error, opts app.Options) *CommandContext {
	return &CommandContext{
		Config:    cfg,
		ConfigErr: cfgErr,
		Options:   opts,
	}
}

// App returns the wired components, opening storage on first use
func (c *CommandContext) App(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.appOnce.Do(func() {
		if c.Config == nil {
			c.appErr = ErrNoConfig
			return
		}
		c.app, c.appErr = app.New(ctx, c.Config, c.Options)
	})
	return c.app, c.appErr
}

// Close releases the app if it was opened
func (c *CommandContext) Close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// SaveConfig saves the configuration with standardized error wrapping
func (c *CommandContext) SaveConfig() error {
	if c.Config == nil {
		return ErrNoConfig
	}
	if err := c.Config.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// HasConfig returns true if config is loaded successfully
func (c *CommandContext) HasConfig() bool {
	return c.Config != nil && c.ConfigErr == nil
}
