package share

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// Opener hands a deep link to whatever handles it on this host
type Opener interface {
	Open(ctx context.Context, link string) error
}

// SystemOpener launches the OS URL handler. It returns once the handler
// process has exited; it never waits on the messaging app itself.
type SystemOpener struct {
	goos string
}

// NewSystemOpener returns an opener for the running OS
func NewSystemOpener() *SystemOpener {
	return &SystemOpener{goos: runtime.GOOS}
}

func (o *SystemOpener) command(ctx context.Context, link string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin", "ios":
		return exec.CommandContext(ctx, "open", link), nil
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", link), nil
	case "linux", "freebsd", "openbsd", "netbsd", "android":
		return exec.CommandContext(ctx, "xdg-open", link), nil
	default:
		return nil, fmt.Errorf("no url handler for %s", o.goos)
	}
}

func (o *SystemOpener) Open(ctx context.Context, link string) error {
	cmd, err := o.command(ctx, link)
	if err != nil {
		return err
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("open link: %w", err)
	}
	return nil
}

// LogOpener records links instead of opening them. It backs headless runs
// (the HTTP API hands links back to the caller) and tests.
type LogOpener struct {
	mu     sync.Mutex
	links  []string
	logger *zap.Logger
}

// NewLogOpener creates a recording opener
func NewLogOpener(logger *zap.Logger) *LogOpener {
	return &LogOpener{logger: logging.OrNop(logger)}
}

func (o *LogOpener) Open(ctx context.Context, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	o.links = append(o.links, link)
	o.mu.Unlock()
	o.logger.Debug("Deep link prepared", zap.Int("length", len(link)))
	return nil
}

// Links returns every link opened so far
func (o *LogOpener) Links() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.links))
	copy(out, o.links)
	return out
}
