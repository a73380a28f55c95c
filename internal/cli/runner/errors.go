// Package runner provides an interceptor-based command execution framework
// for CLI commands. Interceptors wrap a handler the way HTTP middleware
// wraps a handler.
package runner

import (
	"errors"
	"fmt"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
)

// Standard errors returned by interceptors
var (
	// ErrNoConfig is returned when the config could not be loaded
	ErrNoConfig = errors.New("nirbhaya config unavailable - run 'nirbhaya init' or check NIRBHAYA_HOME")

	// ErrNotSignedIn is returned when a command needs a signed-in user
	ErrNotSignedIn = fmt.Errorf("%w - run 'nirbhaya login --name <name>' first", apperrors.ErrNotAuthenticated)
)
