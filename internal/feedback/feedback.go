// Package feedback produces local sensory feedback (sound, banner) when an
// SOS is sent. Every alerter is best-effort.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Alerter raises a local alarm
type Alerter interface {
	Alert(ctx context.Context) error
}

// AlerterFunc adapts a function to Alerter
type AlerterFunc func(ctx context.Context) error

func (f AlerterFunc) Alert(ctx context.Context) error { return f(ctx) }

// TerminalAlerter rings the terminal bell and prints a banner
type TerminalAlerter struct {
	mu    sync.Mutex
	w     io.Writer
	rings int
}

// NewTerminalAlerter writes to w
func NewTerminalAlerter(w io.Writer, rings int) *TerminalAlerter {
	if rings < 1 {
		rings = 3
	}
	return &TerminalAlerter{w: w, rings: rings}
}

func (t *TerminalAlerter) Alert(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.rings; i++ {
		if _, err := io.WriteString(t.w, "\a"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(t.w, "\n🚨 SOS ACTIVATED 🚨")
	return err
}

// Multi runs every alerter and joins their errors
type Multi []Alerter

func (m Multi) Alert(ctx context.Context) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.Alert(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop does nothing
type Nop struct{}

func (Nop) Alert(context.Context) error { return nil }
