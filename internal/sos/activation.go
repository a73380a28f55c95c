package sos

import (
	"context"
	"sync"
	"time"
)

// Activation is one press of the SOS control
type Activation struct {
	ID        string
	StartedAt time.Time
	userID    string

	countdown chan int
	cancelled chan struct{}
	done      chan struct{}

	stopOnce      sync.Once
	stop          func()
	cancelOnce    sync.Once
	countdownOnce sync.Once
	finishOnce    sync.Once

	mu     sync.Mutex
	result Result
}

func newActivation(id string, countdown int, now time.Time, stop func()) *Activation {
	return &Activation{
		ID:        id,
		StartedAt: now,
		countdown: make(chan int, countdown+1),
		cancelled: make(chan struct{}),
		done:      make(chan struct{}),
		stop:      stop,
	}
}

// Countdown yields the remaining seconds, starting with the full count.
// It is closed when the countdown ends either way.
func (a *Activation) Countdown() <-chan int {
	return a.countdown
}

// Done is closed when the activation has finished
func (a *Activation) Done() <-chan struct{} {
	return a.done
}

// Result returns the outcome; it is only meaningful after Done
func (a *Activation) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Wait blocks until the activation finishes or ctx ends
func (a *Activation) Wait(ctx context.Context) (Result, error) {
	select {
	case <-a.done:
		return a.Result(), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (a *Activation) emit(remaining int) {
	select {
	case a.countdown <- remaining:
	default:
	}
}

func (a *Activation) stopTicker() {
	a.stopOnce.Do(func() {
		if a.stop != nil {
			a.stop()
		}
	})
}

func (a *Activation) markCancelled() {
	a.cancelOnce.Do(func() { close(a.cancelled) })
}

func (a *Activation) closeCountdown() {
	a.countdownOnce.Do(func() { close(a.countdown) })
}

func (a *Activation) finish(res Result) {
	a.finishOnce.Do(func() {
		a.mu.Lock()
		a.result = res
		a.mu.Unlock()
		close(a.done)
	})
}
