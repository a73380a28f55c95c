// Package toast holds transient user notifications. A Center keeps the
// active toasts for the API; a ConsoleNotifier renders them on a terminal.
package toast

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is the toast severity
type Type string

const (
	Success Type = "success"
	Error   Type = "error"
	Warning Type = "warning"
	Info    Type = "info"
)

// DefaultDuration is how long a toast stays visible
const DefaultDuration = 5 * time.Second

// Toast is one notification
type Toast struct {
	ID        string        `json:"id"`
	Type      Type          `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Notifier shows a toast and returns its id
type Notifier interface {
	Show(t Toast) string
}

func normalize(t Toast, now time.Time) Toast {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Type == "" {
		t.Type = Info
	}
	if t.Duration <= 0 {
		t.Duration = DefaultDuration
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	return t
}

// Center keeps active toasts and expires them after their duration
type Center struct {
	mu     sync.Mutex
	toasts []Toast
	timers map[string]*time.Timer
	now    func() time.Time
}

// NewCenter creates an empty notification center
func NewCenter() *Center {
	return &Center{timers: make(map[string]*time.Timer), now: time.Now}
}

// Show adds a toast and schedules its removal
func (c *Center) Show(t Toast) string {
	t = normalize(t, c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, t)
	id := t.ID
	c.timers[id] = time.AfterFunc(t.Duration, func() { c.Hide(id) })
	return id
}

// Hide removes a toast; unknown ids are ignored
func (c *Center) Hide(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	for i, t := range c.toasts {
		if t.ID == id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			return
		}
	}
}

// Active returns the visible toasts, oldest first
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}

// Clear hides everything
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.toasts = nil
}

// ConsoleNotifier prints toasts as one line each
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func icon(t Type) string {
	switch t {
	case Success:
		return "✅"
	case Error:
		return "❌"
	case Warning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

func (n *ConsoleNotifier) Show(t Toast) string {
	t = normalize(t, time.Now())
	n.mu.Lock()
	defer n.mu.Unlock()
	if t.Message != "" {
		fmt.Fprintf(n.w, "%s  %s: %s\n", icon(t.Type), t.Title, t.Message)
	} else {
		fmt.Fprintf(n.w, "%s  %s\n", icon(t.Type), t.Title)
	}
	return t.ID
}

// Multi shows a toast on every notifier under one id
type Multi []Notifier

func (m Multi) Show(t Toast) string {
	t = normalize(t, time.Now())
	for _, n := range m {
		if n != nil {
			n.Show(t)
		}
	}
	return t.ID
}

// Recorder keeps every toast shown; used by tests and the CLI summary
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Show(t Toast) string {
	t = normalize(t, time.Now())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
	return t.ID
}

// Shown returns every recorded toast
func (r *Recorder) Shown() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}
