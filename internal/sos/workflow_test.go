package sos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcrostarosa/nirbhaya/internal/alertlog"
	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/session"
	"github.com/lcrostarosa/nirbhaya/internal/share"
	"github.com/lcrostarosa/nirbhaya/internal/storage"
	"github.com/lcrostarosa/nirbhaya/internal/testutil"
	"github.com/lcrostarosa/nirbhaya/internal/toast"
)

const waitFor = 2 * time.Second

type stubSession struct {
	user session.UserProfile
	ok   bool
}

func (s stubSession) CurrentUser() (session.UserProfile, bool) { return s.user, s.ok }

type contactsFunc func() []contacts.TrustedContact

func (f contactsFunc) EmergencyOnly() []contacts.TrustedContact { return f() }

type locatorFunc func(ctx context.Context) (location.Sample, error)

func (f locatorFunc) Current(ctx context.Context) (location.Sample, error) { return f(ctx) }

type sentMessage struct {
	contactID string
	message   string
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []sentMessage
	fail  map[string]error
	panic map[string]bool
	gate  chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, b share.Broadcast, c contacts.TrustedContact) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{contactID: c.ID, message: b.Message})
	f.mu.Unlock()
	if f.panic[c.ID] {
		panic("handler crashed")
	}
	return f.fail[c.ID]
}

func (f *fakeSender) calls() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

type manualTicker struct {
	ch     chan time.Time
	mu     sync.Mutex
	starts int
	stops  int
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) factory(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	m.starts++
	m.mu.Unlock()
	return m.ch, func() {
		m.mu.Lock()
		m.stops++
		m.mu.Unlock()
	}
}

func (m *manualTicker) counts() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) observe(s State) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog) seen(s State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.states {
		if st == s {
			return true
		}
	}
	return false
}

type harness struct {
	w        *Workflow
	ticker   *manualTicker
	sender   *fakeSender
	toasts   *toast.Recorder
	states   *stateLog
	recorder *alertlog.FileRecorder
}

type option func(*Config)

func withContacts(list ...contacts.TrustedContact) option {
	return func(c *Config) {
		c.Contacts = contactsFunc(func() []contacts.TrustedContact { return list })
	}
}

func withLocator(l Locator) option {
	return func(c *Config) { c.Locator = l }
}

func fixedLocation(lat, lng float64) Locator {
	return locatorFunc(func(context.Context) (location.Sample, error) {
		return location.Sample{Latitude: lat, Longitude: lng, Address: location.CoordinatesText(lat, lng)}, nil
	})
}

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	h := &harness{
		ticker: newManualTicker(),
		sender: &fakeSender{},
		toasts: &toast.Recorder{},
		states: &stateLog{},
	}
	rec, err := alertlog.NewFileRecorder(t.TempDir())
	require.NoError(t, err)
	h.recorder = rec

	cfg := Config{
		Session:      stubSession{user: testutil.Profile(), ok: true},
		Contacts:     withNothing(),
		Locator:      fixedLocation(12.9, 77.6),
		Sender:       h.sender,
		Notifier:     h.toasts,
		Recorder:     rec,
		Capabilities: share.CapabilitiesFor(share.PlatformWeb),
		NewTicker:    h.ticker.factory,
		OnState:      h.states.observe,
	}
	for _, o := range opts {
		o(&cfg)
	}
	h.w, err = New(cfg)
	require.NoError(t, err)
	return h
}

func withNothing() Contacts {
	return contactsFunc(func() []contacts.TrustedContact { return nil })
}

func emergency(id, name, phone string) contacts.TrustedContact {
	return contacts.TrustedContact{ID: id, Name: name, Phone: phone, Relationship: "Family", IsEmergency: true}
}

// nextCount waits for the next countdown value
func nextCount(t *testing.T, act *Activation) int {
	t.Helper()
	select {
	case n, ok := <-act.Countdown():
		require.True(t, ok, "countdown closed early")
		return n
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for countdown")
		return -1
	}
}

func (h *harness) tick(t *testing.T, act *Activation) int {
	t.Helper()
	select {
	case h.ticker.ch <- time.Now():
	case <-time.After(waitFor):
		t.Fatal("ticker not being read")
	}
	return nextCount(t, act)
}

// runToZero drives the full countdown
func (h *harness) runToZero(t *testing.T, act *Activation) Result {
	t.Helper()
	require.Equal(t, 5, nextCount(t, act))
	for want := 4; want >= 0; want-- {
		require.Equal(t, want, h.tick(t, act))
	}
	return wait(t, act)
}

func wait(t *testing.T, act *Activation) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	res, err := act.Wait(ctx)
	require.NoError(t, err)
	return res
}

func titles(ts []toast.Toast) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func TestWorkedExample(t *testing.T) {
	ctx := context.Background()
	book := contacts.NewStore(storage.NewMemoryKV())
	mom, err := book.Add(ctx, contacts.NewContact{Name: "Mom", Phone: "+1555", Relationship: "Mother", IsEmergency: true})
	require.NoError(t, err)
	_, err = book.Add(ctx, contacts.NewContact{Name: "Friend", Phone: "+1556", Relationship: "Friend"})
	require.NoError(t, err)

	h := newHarness(t, func(c *Config) { c.Contacts = book })

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)
	res := h.runToZero(t, act)

	calls := h.sender.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, mom.ID, calls[0].contactID)
	assert.Contains(t, calls[0].message, "https://www.google.com/maps?q=12.9,77.6")
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, "1 of 1 contacts notified.", res.Summary)
	assert.True(t, res.LocationAvailable())
	assert.Equal(t, Idle, h.w.State())

	shown := h.toasts.Shown()
	require.NotEmpty(t, shown)
	last := shown[len(shown)-1]
	assert.Equal(t, toast.Success, last.Type)
	assert.Equal(t, "1 of 1 contacts notified.", last.Message)
}

func TestSecondActivationRejected(t *testing.T) {
	h := newHarness(t, withContacts(emergency("1", "Mom", "+1555")))

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)

	_, err = h.w.Activate(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrWorkflowBusy)
	_, err = h.w.Open(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrWorkflowBusy)

	starts, _ := h.ticker.counts()
	assert.Equal(t, 1, starts, "only one timer may exist")

	require.NoError(t, h.w.Cancel())
	wait(t, act)
}

func TestActivationRejectedWhileSending(t *testing.T) {
	h := newHarness(t, withContacts(emergency("1", "Mom", "+1555")))
	h.sender.gate = make(chan struct{})

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, nextCount(t, act))
	for want := 4; want >= 0; want-- {
		require.Equal(t, want, h.tick(t, act))
	}

	assert.Eventually(t, func() bool { return h.w.State() == Sending }, waitFor, time.Millisecond)
	_, err = h.w.Activate(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrWorkflowBusy)
	assert.ErrorIs(t, h.w.Cancel(), apperrors.ErrSendInProgress)

	close(h.sender.gate)
	res := wait(t, act)
	assert.Equal(t, OutcomeSent, res.Outcome)

	starts, stops := h.ticker.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestCancelAtEveryTick(t *testing.T) {
	for ticks := 0; ticks < 5; ticks++ {
		t.Run(fmt.Sprintf("remaining_%d", 5-ticks), func(t *testing.T) {
			h := newHarness(t, withContacts(emergency("1", "Mom", "+1555")))

			act, err := h.w.Activate(context.Background())
			require.NoError(t, err)
			require.Equal(t, 5, nextCount(t, act))
			for i := 0; i < ticks; i++ {
				require.Equal(t, 4-i, h.tick(t, act))
			}
			assert.Equal(t, 5-ticks, h.w.Remaining())

			require.NoError(t, h.w.Cancel())
			assert.Equal(t, Idle, h.w.State())

			res := wait(t, act)
			assert.Equal(t, OutcomeCancelled, res.Outcome)
			assert.Empty(t, h.sender.calls())
			assert.False(t, h.states.seen(Sending))

			_, stops := h.ticker.counts()
			assert.Equal(t, 1, stops, "cancel stops the timer")

			_, open := <-act.Countdown()
			assert.False(t, open, "countdown closed after cancel")

			assert.Contains(t, titles(h.toasts.Shown()), "SOS cancelled")
			assert.ErrorIs(t, h.w.Cancel(), apperrors.ErrNotCountingDown)
		})
	}
}

func TestContextCancelStopsCountdown(t *testing.T) {
	h := newHarness(t, withContacts(emergency("1", "Mom", "+1555")))
	ctx, cancel := context.WithCancel(context.Background())

	act, err := h.w.Activate(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, nextCount(t, act))
	cancel()

	res := wait(t, act)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Empty(t, h.sender.calls())
	assert.Equal(t, Idle, h.w.State())
}

func TestNoEmergencyContacts(t *testing.T) {
	h := newHarness(t)

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)
	res := h.runToZero(t, act)

	assert.Equal(t, OutcomeNoContacts, res.Outcome)
	assert.Empty(t, h.sender.calls())

	warnings := 0
	for _, ts := range h.toasts.Shown() {
		if ts.Title == "No emergency contacts" {
			warnings++
			assert.Equal(t, toast.Warning, ts.Type)
		}
	}
	assert.Equal(t, 1, warnings)
	assert.Equal(t, Idle, h.w.State())
}

func TestPartialFailureIsolation(t *testing.T) {
	var list []contacts.TrustedContact
	for i := 1; i <= 5; i++ {
		list = append(list, emergency(fmt.Sprint(i), fmt.Sprintf("Contact %d", i), fmt.Sprintf("+1555%d", i)))
	}
	h := newHarness(t, withContacts(list...))
	h.sender.fail = map[string]error{"2": errors.New("no handler")}
	h.sender.panic = map[string]bool{"4": true}

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)
	res := h.runToZero(t, act)

	assert.Len(t, h.sender.calls(), 5, "every contact gets an attempt")
	assert.Equal(t, 5, res.Attempted)
	assert.Equal(t, 3, res.Notified)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, "3 of 5 contacts notified.", res.Summary)
	require.Len(t, res.Attempts, 5)
	assert.False(t, res.Attempts[1].Delivered)
	assert.Contains(t, res.Attempts[3].Error, "panic")

	shown := h.toasts.Shown()
	assert.Equal(t, toast.Warning, shown[len(shown)-1].Type)
}

func TestLocationFailureStillSends(t *testing.T) {
	tests := map[string]Locator{
		"error": locatorFunc(func(context.Context) (location.Sample, error) {
			return location.Sample{}, apperrors.ErrLocationUnavailable
		}),
		"timeout": locatorFunc(func(ctx context.Context) (location.Sample, error) {
			<-ctx.Done()
			return location.Sample{}, ctx.Err()
		}),
		"hang": locatorFunc(func(context.Context) (location.Sample, error) {
			time.Sleep(time.Second)
			return location.Sample{Latitude: 1, Longitude: 1}, nil
		}),
	}
	for name, loc := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, withContacts(emergency("1", "Mom", "+1555")), withLocator(loc), func(c *Config) {
				c.LocationTimeout = 20 * time.Millisecond
			})

			act, err := h.w.Activate(context.Background())
			require.NoError(t, err)
			res := h.runToZero(t, act)

			calls := h.sender.calls()
			require.Len(t, calls, 1)
			assert.Contains(t, calls[0].message, "Location unavailable")
			assert.NotContains(t, calls[0].message, "NaN")
			assert.False(t, res.LocationAvailable())
			assert.Equal(t, "1 of 1 contacts notified.", res.Summary)
		})
	}
}

func TestUnexpectedFailureReturnsToIdle(t *testing.T) {
	calls := 0
	h := newHarness(t, func(c *Config) {
		c.Contacts = contactsFunc(func() []contacts.TrustedContact {
			calls++
			if calls == 1 {
				panic("storage exploded")
			}
			return []contacts.TrustedContact{emergency("1", "Mom", "+1555")}
		})
	})

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)
	res := h.runToZero(t, act)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, Idle, h.w.State())
	assert.Contains(t, titles(h.toasts.Shown()), "Failed to send SOS alert. Please try again.")

	again, err := h.w.Activate(context.Background())
	require.NoError(t, err, "control stays usable after a failure")
	res = h.runToZero(t, again)
	assert.Equal(t, OutcomeSent, res.Outcome)
}

func TestRequiresSignedInUser(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Session = stubSession{} })

	_, err := h.w.Activate(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	_, err = h.w.Open(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	assert.Equal(t, Idle, h.w.State())
	assert.Contains(t, titles(h.toasts.Shown()), "Please log in to use SOS feature")
}

func TestOpenAndClose(t *testing.T) {
	h := newHarness(t, withContacts(emergency("1", "Mom", "+1555"), emergency("2", "Dad", "+1556")))

	assert.ErrorIs(t, h.w.Close(), apperrors.ErrNotConfirming)

	sum, err := h.w.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Confirming, h.w.State())
	assert.Equal(t, 2, sum.ContactCount)
	assert.True(t, sum.CanActivate)
	assert.Equal(t, []string{"WhatsApp", "Location", "Sound"}, sum.Features)
	assert.Equal(t, 5, sum.CountdownSeconds)

	require.NoError(t, h.w.Close())
	assert.Equal(t, Idle, h.w.State())

	_, err = h.w.Open(context.Background())
	require.NoError(t, err)
	act, err := h.w.Activate(context.Background())
	require.NoError(t, err, "activation allowed from the dialog")
	assert.ErrorIs(t, h.w.Close(), apperrors.ErrWorkflowBusy)
	require.NoError(t, h.w.Cancel())
	wait(t, act)
}

func TestOutcomeIsRecorded(t *testing.T) {
	h := newHarness(t, withContacts(emergency("1", "Mom", "+1555")))

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)
	h.runToZero(t, act)

	records, err := h.recorder.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, act.ID, records[0].ID)
	assert.Equal(t, "user-1", records[0].UserID)
	assert.Equal(t, "sent", records[0].Outcome)
	assert.True(t, records[0].LocationKnown())

	st := h.w.Status()
	require.NotNil(t, st.LastResult)
	assert.Equal(t, act.ID, st.LastResult.ActivationID)
}

func TestRealTickerCountdown(t *testing.T) {
	h := newHarness(t, withContacts(emergency("1", "Mom", "+1555")), func(c *Config) {
		c.NewTicker = nil
		c.Tick = 5 * time.Millisecond
		c.Countdown = 3
	})

	act, err := h.w.Activate(context.Background())
	require.NoError(t, err)

	var seen []int
	for n := range act.Countdown() {
		seen = append(seen, n)
	}
	assert.Equal(t, []int{3, 2, 1, 0}, seen)
	assert.Equal(t, OutcomeSent, wait(t, act).Outcome)
}
