// Package sos runs the emergency broadcast: a confirmation step, a
// cancellable countdown, then a fan-out of the alert to every emergency
// contact.
//
// A workflow owns at most one countdown timer at a time. Cancellation and
// the countdown's transition into Sending are decided under the same lock,
// so a successful Cancel guarantees nothing is sent for that activation.
package sos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/alertlog"
	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/feedback"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
	"github.com/lcrostarosa/nirbhaya/internal/session"
	"github.com/lcrostarosa/nirbhaya/internal/share"
	"github.com/lcrostarosa/nirbhaya/internal/toast"
)

// Session reports the signed-in user
type Session interface {
	CurrentUser() (session.UserProfile, bool)
}

// Contacts yields the current emergency contacts
type Contacts interface {
	EmergencyOnly() []contacts.TrustedContact
}

// Locator takes a location sample
type Locator interface {
	Current(ctx context.Context) (location.Sample, error)
}

// Sender delivers the broadcast to one contact
type Sender interface {
	Send(ctx context.Context, b share.Broadcast, c contacts.TrustedContact) error
}

// TickerFunc starts a ticker and returns its channel and a stop func
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Config wires a Workflow. Session, Contacts, Locator and Sender are
// required.
type Config struct {
	Session      Session
	Contacts     Contacts
	Locator      Locator
	Sender       Sender
	Alerter      feedback.Alerter
	Notifier     toast.Notifier
	Recorder     alertlog.Recorder
	Capabilities share.Capabilities

	// Countdown in ticks; defaults to 5
	Countdown int
	// Tick interval; defaults to one second
	Tick time.Duration
	// LocationTimeout bounds the location step; defaults to ten seconds
	LocationTimeout time.Duration

	NewTicker TickerFunc
	Now       func() time.Time
	// OnState, when set, observes every state change
	OnState func(State)
	Logger  *zap.Logger
}

// Workflow is the SOS state machine
type Workflow struct {
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	remaining int
	current   *Activation
	last      *Result
}

// New validates cfg and returns an idle workflow
func New(cfg Config) (*Workflow, error) {
	switch {
	case cfg.Session == nil:
		return nil, errors.New("sos: session is required")
	case cfg.Contacts == nil:
		return nil, errors.New("sos: contacts are required")
	case cfg.Locator == nil:
		return nil, errors.New("sos: locator is required")
	case cfg.Sender == nil:
		return nil, errors.New("sos: sender is required")
	}
	if cfg.Alerter == nil {
		cfg.Alerter = feedback.Nop{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = &toast.Recorder{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = alertlog.Nop{}
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = 5
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.LocationTimeout <= 0 {
		cfg.LocationTimeout = 10 * time.Second
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = realTicker
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Workflow{
		cfg:    cfg,
		logger: logging.OrNop(cfg.Logger).Named("sos"),
		state:  Idle,
	}, nil
}

// setStateLocked changes state and returns the observer call to run once
// the lock is released
func (w *Workflow) setStateLocked(s State) func() {
	w.state = s
	if w.cfg.OnState == nil {
		return func() {}
	}
	return func() { w.cfg.OnState(s) }
}

// State returns the current state
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Remaining returns the countdown value, 0 outside CountingDown
func (w *Workflow) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != CountingDown {
		return 0
	}
	return w.remaining
}

// Status returns state, countdown and the last finished result
func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := Status{State: w.state, LastResult: w.last}
	if w.state == CountingDown {
		st.Remaining = w.remaining
	}
	if w.current != nil {
		st.ActivationID = w.current.ID
	}
	return st
}

// Capabilities returns the injected platform capabilities
func (w *Workflow) Capabilities() share.Capabilities {
	return w.cfg.Capabilities
}

func (w *Workflow) requireUser() (session.UserProfile, error) {
	user, ok := w.cfg.Session.CurrentUser()
	if !ok {
		w.cfg.Notifier.Show(toast.Toast{
			Type:  toast.Warning,
			Title: "Please log in to use SOS feature",
		})
		return session.UserProfile{}, apperrors.ErrNotAuthenticated
	}
	return user, nil
}

// Open moves Idle to Confirming and returns what the dialog shows.
// Opening an already open dialog refreshes the summary.
func (w *Workflow) Open(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	user, err := w.requireUser()
	if err != nil {
		return Summary{}, err
	}

	w.mu.Lock()
	if w.state != Idle && w.state != Confirming {
		w.mu.Unlock()
		return Summary{}, apperrors.ErrWorkflowBusy
	}
	notify := w.setStateLocked(Confirming)
	w.mu.Unlock()
	notify()

	list := w.cfg.Contacts.EmergencyOnly()
	return Summary{
		UserName:          user.Name,
		EmergencyContacts: list,
		ContactCount:      len(list),
		Platform:          w.cfg.Capabilities.Platform,
		Features:          w.cfg.Capabilities.Labels(),
		CountdownSeconds:  w.cfg.Countdown,
		CanActivate:       len(list) > 0,
	}, nil
}

// Close moves Confirming back to Idle
func (w *Workflow) Close() error {
	w.mu.Lock()
	switch w.state {
	case Confirming:
		notify := w.setStateLocked(Idle)
		w.mu.Unlock()
		notify()
		return nil
	case Idle:
		w.mu.Unlock()
		return apperrors.ErrNotConfirming
	default:
		w.mu.Unlock()
		return apperrors.ErrWorkflowBusy
	}
}

// Activate starts the countdown. It is rejected with ErrWorkflowBusy unless
// the workflow is Idle or Confirming. Cancelling ctx during the countdown
// cancels the activation; once sending has begun ctx no longer applies.
func (w *Workflow) Activate(ctx context.Context) (*Activation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := w.requireUser()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.state != Idle && w.state != Confirming {
		w.mu.Unlock()
		w.logger.Warn("SOS activation rejected", zap.Stringer("state", w.State()))
		return nil, apperrors.ErrWorkflowBusy
	}

	ticks, stop := w.cfg.NewTicker(w.cfg.Tick)
	act := newActivation(uuid.NewString(), w.cfg.Countdown, w.cfg.Now(), stop)
	act.userID = user.ID
	w.current = act
	w.remaining = w.cfg.Countdown
	notify := w.setStateLocked(CountingDown)
	act.emit(w.remaining)
	w.mu.Unlock()
	notify()

	w.logger.Info("SOS countdown started",
		zap.String("activation_id", act.ID),
		zap.Int("seconds", w.cfg.Countdown))

	go w.run(ctx, act, user, ticks)
	return act, nil
}

// Cancel stops the active countdown. It fails with ErrSendInProgress once
// sending has begun and ErrNotCountingDown when there is nothing to stop.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	switch w.state {
	case CountingDown:
	case Sending:
		w.mu.Unlock()
		return apperrors.ErrSendInProgress
	default:
		w.mu.Unlock()
		return apperrors.ErrNotCountingDown
	}
	act := w.current
	notify := w.cancelLocked(act)
	w.mu.Unlock()
	notify()
	return nil
}

// cancelLocked stops act's timer and returns the workflow to Idle. The
// caller holds w.mu and act is the current activation.
func (w *Workflow) cancelLocked(act *Activation) func() {
	act.stopTicker()
	act.markCancelled()
	w.current = nil
	w.remaining = 0
	return w.setStateLocked(Idle)
}

func (w *Workflow) run(ctx context.Context, act *Activation, user session.UserProfile, ticks <-chan time.Time) {
	for {
		select {
		case <-act.cancelled:
			w.finishCancelled(act)
			return
		case <-ctx.Done():
			w.mu.Lock()
			notify := func() {}
			if w.current == act && w.state == CountingDown {
				notify = w.cancelLocked(act)
			}
			w.mu.Unlock()
			notify()
			w.finishCancelled(act)
			return
		case <-ticks:
			w.mu.Lock()
			if w.current != act || w.state != CountingDown {
				// Cancel won the race for this tick.
				w.mu.Unlock()
				w.finishCancelled(act)
				return
			}
			w.remaining--
			remaining := w.remaining
			notify := func() {}
			if remaining <= 0 {
				act.stopTicker()
				notify = w.setStateLocked(Sending)
			}
			act.emit(remaining)
			w.mu.Unlock()
			notify()

			if remaining <= 0 {
				act.closeCountdown()
				w.send(context.WithoutCancel(ctx), act, user)
				return
			}
		}
	}
}

func (w *Workflow) finishCancelled(act *Activation) {
	act.closeCountdown()
	now := w.cfg.Now()
	res := Result{
		ActivationID: act.ID,
		Outcome:      OutcomeCancelled,
		Summary:      "Emergency alert cancelled.",
		StartedAt:    act.StartedAt,
		FinishedAt:   now,
	}
	w.logger.Info("SOS cancelled", zap.String("activation_id", act.ID))
	w.cfg.Notifier.Show(toast.Toast{
		Type:    toast.Info,
		Title:   "SOS cancelled",
		Message: "Emergency alert was not sent.",
	})
	w.complete(act, res)
}

// complete publishes the result, records it and returns the workflow to
// Idle when act is still current
func (w *Workflow) complete(act *Activation, res Result) {
	w.mu.Lock()
	notify := func() {}
	if w.current == act {
		w.current = nil
		w.remaining = 0
		notify = w.setStateLocked(Idle)
	}
	r := res
	w.last = &r
	w.mu.Unlock()
	notify()

	w.record(act, res)
	act.finish(res)
}

func (w *Workflow) record(act *Activation, res Result) {
	rec := alertlog.Record{
		ID:         act.ID,
		UserID:     act.userID,
		Outcome:    string(res.Outcome),
		Attempted:  res.Attempted,
		Notified:   res.Notified,
		Failed:     res.Failed,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if res.Location != nil {
		lat, lng := res.Location.Latitude, res.Location.Longitude
		rec.Latitude, rec.Longitude = &lat, &lng
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.cfg.Recorder.Record(ctx, rec); err != nil {
		w.logger.Warn("Failed to record SOS activation", zap.String("activation_id", act.ID), zap.Error(err))
	}
}

// send runs the Sending steps. Any panic ends the activation as failed.
func (w *Workflow) send(ctx context.Context, act *Activation, user session.UserProfile) {
	res := Result{ActivationID: act.ID, StartedAt: act.StartedAt}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("SOS send aborted", zap.String("activation_id", act.ID), zap.Any("panic", r))
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprint(r)
			res.Summary = "Failed to send SOS alert. Please try again."
			res.FinishedAt = w.cfg.Now()
			w.cfg.Notifier.Show(toast.Toast{
				Type:  toast.Error,
				Title: "Failed to send SOS alert. Please try again.",
			})
			w.complete(act, res)
		}
	}()

	w.alert(ctx)

	if sample, ok := w.locate(ctx); ok {
		res.Location = &sample
	}

	list := w.cfg.Contacts.EmergencyOnly()
	if len(list) == 0 {
		res.Outcome = OutcomeNoContacts
		res.Summary = "No emergency contacts found. Please add trusted contacts first."
		res.FinishedAt = w.cfg.Now()
		w.logger.Warn("SOS aborted, no emergency contacts", zap.String("activation_id", act.ID))
		w.cfg.Notifier.Show(toast.Toast{
			Type:    toast.Warning,
			Title:   "No emergency contacts",
			Message: res.Summary,
		})
		w.complete(act, res)
		return
	}

	b := share.NewBroadcast(act.ID, user, res.Location, w.cfg.Now())
	for _, c := range list {
		res.Attempted++
		attempt := Attempt{ContactID: c.ID, ContactName: c.Name}
		if err := w.sendOne(ctx, b, c); err != nil {
			res.Failed++
			attempt.Error = err.Error()
			w.logger.Warn("SOS send to contact failed",
				zap.String("activation_id", act.ID),
				zap.String("contact_id", c.ID),
				zap.Error(err))
		} else {
			res.Notified++
			attempt.Delivered = true
		}
		res.Attempts = append(res.Attempts, attempt)
	}

	res.Outcome = OutcomeSent
	res.Summary = SummaryLine(res.Notified, res.Attempted)
	res.FinishedAt = w.cfg.Now()
	w.logger.Info("SOS sent",
		zap.String("activation_id", act.ID),
		zap.Int("notified", res.Notified),
		zap.Int("failed", res.Failed),
		zap.Bool("location", res.Location != nil))
	w.cfg.Notifier.Show(summaryToast(res))
	w.complete(act, res)
}

func summaryToast(res Result) toast.Toast {
	switch {
	case res.Failed == 0:
		return toast.Toast{
			Type:    toast.Success,
			Title:   fmt.Sprintf("🚨 SOS alert sent to %d contacts!", res.Notified),
			Message: res.Summary,
		}
	case res.Notified == 0:
		return toast.Toast{
			Type:    toast.Error,
			Title:   "Failed to send SOS alert. Please try again.",
			Message: res.Summary,
		}
	default:
		return toast.Toast{
			Type:    toast.Warning,
			Title:   "SOS alert partially sent",
			Message: res.Summary,
		}
	}
}

// alert fires local feedback without waiting on it
func (w *Workflow) alert(ctx context.Context) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Debug("Alerter panicked", zap.Any("panic", r))
			}
		}()
		if err := w.cfg.Alerter.Alert(ctx); err != nil {
			w.logger.Debug("Local alert failed", zap.Error(err))
		}
	}()
}

func (w *Workflow) locate(ctx context.Context) (sample location.Sample, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.LocationTimeout)
	defer cancel()

	type located struct {
		sample location.Sample
		err    error
	}
	done := make(chan located, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- located{err: fmt.Errorf("locator panic: %v", r)}
			}
		}()
		s, err := w.cfg.Locator.Current(ctx)
		done <- located{sample: s, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			w.logger.Warn("Sending SOS without location", zap.Error(r.err))
			return location.Sample{}, false
		}
		return r.sample, true
	case <-ctx.Done():
		w.logger.Warn("Sending SOS without location", zap.Error(ctx.Err()))
		return location.Sample{}, false
	}
}

func (w *Workflow) sendOne(ctx context.Context, b share.Broadcast, c contacts.TrustedContact) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panic: %v", r)
		}
	}()
	return w.cfg.Sender.Send(ctx, b, c)
}
