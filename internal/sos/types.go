package sos

import (
	"fmt"
	"time"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/share"
)

// State is the workflow position
type State int

const (
	Idle State = iota
	Confirming
	CountingDown
	Sending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case CountingDown:
		return "counting_down"
	case Sending:
		return "sending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Confirming, CountingDown, Sending} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown sos state %q", text)
}

// Outcome is how an activation ended
type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeNoContacts Outcome = "no_contacts"
	OutcomeFailed     Outcome = "failed"
)

// Attempt is the send result for one contact
type Attempt struct {
	ContactID   string `json:"contactId"`
	ContactName string `json:"contactName"`
	Delivered   bool   `json:"delivered"`
	Error       string `json:"error,omitempty"`
}

// Result describes a finished activation
type Result struct {
	ActivationID string           `json:"activationId"`
	Outcome      Outcome          `json:"outcome"`
	Attempted    int              `json:"attempted"`
	Notified     int              `json:"notified"`
	Failed       int              `json:"failed"`
	Location     *location.Sample `json:"location,omitempty"`
	Attempts     []Attempt        `json:"attempts,omitempty"`
	Summary      string           `json:"summary"`
	Error        string           `json:"error,omitempty"`
	StartedAt    time.Time        `json:"startedAt"`
	FinishedAt   time.Time        `json:"finishedAt"`
}

// LocationAvailable reports whether the broadcast carried a position
func (r Result) LocationAvailable() bool {
	return r.Location != nil
}

// SummaryLine renders "<notified> of <attempted> contacts notified."
func SummaryLine(notified, attempted int) string {
	return fmt.Sprintf("%d of %d contacts notified.", notified, attempted)
}

// Summary is what the confirmation dialog shows
type Summary struct {
	UserName          string                    `json:"userName"`
	EmergencyContacts []contacts.TrustedContact `json:"emergencyContacts"`
	ContactCount      int                       `json:"contactCount"`
	Platform          share.Platform            `json:"platform"`
	Features          []string                  `json:"features"`
	CountdownSeconds  int                       `json:"countdownSeconds"`
	CanActivate       bool                      `json:"canActivate"`
}

// Status is a point-in-time view of the workflow
type Status struct {
	State        State   `json:"state"`
	Remaining    int     `json:"remaining"`
	ActivationID string  `json:"activationId,omitempty"`
	LastResult   *Result `json:"lastResult,omitempty"`
}
