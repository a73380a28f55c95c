// Package errors provides sentinel errors for the nirbhaya application.
package errors

import "errors"

// Configuration errors
var (
	// ErrNotInitialized is returned when no config file exists yet.
	ErrNotInitialized = errors.New("nirbhaya not initialized")

	// ErrInvalidConfig is returned when a config value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Storage errors
var (
	// ErrKeyNotFound is returned by a key-value backend when a key is absent.
	ErrKeyNotFound = errors.New("key not found")
)

// Session errors
var (
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not signed in")

	// ErrInvalidProfile is returned when a profile is missing required fields.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Contact errors
var (
	// ErrContactNotFound is returned when no contact has the given id.
	ErrContactNotFound = errors.New("contact not found")

	// ErrInvalidContact is returned when a contact is missing required fields.
	ErrInvalidContact = errors.New("invalid contact")
)

// SOS workflow errors
var (
	// ErrWorkflowBusy is returned when an activation is attempted while a
	// countdown or send is already in flight.
	ErrWorkflowBusy = errors.New("sos already in progress")

	// ErrNotCountingDown is returned by cancel when there is no countdown to stop.
	ErrNotCountingDown = errors.New("no countdown in progress")

	// ErrSendInProgress is returned by cancel once the send phase has begun.
	ErrSendInProgress = errors.New("sos is already being sent")

	// ErrNotConfirming is returned by close when the dialog is not open.
	ErrNotConfirming = errors.New("sos dialog not open")
)

// Location errors
var (
	// ErrLocationUnavailable is returned when no position could be determined.
	ErrLocationUnavailable = errors.New("location unavailable")
)
