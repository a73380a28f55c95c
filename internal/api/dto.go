package api

import (
	"time"

	"github.com/lcrostarosa/nirbhaya/internal/alertlog"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/session"
	"github.com/lcrostarosa/nirbhaya/internal/sos"
)

// SessionDTO is the signed-in state
type SessionDTO struct {
	Authenticated bool                 `json:"authenticated"`
	User          *session.UserProfile `json:"user,omitempty"`
}

// LocationDTO is a position with its derived display fields
type LocationDTO struct {
	location.Sample
	MapsLink    string `json:"mapsLink"`
	DisplayText string `json:"displayText"`
}

// ToLocationDTO converts a location sample
func ToLocationDTO(s location.Sample) LocationDTO {
	return LocationDTO{Sample: s, MapsLink: s.MapsLink(), DisplayText: s.DisplayText()}
}

// ActivationDTO is returned when a countdown starts
type ActivationDTO struct {
	ActivationID string    `json:"activationId"`
	State        sos.State `json:"state"`
	Remaining    int       `json:"remaining"`
	StartedAt    time.Time `json:"startedAt"`
}

// AlertDTO is one entry of the SOS history
type AlertDTO struct {
	ID            string    `json:"id"`
	Outcome       string    `json:"outcome"`
	Attempted     int       `json:"attempted"`
	Notified      int       `json:"notified"`
	Failed        int       `json:"failed"`
	Summary       string    `json:"summary"`
	LocationKnown bool      `json:"locationKnown"`
	MapsLink      string    `json:"mapsLink,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// ToAlertDTO converts a stored record
func ToAlertDTO(r alertlog.Record) AlertDTO {
	dto := AlertDTO{
		ID:            r.ID,
		Outcome:       r.Outcome,
		Attempted:     r.Attempted,
		Notified:      r.Notified,
		Failed:        r.Failed,
		LocationKnown: r.LocationKnown(),
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
	if r.Outcome == string(sos.OutcomeSent) {
		dto.Summary = sos.SummaryLine(r.Notified, r.Attempted)
	}
	if dto.LocationKnown {
		dto.MapsLink = location.MapsLink(*r.Latitude, *r.Longitude)
	}
	return dto
}
