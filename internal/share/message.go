// Package share formats the emergency broadcast and delivers it to
// contacts over messaging deep links and optional relays.
package share

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/session"
)

// LocationUnavailable replaces both location lines when no fix was obtained
const LocationUnavailable = "Location unavailable"

// TimestampLayout renders the message time line
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Broadcast is one SOS message bound for every emergency contact. It is
// built per activation and never stored.
type Broadcast struct {
	ActivationID string
	User         session.UserProfile
	Location     *location.Sample
	Message      string
	SentAt       time.Time
}

// NewBroadcast formats the message for user and the optional sample
func NewBroadcast(activationID string, user session.UserProfile, sample *location.Sample, at time.Time) Broadcast {
	return Broadcast{
		ActivationID: activationID,
		User:         user,
		Location:     sample,
		Message:      FormatMessage(user, sample, at),
		SentAt:       at,
	}
}

// FormatMessage renders the emergency alert body. A nil sample yields an
// explicit unavailable marker instead of coordinates.
func FormatMessage(user session.UserProfile, sample *location.Sample, at time.Time) string {
	locationText, mapsText := LocationUnavailable, LocationUnavailable
	if sample != nil {
		locationText = sample.DisplayText()
		mapsText = sample.MapsLink()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 EMERGENCY ALERT - %s 🚨\n\n", user.Name)
	b.WriteString("I need immediate help! Please contact me or the authorities.\n\n")
	fmt.Fprintf(&b, "📍 Location: %s\n", locationText)
	fmt.Fprintf(&b, "🗺️ Maps: %s\n\n", mapsText)
	b.WriteString("👤 My Details:\n")
	fmt.Fprintf(&b, "• Name: %s\n", user.Name)
	fmt.Fprintf(&b, "• Phone: %s\n", user.Phone)
	fmt.Fprintf(&b, "• Blood Group: %s\n", user.BloodGroup)
	fmt.Fprintf(&b, "• DOB: %s\n\n", user.DateOfBirth)
	fmt.Fprintf(&b, "⏰ Time: %s\n\n", at.Format(TimestampLayout))
	b.WriteString("Please share this with emergency contacts and authorities if needed.\n\n")
	b.WriteString("#Emergency #Safety #NirbhayaApp")
	return b.String()
}

// encodeComponent percent-encodes s the way a URI component is encoded,
// spaces as %20 rather than +.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// digitsOnly strips everything but 0-9
func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink builds https://wa.me/<digits>?text=<message>. A phone with no
// digits opens the chooser link instead.
func WhatsAppLink(phone, message string) string {
	digits := digitsOnly(phone)
	if digits == "" {
		return "https://wa.me/?text=" + encodeComponent(message)
	}
	return "https://wa.me/" + digits + "?text=" + encodeComponent(message)
}

// SMSLink builds sms:<phone>?body=<message>
func SMSLink(phone, message string) string {
	p := strings.Map(func(r rune) rune {
		if r == '+' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, phone)
	return "sms:" + p + "?body=" + encodeComponent(message)
}

// ContactLabel is a log-safe label for a contact
func ContactLabel(c contacts.TrustedContact) string {
	return c.Name + " (" + c.ID + ")"
}
