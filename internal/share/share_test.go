package share

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/testutil"
)

var sentAt = time.Date(2026, 3, 8, 21, 5, 9, 0, time.Local)

func TestFormatMessageWithLocation(t *testing.T) {
	sample := &location.Sample{Latitude: 12.9, Longitude: 77.6, Address: "Bengaluru, Karnataka, India"}
	msg := FormatMessage(testutil.Profile(), sample, sentAt)

	want := "🚨 EMERGENCY ALERT - Asha Rao 🚨\n\n" +
		"I need immediate help! Please contact me or the authorities.\n\n" +
		"📍 Location: Bengaluru, Karnataka, India\n" +
		"🗺️ Maps: https://www.google.com/maps?q=12.9,77.6\n\n" +
		"👤 My Details:\n" +
		"• Name: Asha Rao\n" +
		"• Phone: +91 98765 43210\n" +
		"• Blood Group: O+\n" +
		"• DOB: 1994-03-18\n\n" +
		"⏰ Time: 3/8/2026, 9:05:09 PM\n\n" +
		"Please share this with emergency contacts and authorities if needed.\n\n" +
		"#Emergency #Safety #NirbhayaApp"
	assert.Equal(t, want, msg)
}

func TestFormatMessageWithoutLocation(t *testing.T) {
	msg := FormatMessage(testutil.Profile(), nil, sentAt)

	assert.Contains(t, msg, "📍 Location: Location unavailable\n")
	assert.Contains(t, msg, "🗺️ Maps: Location unavailable\n")
	assert.NotContains(t, msg, "NaN")
	assert.NotContains(t, msg, "google.com")
}

func TestFormatMessageCoordinateFallback(t *testing.T) {
	msg := FormatMessage(testutil.Profile(), &location.Sample{Latitude: 1.5, Longitude: -2.25}, sentAt)
	assert.Contains(t, msg, "📍 Location: 1.500000, -2.250000\n")
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("+91 98765-43210", "help me & now")
	assert.Equal(t, "https://wa.me/919876543210?text=help%20me%20%26%20now", link)

	assert.Equal(t, "https://wa.me/?text=hi", WhatsAppLink("", "hi"))

	u, err := url.Parse(WhatsAppLink("+1555", FormatMessage(testutil.Profile(), nil, sentAt)))
	require.NoError(t, err)
	assert.Equal(t, FormatMessage(testutil.Profile(), nil, sentAt), u.Query().Get("text"))
}

func TestSMSLink(t *testing.T) {
	assert.Equal(t, "sms:+15551234?body=a%20b", SMSLink("+1 (555) 1234", "a b"))
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		ua   string
		want Platform
	}{
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8)", PlatformAndroid},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", PlatformIOS},
		{"Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X)", PlatformIOS},
		{"Mozilla/5.0 (X11; Linux x86_64)", PlatformWeb},
		{"", PlatformWeb},
	}
	for _, tt := range tests {
		t.Run(string(tt.want)+"/"+tt.ua, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.ua))
		})
	}
}

func TestResolvePlatformExplicit(t *testing.T) {
	assert.Equal(t, PlatformAndroid, ResolvePlatform("Android"))
	assert.Equal(t, PlatformIOS, ResolvePlatform("ios"))
	assert.Equal(t, PlatformWeb, ResolvePlatform("web"))
}

func TestCapabilityLabels(t *testing.T) {
	assert.Equal(t, []string{"SMS", "WhatsApp", "Location", "Vibration", "Sound"}, CapabilitiesFor(PlatformAndroid).Labels())
	assert.Equal(t, []string{"WhatsApp", "Location", "Sound"}, CapabilitiesFor(PlatformWeb).Labels())
	assert.False(t, CapabilitiesFor(PlatformWeb).CanSendNativeSMS)
}

type failingOpener struct{ fail func(link string) bool }

func (f failingOpener) Open(_ context.Context, link string) error {
	if f.fail(link) {
		return errors.New("handler missing")
	}
	return nil
}

func contact(id, phone string) contacts.TrustedContact {
	return contacts.TrustedContact{ID: id, Name: "C" + id, Phone: phone, Relationship: "Friend", IsEmergency: true}
}

func TestDispatcherChannelOrder(t *testing.T) {
	opener := NewLogOpener(nil)
	mobile := NewDispatcher(CapabilitiesFor(PlatformAndroid), opener, nil)
	assert.Equal(t, []string{"sms", "whatsapp"}, mobile.Channels())

	web := NewDispatcher(CapabilitiesFor(PlatformWeb), opener, nil)
	assert.Equal(t, []string{"whatsapp"}, web.Channels())

	b := NewBroadcast("a1", testutil.Profile(), nil, sentAt)
	require.NoError(t, mobile.Send(context.Background(), b, contact("1", "+1555")))

	links := opener.Links()
	require.Len(t, links, 2)
	assert.True(t, strings.HasPrefix(links[0], "sms:+1555?body="))
	assert.True(t, strings.HasPrefix(links[1], "https://wa.me/1555?text="))
}

func TestDispatcherSucceedsWhenAnyChannelWorks(t *testing.T) {
	opener := failingOpener{fail: func(link string) bool { return strings.HasPrefix(link, "sms:") }}
	d := NewDispatcher(CapabilitiesFor(PlatformIOS), opener, nil)

	err := d.Send(context.Background(), NewBroadcast("a1", testutil.Profile(), nil, sentAt), contact("1", "+1555"))
	assert.NoError(t, err)
}

func TestDispatcherFailsWhenAllChannelsFail(t *testing.T) {
	opener := failingOpener{fail: func(string) bool { return true }}
	d := NewDispatcher(CapabilitiesFor(PlatformAndroid), opener, nil)

	err := d.Send(context.Background(), NewBroadcast("a1", testutil.Profile(), nil, sentAt), contact("1", "+1555"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms:")
	assert.Contains(t, err.Error(), "whatsapp:")
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakePublisher struct {
	topic   string
	payload []byte
	err     error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.topic = topic
	p.payload, _ = payload.([]byte)
	return newFakeToken(p.err)
}

func TestMQTTChannelPublishesPayload(t *testing.T) {
	pub := &fakePublisher{}
	ch := NewMQTTChannel(pub, "nirbhaya/sos/")
	sample := &location.Sample{Latitude: 12.9, Longitude: 77.6}
	b := NewBroadcast("act-1", testutil.Profile(), sample, sentAt)

	require.NoError(t, ch.Deliver(context.Background(), b, contact("7", "+1555")))
	assert.Equal(t, "nirbhaya/sos/user-1", pub.topic)

	var got RelayPayload
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, "act-1", got.ActivationID)
	assert.Equal(t, "7", got.ContactID)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 12.9, *got.Latitude)
	assert.Equal(t, b.Message, got.Message)
}

func TestMQTTChannelReportsBrokerError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	ch := NewMQTTChannel(pub, "nirbhaya/sos")

	err := ch.Deliver(context.Background(), NewBroadcast("a", testutil.Profile(), nil, sentAt), contact("1", "+1"))
	assert.ErrorContains(t, err, "not connected")
}

func TestRelayJoinsDispatcher(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(CapabilitiesFor(PlatformWeb), failingOpener{fail: func(string) bool { return true }}, nil,
		NewMQTTChannel(pub, "x"))

	assert.Equal(t, []string{"whatsapp", "mqtt"}, d.Channels())
	assert.NoError(t, d.Send(context.Background(), NewBroadcast("a", testutil.Profile(), nil, sentAt), contact("1", "+1")))
}
