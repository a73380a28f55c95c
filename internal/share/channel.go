package share

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// Channel delivers a broadcast to a single contact
type Channel interface {
	Name() string
	Deliver(ctx context.Context, b Broadcast, c contacts.TrustedContact) error
}

// WhatsAppChannel opens a wa.me deep link per contact
type WhatsAppChannel struct {
	opener Opener
}

func NewWhatsAppChannel(opener Opener) *WhatsAppChannel {
	return &WhatsAppChannel{opener: opener}
}

func (w *WhatsAppChannel) Name() string { return "whatsapp" }

func (w *WhatsAppChannel) Deliver(ctx context.Context, b Broadcast, c contacts.TrustedContact) error {
	return w.opener.Open(ctx, WhatsAppLink(c.Phone, b.Message))
}

// SMSChannel opens the native sms: handler per contact
type SMSChannel struct {
	opener Opener
}

func NewSMSChannel(opener Opener) *SMSChannel {
	return &SMSChannel{opener: opener}
}

func (s *SMSChannel) Name() string { return "sms" }

func (s *SMSChannel) Deliver(ctx context.Context, b Broadcast, c contacts.TrustedContact) error {
	if digitsOnly(c.Phone) == "" {
		return errors.New("contact has no dialable number")
	}
	return s.opener.Open(ctx, SMSLink(c.Phone, b.Message))
}

// Dispatcher sends a broadcast to one contact over every channel the
// platform supports. Native SMS goes first on mobile, WhatsApp always,
// relays last.
type Dispatcher struct {
	channels []Channel
	logger   *zap.Logger
}

// NewDispatcher assembles the channel list for caps
func NewDispatcher(caps Capabilities, opener Opener, logger *zap.Logger, relays ...Channel) *Dispatcher {
	var channels []Channel
	if caps.CanSendNativeSMS {
		channels = append(channels, NewSMSChannel(opener))
	}
	channels = append(channels, NewWhatsAppChannel(opener))
	channels = append(channels, relays...)
	return &Dispatcher{channels: channels, logger: logging.OrNop(logger)}
}

// Channels returns the channel names in delivery order
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Send tries every channel. The contact counts as notified when at least
// one channel accepted the message; this only reflects the local hand-off,
// never delivery to the contact's device.
func (d *Dispatcher) Send(ctx context.Context, b Broadcast, c contacts.TrustedContact) error {
	var errs []error
	delivered := 0
	for _, ch := range d.channels {
		if err := ch.Deliver(ctx, b, c); err != nil {
			d.logger.Warn("Channel delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("contact_id", c.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		delivered++
	}
	if delivered > 0 {
		return nil
	}
	if len(errs) == 0 {
		return errors.New("no delivery channels configured")
	}
	return errors.Join(errs...)
}
