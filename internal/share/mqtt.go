package share

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/config"
	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// Publisher is the subset of mqtt.Client the relay needs
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// RelayPayload is the JSON document published per contact
type RelayPayload struct {
	ActivationID string    `json:"activationId"`
	UserID       string    `json:"userId"`
	ContactID    string    `json:"contactId"`
	ContactName  string    `json:"contactName"`
	ContactPhone string    `json:"contactPhone"`
	Message      string    `json:"message"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	SentAt       time.Time `json:"sentAt"`
}

// MQTTChannel publishes the broadcast to a relay broker so a companion
// device or gateway can forward it
type MQTTChannel struct {
	pub     Publisher
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTTChannel publishes under prefix/<user id> with QoS 1
func NewMQTTChannel(pub Publisher, prefix string) *MQTTChannel {
	return &MQTTChannel{
		pub:     pub,
		prefix:  strings.TrimRight(prefix, "/"),
		qos:     1,
		timeout: 5 * time.Second,
	}
}

func (m *MQTTChannel) Name() string { return "mqtt" }

// Topic returns the topic for a user
func (m *MQTTChannel) Topic(userID string) string {
	return m.prefix + "/" + userID
}

func (m *MQTTChannel) Deliver(ctx context.Context, b Broadcast, c contacts.TrustedContact) error {
	payload := RelayPayload{
		ActivationID: b.ActivationID,
		UserID:       b.User.ID,
		ContactID:    c.ID,
		ContactName:  c.Name,
		ContactPhone: c.Phone,
		Message:      b.Message,
		SentAt:       b.SentAt,
	}
	if b.Location != nil {
		lat, lng := b.Location.Latitude, b.Location.Longitude
		payload.Latitude, payload.Longitude = &lat, &lng
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	token := m.pub.Publish(m.Topic(b.User.ID), m.qos, false, data)
	select {
	case <-token.Done():
	case <-time.After(m.timeout):
		return fmt.Errorf("publish to %s timed out", m.Topic(b.User.ID))
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.Topic(b.User.ID), err)
	}
	return nil
}

// ConnectRelay dials the configured broker. The returned func disconnects.
func ConnectRelay(cfg config.RelayConfig, logger *zap.Logger) (mqtt.Client, func(), error) {
	logger = logging.OrNop(logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("Relay connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("failed to connect to relay broker: %w", token.Error())
	}
	logger.Info("Relay connected", zap.String("client_id", cfg.ClientID))

	return client, func() { client.Disconnect(250) }, nil
}
