// Package mqtt publishes emergency records to an MQTT broker so dispatch
// consoles can react without polling the HTTP API.
package mqtt

import (
	"context"
	"time"

	"github.com/harkveil/harkveil/internal/logger"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "harkveil/emergencies"

// QoSAtLeastOnce is the default delivery guarantee. A duplicated alert is
// cheaper for a dispatcher than a missed one.
const QoSAtLeastOnce byte = 1

// Client is the broker connection used by Publisher.
type Client interface {
	Connect(ctx context.Context) error
	// Publish blocks until the broker acknowledges the message, the
	// publish timeout passes or ctx ends.
	Publish(ctx context.Context, topic string, payload []byte) error
	IsConnected() bool
	// Disconnect is safe to call more than once.
	Disconnect()
}

// Config configures the paho-backed Client.
type Config struct {
	Broker   string // tcp://, ssl:// or ws:// URL
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
	Retain   bool

	// ReconnectCooldown is the minimum spacing between connect attempts.
	ReconnectCooldown time.Duration
	// ReconnectDelay is the first backoff step after a lost connection.
	ReconnectDelay    time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns the settings used for fields left zero.
func DefaultConfig() Config {
	return Config{
		Topic:             DefaultTopic,
		QoS:               QoSAtLeastOnce,
		ReconnectCooldown: 5 * time.Second,
		ReconnectDelay:    time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// GetLogger returns the mqtt module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("mqtt")
}
