package pkg

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
)

// NATSBus publishes and subscribes over a single NATS connection.
type NATSBus struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger apt.Logger
}

// NewNATSBus connects to url. name identifies the client in NATS monitoring.
func NewNATSBus(url, name string, logger apt.Logger) (*NATSBus, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	conn, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSBus{conn: conn, logger: logger}, nil
}

func (b *NATSBus) Publish(ctx context.Context, topic string, msg []byte) error {
	return b.conn.Publish(topic, msg)
}

func (b *NATSBus) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	sub, err := b.conn.Subscribe(topic, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			b.logger.Error("event handler failed", "topic", topic, "error", err)
		}
	})
	if err != nil {
		return err
	}
	b.subs = append(b.subs, sub)
	return nil
}

// Close drains subscriptions before closing so in-flight handlers finish.
func (b *NATSBus) Close() error {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}
