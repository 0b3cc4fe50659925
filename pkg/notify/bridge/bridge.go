// Package bridge forwards engine notifications to a RabbitMQ topic
// exchange so out-of-process consumers (mail notifiers, archivers) can
// subscribe without linking the engine.
package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"parley/pkg/logger"
	"parley/pkg/notify"
)

// Bridge publishes bus events as JSON envelopes under routing key
// "parley.<kind>".
type Bridge struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
}

type eventEnvelope struct {
	Meta struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
		TS   int64  `json:"ts"`
	} `json:"meta"`
	Data notify.Event `json:"data"`
}

func New(url, exchange string) (*Bridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &Bridge{conn: conn, ch: ch, exchange: exchange}, nil
}

// Attach subscribes the bridge to every event kind on bus. Publishing runs
// on the bridge's subscriber goroutine; a broker outage therefore never
// stalls in-process delivery.
func (b *Bridge) Attach(bus *notify.Bus) {
	bus.SubscribeAll(func(ev notify.Event) {
		if err := b.publish(ev); err != nil {
			logger.Warn("bridge_publish_failed", "kind", string(ev.Kind()), "error", err)
		}
	})
}

func (b *Bridge) publish(ev notify.Event) error {
	var env eventEnvelope
	env.Meta.ID = uuid.NewString()
	env.Meta.Kind = string(ev.Kind())
	env.Meta.TS = time.Now().UTC().UnixNano()
	env.Data = ev
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.ch.PublishWithContext(
		ctx, b.exchange, "parley."+string(ev.Kind()), false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    env.Meta.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (b *Bridge) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	return b.conn.Close()
}
