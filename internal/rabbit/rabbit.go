// Package rabbit wraps the RabbitMQ topic exchange the checkout pipeline
// runs on. Delivery is at-least-once: consumers ack manually and a handler
// error requeues the message.
package rabbit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher is the piece of the broker services depend on; fakes implement it
// in tests.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	prefetch int
	log      zerolog.Logger
}

func New(url, exchange string, prefetch int, log zerolog.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange, prefetch: prefetch, log: log}, nil
}

func (r *Rabbit) Close() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// Publish marshals v as JSON and publishes it under routingKey. Every message
// gets a fresh MessageId so a downstream dedup layer has a key to work with.
func (r *Rabbit) Publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx, r.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
}

// Handler processes one delivery. Returning an error leaves the message
// unacknowledged and requeued.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Consume declares a durable queue, binds it to the given routing keys and
// dispatches deliveries to handler on a background goroutine. The goroutine
// exits when the channel is closed or ctx is done.
func (r *Rabbit) Consume(ctx context.Context, queue string, bindings []string, handler Handler) error {
	q, err := r.ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return err
	}
	for _, rk := range bindings {
		if err := r.ch.QueueBind(q.Name, rk, r.exchange, false, nil); err != nil {
			return err
		}
	}
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}
	deliveries, err := r.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				r.log.Info().Str("queue", queue).Msg("consumer stopping")
				return
			case d, ok := <-deliveries:
				if !ok {
					r.log.Info().Str("queue", queue).Msg("deliveries channel closed")
					return
				}
				if err := handler(ctx, d.RoutingKey, d.Body); err != nil {
					r.log.Error().Err(err).
						Str("queue", queue).
						Str("routing_key", d.RoutingKey).
						Msg("handler failed, requeueing")
					_ = d.Nack(false, true)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()
	return nil
}
