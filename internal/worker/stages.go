// Package worker hosts the relay stages of the fulfillment pipeline. Each
// stage stands in for an external system (payment gateway, warehouse,
// carrier): it consumes one event type and publishes the successor event, and
// does nothing else.
package worker

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"library/internal/events"
	"library/internal/rabbit"
)

// Stage advances one pipeline transition: given the inbound event body it
// returns the routing key and payload of the event to publish. Real
// integrations can be substituted per stage without touching the wiring.
type Stage interface {
	Step() string
	Queue() string
	ConsumeKey() string
	Advance(ctx context.Context, body []byte) (routingKey string, evt any, err error)
}

type stage struct {
	step       string
	consumeKey string
	advance    func(ctx context.Context, log zerolog.Logger, body []byte) (string, any, error)
	log        zerolog.Logger
}

func (s *stage) Step() string       { return s.step }
func (s *stage) Queue() string      { return "checkout-worker." + s.step }
func (s *stage) ConsumeKey() string { return s.consumeKey }

func (s *stage) Advance(ctx context.Context, body []byte) (string, any, error) {
	return s.advance(ctx, s.log, body)
}

// decode unmarshals the inbound event. A malformed payload can never
// succeed on redelivery, so it is logged and skipped rather than requeued.
func decode[E any](log zerolog.Logger, body []byte) (E, bool) {
	var evt E
	if err := json.Unmarshal(body, &evt); err != nil {
		log.Warn().Err(err).Msg("invalid event payload, discarding")
		return evt, false
	}
	return evt, true
}

// Stages builds the five relay stages, keyed by the step names accepted in
// PROCESS_STEP.
func Stages(log zerolog.Logger) map[string]Stage {
	list := []*stage{
		{
			step:       "order-placed",
			consumeKey: events.RKOrderPlaced,
			advance: func(ctx context.Context, log zerolog.Logger, body []byte) (string, any, error) {
				evt, ok := decode[events.OrderPlacedEvent](log, body)
				if !ok {
					return "", nil, nil
				}
				log.Info().Int64("order_id", evt.OrderID).Msg("payment received")
				return events.RKPaymentConfirmed, events.PaymentConfirmedEvent{
					OrderID:     evt.OrderID,
					ConfirmedAt: time.Now().UTC(),
				}, nil
			},
		},
		{
			step:       "payment-confirmed",
			consumeKey: events.RKPaymentConfirmed,
			advance: func(ctx context.Context, log zerolog.Logger, body []byte) (string, any, error) {
				evt, ok := decode[events.PaymentConfirmedEvent](log, body)
				if !ok {
					return "", nil, nil
				}
				log.Info().Int64("order_id", evt.OrderID).Msg("processing order")
				return events.RKOrderProcessing, events.OrderProcessingEvent{
					OrderID:      evt.OrderID,
					ProcessingAt: time.Now().UTC(),
				}, nil
			},
		},
		{
			step:       "order-processing",
			consumeKey: events.RKOrderProcessing,
			advance: func(ctx context.Context, log zerolog.Logger, body []byte) (string, any, error) {
				evt, ok := decode[events.OrderProcessingEvent](log, body)
				if !ok {
					return "", nil, nil
				}
				log.Info().Int64("order_id", evt.OrderID).Msg("sending order")
				return events.RKOrderShipped, events.OrderShippedEvent{
					OrderID:   evt.OrderID,
					ShippedAt: time.Now().UTC(),
				}, nil
			},
		},
		{
			step:       "order-shipped",
			consumeKey: events.RKOrderShipped,
			advance: func(ctx context.Context, log zerolog.Logger, body []byte) (string, any, error) {
				evt, ok := decode[events.OrderShippedEvent](log, body)
				if !ok {
					return "", nil, nil
				}
				log.Info().Int64("order_id", evt.OrderID).Msg("delivering order")
				return events.RKOrderDelivered, events.OrderDeliveredEvent{
					OrderID:     evt.OrderID,
					DeliveredAt: time.Now().UTC(),
				}, nil
			},
		},
		{
			step:       "order-delivered",
			consumeKey: events.RKOrderDelivered,
			advance: func(ctx context.Context, log zerolog.Logger, body []byte) (string, any, error) {
				evt, ok := decode[events.OrderDeliveredEvent](log, body)
				if !ok {
					return "", nil, nil
				}
				log.Info().Int64("order_id", evt.OrderID).Msg("finalizing order")
				return events.RKOrderCompleted, events.OrderCompletedEvent{
					OrderID:     evt.OrderID,
					CompletedAt: time.Now().UTC(),
				}, nil
			},
		},
	}

	out := make(map[string]Stage, len(list))
	for _, s := range list {
		s.log = log.With().Str("step", s.step).Logger()
		out[s.step] = s
	}
	return out
}

// ValidSteps lists the accepted PROCESS_STEP values in stable order.
func ValidSteps(stages map[string]Stage) []string {
	steps := make([]string, 0, len(stages))
	for step := range stages {
		steps = append(steps, step)
	}
	sort.Strings(steps)
	return steps
}

// Run binds the stage's queue and relays each inbound event to its successor.
// A publish failure is returned to the broker so the inbound message is
// redelivered; the successor may therefore be published more than once for
// the same order.
func Run(ctx context.Context, br *rabbit.Rabbit, s Stage) error {
	return br.Consume(ctx, s.Queue(), []string{s.ConsumeKey()}, func(ctx context.Context, _ string, body []byte) error {
		key, evt, err := s.Advance(ctx, body)
		if err != nil {
			return err
		}
		if key == "" {
			return nil
		}
		return br.Publish(ctx, key, evt)
	})
}
