package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"library/internal/apperr"
	"library/internal/events"
)

// Queue the API process binds its projector consumers to.
const ProjectorQueue = "library-api.order-status"

// statusByKey maps each confirmation event to the status it implies.
var statusByKey = map[string]Status{
	events.RKPaymentConfirmed: StatusPaymentConfirmed,
	events.RKPaymentFailed:    StatusPaymentFailed,
	events.RKOrderProcessing:  StatusProcessing,
	events.RKOrderShipped:     StatusShipped,
	events.RKOrderDelivered:   StatusDelivered,
	events.RKOrderCompleted:   StatusCompleted,
}

// Projector derives the persisted order status from the stream of stage
// confirmation events.
type Projector struct {
	svc *Service
	log zerolog.Logger
}

func NewProjector(svc *Service, log zerolog.Logger) *Projector {
	return &Projector{svc: svc, log: log}
}

// Bindings lists the routing keys the projector queue subscribes to.
func (p *Projector) Bindings() []string {
	keys := make([]string, 0, len(statusByKey))
	for k := range statusByKey {
		keys = append(keys, k)
	}
	return keys
}

// Handle applies one confirmation event. An unknown order is logged and
// acked: requeueing it would never succeed and poisons the queue. A store
// failure is returned so the broker redelivers.
func (p *Projector) Handle(ctx context.Context, routingKey string, body []byte) error {
	status, ok := statusByKey[routingKey]
	if !ok {
		p.log.Warn().Str("routing_key", routingKey).Msg("unexpected routing key, discarding")
		return nil
	}

	var evt struct {
		OrderID int64 `json:"order_id"`
	}
	if err := json.Unmarshal(body, &evt); err != nil {
		p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("invalid event payload, discarding")
		return nil
	}

	if err := p.svc.UpdateStatus(ctx, evt.OrderID, status); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			p.log.Warn().Int64("order_id", evt.OrderID).
				Str("routing_key", routingKey).
				Msg("event for unknown order, discarding")
			return nil
		}
		return fmt.Errorf("projecting %s for order %d: %w", routingKey, evt.OrderID, err)
	}
	return nil
}
