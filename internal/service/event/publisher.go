package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/capilarmax/clinic-api/pkg/messaging"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

// Publisher wraps domain events in a messaging.Message and hands them to the
// broker. Channels are the event type prefixed with the configured prefix.
type Publisher struct {
	broker  messaging.Broker
	prefix  string
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewPublisher(broker messaging.Broker, prefix string, m *metrics.Metrics) *Publisher {
	return &Publisher{
		broker:  broker,
		prefix:  prefix,
		metrics: m,
		now:     time.Now,
	}
}

// Channel returns the broker channel events of type t are published on.
func (p *Publisher) Channel(t Type) string {
	return p.prefix + string(t)
}

func (p *Publisher) Publish(ctx context.Context, t Type, payload interface{}) error {
	msg := messaging.Message{
		ID:         uuid.NewString(),
		Type:       string(t),
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	}
	if err := p.broker.Publish(ctx, p.Channel(t), msg); err != nil {
		p.metrics.EventsPublished.WithLabelValues(string(t), "failed").Inc()
		return fmt.Errorf("failed to publish %s: %w", t, err)
	}
	p.metrics.EventsPublished.WithLabelValues(string(t), "ok").Inc()
	return nil
}

// Emit publishes and only logs a failure. The state change that produced the
// event has already happened and stays.
func (p *Publisher) Emit(ctx context.Context, t Type, payload interface{}) {
	if err := p.Publish(ctx, t, payload); err != nil {
		log.Warn().Err(err).Str("event_type", string(t)).Msg("event not delivered")
	}
}
