package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox/registry"
)

// broker is the Pub/Sub surface the publisher needs.
type broker interface {
	Ping(context.Context) error
	Send(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error)
}

type topicSource interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

// pubsubBroker publishes through cached per-topic publishers.
type pubsubBroker struct {
	client topicSource

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

func newPubSubBroker(client topicSource) *pubsubBroker {
	return &pubsubBroker{client: client, publishers: map[string]*gcppubsub.Publisher{}}
}

func (b *pubsubBroker) publisher(topic string) *gcppubsub.Publisher {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pub, ok := b.publishers[topic]; ok {
		return pub
	}
	pub := b.client.Publisher(topic)
	if pub != nil {
		b.publishers[topic] = pub
	}
	return pub
}

// Stop flushes and stops every cached publisher.
func (b *pubsubBroker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, pub := range b.publishers {
		pub.Stop()
		delete(b.publishers, topic)
	}
}

func (b *pubsubBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func (b *pubsubBroker) Send(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error) {
	pub := b.publisher(topic)
	if pub == nil {
		return "", registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}
	return pub.Publish(ctx, msg).Get(ctx)
}

func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	_, err := s.broker.Send(publishCtx, resolved.Descriptor.Topic, buildMessage(event, resolved))
	return err
}
