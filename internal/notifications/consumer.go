package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/db"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox/payloads"
)

const notificationConsumerName = "notification-worker"

type creator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer turns notification_requested events into stored notifications.
type Consumer struct {
	repo         creator
	subscription receiver
	idempotency  *idempotency.Manager
	relay        Relay
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer. relay may be nil.
func NewConsumer(repo creator, subscription *pubsub.Subscriber, manager *idempotency.Manager, relay Relay, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		relay:        relay,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	notice := Notice{
		Audience:   payload.Audience,
		Title:      payload.Title,
		Message:    payload.Message,
		GatePassID: payload.GatePassID,
		PassNumber: payload.PassNumber,
	}
	if err := notice.validate(); err != nil {
		c.logg.Error(logCtx, "invalid notification payload", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithGatePass(logCtx, payload.GatePassID.String(), payload.PassNumber)

	occurredAt := envelope.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	// The event id doubles as the row id so redelivery cannot duplicate rows.
	row := newNotification(eventID, notice, occurredAt)
	if err := c.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			c.logg.Info(logCtx, "notification already stored")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "notification insert failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumerName, eventID)
		return processResult{nack: true}
	}
	c.logg.Info(c.logg.WithField(logCtx, "audience", string(notice.Audience)), "notification stored")

	if c.relay != nil {
		if err := c.relay.Relay(ctx, row); err != nil {
			c.logg.Warn(logCtx, "notification relay failed: "+err.Error())
		}
	}
	return processResult{ack: true}
}
