package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox/payloads"
)

type memoryIdempotencyStore struct {
	keys map[string]bool
	err  error
}

func (m *memoryIdempotencyStore) Get(context.Context, string) (string, error) { return "", nil }

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "gp:idempotency:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

type creatorFunc func(ctx context.Context, notification *models.Notification) error

func (f creatorFunc) Create(ctx context.Context, notification *models.Notification) error {
	return f(ctx, notification)
}

type recordingRelay struct {
	relayed []*models.Notification
	err     error
}

func (r *recordingRelay) Relay(_ context.Context, n *models.Notification) error {
	r.relayed = append(r.relayed, n)
	return r.err
}

func newTestConsumer(t *testing.T, repo creator, store *memoryIdempotencyStore, relay Relay) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(store, time.Hour)
	require.NoError(t, err)
	return &Consumer{
		repo:        repo,
		idempotency: manager,
		relay:       relay,
		logg:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func notificationMessage(t *testing.T, eventID uuid.UUID, payload payloads.NotificationRequestedEvent) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Data:       data,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventNotificationRequested)},
	}
}

func samplePayload() payloads.NotificationRequestedEvent {
	return payloads.NotificationRequestedEvent{
		Audience:   enums.AudienceHR,
		Title:      "Gate pass approved",
		Message:    "Gate pass GP-2024-0002 has been approved",
		GatePassID: uuid.New(),
		PassNumber: "GP-2024-0002",
	}
}

func TestConsumerStoresNotificationOnce(t *testing.T) {
	var stored []*models.Notification
	repo := creatorFunc(func(_ context.Context, n *models.Notification) error {
		stored = append(stored, n)
		return nil
	})
	relay := &recordingRelay{}
	consumer := newTestConsumer(t, repo, &memoryIdempotencyStore{keys: map[string]bool{}}, relay)

	eventID := uuid.New()
	msg := notificationMessage(t, eventID, samplePayload())

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	require.Len(t, stored, 1)
	assert.Equal(t, eventID, stored[0].ID)
	assert.Equal(t, enums.AudienceHR, stored[0].Audience)
	assert.Len(t, relay.relayed, 1)

	result = consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Len(t, stored, 1, "redelivery must not store twice")
}

func TestConsumerSkipsOtherEvents(t *testing.T) {
	repo := creatorFunc(func(context.Context, *models.Notification) error {
		t.Fatal("unexpected create")
		return nil
	})
	consumer := newTestConsumer(t, repo, &memoryIdempotencyStore{keys: map[string]bool{}}, nil)
	msg := &pubsub.Message{ID: "m", Attributes: map[string]string{"event_type": "something_else"}}
	assert.True(t, consumer.process(context.Background(), msg).ack)
}

func TestConsumerNacksAndReleasesKeyOnInsertFailure(t *testing.T) {
	store := &memoryIdempotencyStore{keys: map[string]bool{}}
	repo := creatorFunc(func(context.Context, *models.Notification) error {
		return errors.New("db down")
	})
	consumer := newTestConsumer(t, repo, store, nil)

	result := consumer.process(context.Background(), notificationMessage(t, uuid.New(), samplePayload()))
	assert.True(t, result.nack)
	assert.Empty(t, store.keys)
}

func TestConsumerTreatsDuplicateRowAsDelivered(t *testing.T) {
	repo := creatorFunc(func(context.Context, *models.Notification) error {
		return errors.New("UNIQUE constraint failed: notifications.id")
	})
	consumer := newTestConsumer(t, repo, &memoryIdempotencyStore{keys: map[string]bool{}}, nil)

	result := consumer.process(context.Background(), notificationMessage(t, uuid.New(), samplePayload()))
	assert.True(t, result.ack)
}

func TestConsumerRelayFailureStillAcks(t *testing.T) {
	repo := creatorFunc(func(context.Context, *models.Notification) error { return nil })
	relay := &recordingRelay{err: errors.New("webhook down")}
	consumer := newTestConsumer(t, repo, &memoryIdempotencyStore{keys: map[string]bool{}}, relay)

	result := consumer.process(context.Background(), notificationMessage(t, uuid.New(), samplePayload()))
	assert.True(t, result.ack)
	assert.Len(t, relay.relayed, 1)
}

func TestConsumerNacksWhenIdempotencyStoreFails(t *testing.T) {
	repo := creatorFunc(func(context.Context, *models.Notification) error { return nil })
	consumer := newTestConsumer(t, repo, &memoryIdempotencyStore{keys: map[string]bool{}, err: errors.New("redis down")}, nil)

	result := consumer.process(context.Background(), notificationMessage(t, uuid.New(), samplePayload()))
	assert.True(t, result.nack)
}
