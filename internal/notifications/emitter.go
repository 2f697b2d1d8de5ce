package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox"
	"github.com/angelmondragon/gatepass-backend/pkg/outbox/payloads"
)

// Emitter hands a notice to a delivery channel inside the caller's transaction.
type Emitter interface {
	Notify(ctx context.Context, tx *gorm.DB, notice Notice) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (string, error)
}

// OutboxEmitter queues a notification_requested event for the notification worker.
type OutboxEmitter struct {
	outbox outboxEmitter
}

func NewOutboxEmitter(svc outboxEmitter) (*OutboxEmitter, error) {
	if svc == nil {
		return nil, errors.New("outbox service required")
	}
	return &OutboxEmitter{outbox: svc}, nil
}

func (e *OutboxEmitter) Notify(ctx context.Context, tx *gorm.DB, notice Notice) error {
	if err := notice.validate(); err != nil {
		return err
	}
	_, err := e.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateGatePass,
		AggregateID:   notice.GatePassID,
		Data: payloads.NotificationRequestedEvent{
			Audience:   notice.Audience,
			Title:      notice.Title,
			Message:    notice.Message,
			GatePassID: notice.GatePassID,
			PassNumber: notice.PassNumber,
		},
	})
	if err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}

// DirectEmitter writes the notification row in the caller's transaction.
type DirectEmitter struct {
	repo Repository
	now  func() time.Time
}

func NewDirectEmitter(repo Repository) (*DirectEmitter, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	return &DirectEmitter{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (e *DirectEmitter) Notify(ctx context.Context, tx *gorm.DB, notice Notice) error {
	if err := notice.validate(); err != nil {
		return err
	}
	row := newNotification(uuid.New(), notice, e.now())
	if err := e.repo.WithTx(tx).Create(ctx, row); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// NewEmitter picks the emitter for the configured delivery mode.
func NewEmitter(cfg config.NotificationsConfig, outboxSvc outboxEmitter, repo Repository) (Emitter, error) {
	switch cfg.Delivery {
	case "", config.NotificationDeliveryOutbox:
		return NewOutboxEmitter(outboxSvc)
	case config.NotificationDeliveryDirect:
		return NewDirectEmitter(repo)
	default:
		return nil, fmt.Errorf("unsupported notification delivery %q", cfg.Delivery)
	}
}

func newNotification(id uuid.UUID, notice Notice, now time.Time) *models.Notification {
	row := &models.Notification{
		ID:         id,
		Audience:   notice.Audience,
		Title:      notice.Title,
		Message:    notice.Message,
		PassNumber: notice.PassNumber,
		CreatedAt:  now,
	}
	if notice.GatePassID != uuid.Nil {
		gatePassID := notice.GatePassID
		row.GatePassID = &gatePassID
	}
	return row
}
