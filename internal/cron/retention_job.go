package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/pkg/logger"
)

const (
	notificationRetentionDays = 30
	outboxRetentionDays       = 30
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// sweepFunc deletes rows older than cutoff and reports how many went.
type sweepFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// retentionJob deletes aged rows of one table inside a single transaction.
type retentionJob struct {
	name      string
	logg      *logger.Logger
	db        txRunner
	sweep     sweepFunc
	retention int
	now       func() time.Time
}

func newRetentionJob(name string, logg *logger.Logger, db txRunner, sweep sweepFunc, retention, fallback int) (*retentionJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if retention <= 0 {
		retention = fallback
	}
	return &retentionJob{
		name:      name,
		logg:      logg,
		db:        db,
		sweep:     sweep,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) cutoff() time.Time {
	return j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
}

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.sweep(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}), "retention sweep complete")
	return nil
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notificationsCleanupRepo
	Retention  int
}

type notificationsCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewNotificationCleanupJob removes read notifications past the retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return newRetentionJob("notification-cleanup", params.Logger, params.DB,
		params.Repository.DeleteOlderThan, params.Retention, notificationRetentionDays)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	Retention  int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob removes published outbox rows past the retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return newRetentionJob("outbox-retention", params.Logger, params.DB,
		params.Repository.DeletePublishedBefore, params.Retention, outboxRetentionDays)
}
