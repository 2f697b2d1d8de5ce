package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// Notification stores in-app notifications addressed to a role audience.
type Notification struct {
	ID         uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	Audience   enums.NotificationAudience `gorm:"column:audience;type:text;not null;index:idx_notifications_audience_created,priority:1"`
	Title      string                     `gorm:"column:title;type:text;not null"`
	Message    string                     `gorm:"column:message;type:text;not null"`
	GatePassID *uuid.UUID                 `gorm:"column:gate_pass_id;type:uuid"`
	PassNumber string                     `gorm:"column:pass_number;type:text;not null;default:''"`
	IsRead     bool                       `gorm:"column:is_read;not null;default:false"`
	ReadAt     *time.Time                 `gorm:"column:read_at"`
	CreatedAt  time.Time                  `gorm:"column:created_at;not null;index:idx_notifications_audience_created,priority:2"`
}
