package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// Photo records an exit or return capture. GatePassID is a weak reference.
type Photo struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	GatePassID  uuid.UUID       `gorm:"column:gate_pass_id;type:uuid;not null;index:idx_photos_gate_pass_id"`
	PassNumber  string          `gorm:"column:pass_number;not null;index:idx_photos_pass_number"`
	Type        enums.PhotoType `gorm:"column:type;type:text;not null"`
	StorageKey  string          `gorm:"column:storage_key;not null"`
	ContentType string          `gorm:"column:content_type;not null"`
	SizeBytes   int64           `gorm:"column:size_bytes;not null"`
	CapturedAt  time.Time       `gorm:"column:captured_at;not null"`
	CapturedBy  string          `gorm:"column:captured_by;not null"`
}
