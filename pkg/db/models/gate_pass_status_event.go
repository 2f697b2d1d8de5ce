package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// GatePassStatusEvent is one append-only entry of a pass's status history.
type GatePassStatusEvent struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	GatePassID uuid.UUID            `gorm:"column:gate_pass_id;type:uuid;not null;uniqueIndex:ux_gate_pass_status_events_seq,priority:1"`
	Sequence   int                  `gorm:"column:sequence;not null;uniqueIndex:ux_gate_pass_status_events_seq,priority:2"`
	Status     enums.GatePassStatus `gorm:"column:status;type:text;not null"`
	ChangedAt  time.Time            `gorm:"column:changed_at;not null"`
	ChangedBy  string               `gorm:"column:changed_by;not null"`
}
