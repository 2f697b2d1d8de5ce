package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// GatePass is the aggregate root of the lifecycle. StatusHistory is loaded
// separately and ordered by sequence.
type GatePass struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Number        string               `gorm:"column:number;not null;uniqueIndex:ux_gate_passes_number"`
	NumberYear    int                  `gorm:"column:number_year;not null;uniqueIndex:ux_gate_passes_year_seq,priority:1"`
	NumberSeq     int                  `gorm:"column:number_seq;not null;uniqueIndex:ux_gate_passes_year_seq,priority:2"`
	PersonName    string               `gorm:"column:person_name;not null"`
	Description   string               `gorm:"column:description;not null"`
	CreatedBy     string               `gorm:"column:created_by;not null;index:idx_gate_passes_created_by"`
	IsReturnable  bool                 `gorm:"column:is_returnable;not null"`
	Status        enums.GatePassStatus `gorm:"column:status;type:text;not null;index:idx_gate_passes_status"`
	QRCodeURL     string               `gorm:"column:qr_code_url;not null"`
	CreatedAt     time.Time            `gorm:"column:created_at;not null;index:idx_gate_passes_created_at"`
	ApprovedAt    *time.Time           `gorm:"column:approved_at"`
	RejectedAt    *time.Time           `gorm:"column:rejected_at"`
	ExitTime      *time.Time           `gorm:"column:exit_time"`
	ReturnTime    *time.Time           `gorm:"column:return_time"`
	ExitPhotoID   *uuid.UUID           `gorm:"column:exit_photo_id;type:uuid"`
	ReturnPhotoID *uuid.UUID           `gorm:"column:return_photo_id;type:uuid"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;not null"`

	StatusHistory []GatePassStatusEvent `gorm:"foreignKey:GatePassID;references:ID"`
}
