package gatepasses

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// StatusEntryDTO is one status history entry on the wire.
type StatusEntryDTO struct {
	Status    enums.GatePassStatus `json:"status"`
	ChangedAt time.Time            `json:"changedAt"`
	ChangedBy string               `json:"changedBy"`
}

// GatePassDTO is the canonical wire representation of a pass.
type GatePassDTO struct {
	ID            uuid.UUID            `json:"id"`
	Number        string               `json:"number"`
	PersonName    string               `json:"personName"`
	Description   string               `json:"description"`
	CreatedBy     string               `json:"createdBy"`
	IsReturnable  bool                 `json:"isReturnable"`
	Status        enums.GatePassStatus `json:"status"`
	StatusHistory []StatusEntryDTO     `json:"statusHistory"`
	QRCodeURL     string               `json:"qrCodeUrl"`
	CreatedAt     time.Time            `json:"createdAt"`
	ApprovedAt    *time.Time           `json:"approvedAt"`
	RejectedAt    *time.Time           `json:"rejectedAt"`
	ExitTime      *time.Time           `json:"exitTime"`
	ReturnTime    *time.Time           `json:"returnTime"`
	ExitPhotoID   *uuid.UUID           `json:"exitPhotoId"`
	ReturnPhotoID *uuid.UUID           `json:"returnPhotoId"`
}

// ToDTO maps a stored pass to its wire form.
func ToDTO(pass *models.GatePass) GatePassDTO {
	history := make([]StatusEntryDTO, 0, len(pass.StatusHistory))
	for _, entry := range pass.StatusHistory {
		history = append(history, StatusEntryDTO{
			Status:    entry.Status,
			ChangedAt: entry.ChangedAt.UTC(),
			ChangedBy: entry.ChangedBy,
		})
	}
	return GatePassDTO{
		ID:            pass.ID,
		Number:        pass.Number,
		PersonName:    pass.PersonName,
		Description:   pass.Description,
		CreatedBy:     pass.CreatedBy,
		IsReturnable:  pass.IsReturnable,
		Status:        pass.Status,
		StatusHistory: history,
		QRCodeURL:     pass.QRCodeURL,
		CreatedAt:     pass.CreatedAt.UTC(),
		ApprovedAt:    utcPtr(pass.ApprovedAt),
		RejectedAt:    utcPtr(pass.RejectedAt),
		ExitTime:      utcPtr(pass.ExitTime),
		ReturnTime:    utcPtr(pass.ReturnTime),
		ExitPhotoID:   pass.ExitPhotoID,
		ReturnPhotoID: pass.ReturnPhotoID,
	}
}

// ToDTOs maps a list of passes.
func ToDTOs(passes []models.GatePass) []GatePassDTO {
	out := make([]GatePassDTO, 0, len(passes))
	for i := range passes {
		out = append(out, ToDTO(&passes[i]))
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
