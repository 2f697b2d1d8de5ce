package photos

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// PhotoDTO is the wire form of a photo record.
type PhotoDTO struct {
	ID          uuid.UUID       `json:"id"`
	GatePassID  uuid.UUID       `json:"gatepassId"`
	PassNumber  string          `json:"passNumber"`
	Type        enums.PhotoType `json:"type"`
	ContentType string          `json:"contentType"`
	SizeBytes   int64           `json:"sizeBytes"`
	CapturedAt  time.Time       `json:"capturedAt"`
	CapturedBy  string          `json:"capturedBy"`
	URL         string          `json:"url"`
}

// ToDTOs maps photo records, pointing each at the download route under baseURL.
func ToDTOs(rows []models.Photo, baseURL string) []PhotoDTO {
	out := make([]PhotoDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, PhotoDTO{
			ID:          p.ID,
			GatePassID:  p.GatePassID,
			PassNumber:  p.PassNumber,
			Type:        p.Type,
			ContentType: p.ContentType,
			SizeBytes:   p.SizeBytes,
			CapturedAt:  p.CapturedAt.UTC(),
			CapturedBy:  p.CapturedBy,
			URL:         baseURL + "/" + p.ID.String(),
		})
	}
	return out
}
