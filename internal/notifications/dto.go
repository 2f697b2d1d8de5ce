package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// NotificationDTO is the wire form of a notification.
type NotificationDTO struct {
	ID         uuid.UUID                  `json:"id"`
	Audience   enums.NotificationAudience `json:"audience"`
	Title      string                     `json:"title"`
	Message    string                     `json:"message"`
	GatePassID *uuid.UUID                 `json:"gatepassId,omitempty"`
	PassNumber string                     `json:"passNumber,omitempty"`
	IsRead     bool                       `json:"isRead"`
	ReadAt     *time.Time                 `json:"readAt,omitempty"`
	CreatedAt  time.Time                  `json:"createdAt"`
}

func toDTOs(rows []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(rows))
	for _, n := range rows {
		dto := NotificationDTO{
			ID:         n.ID,
			Audience:   n.Audience,
			Title:      n.Title,
			Message:    n.Message,
			GatePassID: n.GatePassID,
			PassNumber: n.PassNumber,
			IsRead:     n.IsRead,
			CreatedAt:  n.CreatedAt.UTC(),
		}
		if n.ReadAt != nil {
			readAt := n.ReadAt.UTC()
			dto.ReadAt = &readAt
		}
		out = append(out, dto)
	}
	return out
}
