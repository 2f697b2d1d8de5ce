package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// NotificationRequestedEvent asks the notification worker to deliver an
// in-app message to a role audience.
type NotificationRequestedEvent struct {
	Audience   enums.NotificationAudience `json:"audience"`
	Title      string                     `json:"title"`
	Message    string                     `json:"message"`
	GatePassID uuid.UUID                  `json:"gatepass_id"`
	PassNumber string                     `json:"pass_number"`
}
