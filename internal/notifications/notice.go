package notifications

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// Notice is a role-addressed message about a gate pass.
type Notice struct {
	Audience   enums.NotificationAudience
	Title      string
	Message    string
	GatePassID uuid.UUID
	PassNumber string
}

func (n Notice) validate() error {
	if !n.Audience.IsValid() {
		return errors.New("invalid notification audience")
	}
	if strings.TrimSpace(n.Title) == "" {
		return errors.New("notification title required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return errors.New("notification message required")
	}
	return nil
}
