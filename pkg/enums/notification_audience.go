package enums

import "fmt"

// NotificationAudience is the role tag a notification is addressed to.
type NotificationAudience string

const (
	AudienceAdmin NotificationAudience = "admin"
	AudienceHR    NotificationAudience = "hr"
)

var validNotificationAudiences = []NotificationAudience{AudienceAdmin, AudienceHR}

// IsValid checks whether the given audience matches a known role tag.
func (a NotificationAudience) IsValid() bool {
	for _, candidate := range validNotificationAudiences {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseNotificationAudience converts raw strings into NotificationAudience.
func ParseNotificationAudience(value string) (NotificationAudience, error) {
	for _, candidate := range validNotificationAudiences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification audience %q", value)
}
