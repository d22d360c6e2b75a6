package favorites

import (
	"time"
)

// NotificationType categorizes entries of the notification log
type NotificationType string

const (
	NotificationFavorite NotificationType = "favorite"
	NotificationRating   NotificationType = "rating"
	NotificationFeedback NotificationType = "feedback"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFavorite, NotificationRating, NotificationFeedback:
		return true
	}
	return false
}

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}
