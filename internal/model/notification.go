package model

import "time"

// Notification is a message addressed to a user.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message,omitempty"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Notification types.
const (
	NotificationTypeInfo    = "INFO"
	NotificationTypeWarning = "WARNING"
	NotificationTypeAlert   = "ALERT"
)

// NotificationTypes lists every notification type.
var NotificationTypes = []string{NotificationTypeInfo, NotificationTypeWarning, NotificationTypeAlert}
