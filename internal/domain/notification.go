package domain

import "time"

// Channel is a notification delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// NotificationStatus enumerates delivery states.
type NotificationStatus string

const (
	NotificationQueued  NotificationStatus = "queued"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationSending NotificationStatus = "sending"
)

// Notification is one message on one channel.
type Notification struct {
	ID          string             `json:"id"`
	UserID      *string            `json:"user_id,omitempty"`
	Channel     Channel            `json:"channel"`
	Template    string             `json:"template"`
	Recipient   string             `json:"-"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	HTML        string             `json:"-"`
	Status      NotificationStatus `json:"status"`
	Attempts    int                `json:"-"`
	LastError   string             `json:"-"`
	ReadAt      *time.Time         `json:"read_at,omitempty"`
	ProviderRef string             `json:"-"`
	CreatedAt   time.Time          `json:"created_at"`
}
