package domain

// Channel is a notification transport.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Priority orders notifications for channel rendering (e.g. the email
// banner color) and for operator triage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NotificationPayload is the channel-agnostic content of one alert event.
// It is rendered per channel and per locale at dispatch time and is never
// persisted.
type NotificationPayload struct {
	Title            string   `json:"title"`
	Message          string   `json:"message"`
	NotificationType string   `json:"notification_type"`
	Priority         Priority `json:"priority"`
}
