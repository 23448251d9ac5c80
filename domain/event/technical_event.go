package event

import "time"

type Type string

const (
	MessageSentType   Type = "MESSAGE_SENT"
	CensorshipHit     Type = "CENSORSHIP_HIT"
	WentOnlineType    Type = "WENT_ONLINE"
	WentOfflineType   Type = "WENT_OFFLINE"
	NotificationType  Type = "NOTIFICATION_PUSHED"
	SinkSaturatedType Type = "SINK_SATURATED"
)

// Event is the telemetry envelope dispatched to handlers.
// It never reaches clients; only counters and logs consume it.
type Event struct {
	Type    Type
	Payload any
}

// MessageSent is emitted for every successfully routed message.
type MessageSent struct {
	GroupKey string
	LiveRead bool
	SentAt   time.Time
}

// Censored is emitted once per censored word occurrence.
type Censored struct {
	Word     string
	Language string
}

// PresenceChanged is emitted on the first connect and last disconnect of a user.
type PresenceChanged struct {
	Username string
	Online   bool
}

// NotificationPushed is emitted once per out-of-band notification fan-out.
type NotificationPushed struct {
	Username    string
	Connections int
}
