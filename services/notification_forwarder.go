package services

import (
	"context"
	"log/slog"

	"heartline/contract"
	"heartline/domain"
	"heartline/domain/event"
)

// NotificationForwarder pushes an out-of-band "new message" signal to every
// live connection of a recipient who is online but not watching the
// conversation. Only the sender's identity travels, never the content.
type NotificationForwarder struct {
	log      *slog.Logger
	presence contract.IPresenceRegistry
}

func NewNotificationForwarder(log *slog.Logger, presence contract.IPresenceRegistry) *NotificationForwarder {
	return &NotificationForwarder{log: log, presence: presence}
}

// Forward returns the number of connections the notification reached.
// Zero is not an error: the recipient may have disconnected between the
// routing decision and the fan-out.
func (f *NotificationForwarder) Forward(ctx context.Context, recipientUsername string, sender domain.UserRecord) int {
	notification := event.MessageNotification{
		Username:  sender.Username,
		FirstName: sender.FirstName,
	}

	pushed := 0
	for _, sink := range f.presence.SinksFor(recipientUsername) {
		if err := sink.Consume(ctx, notification); err != nil {
			f.log.Debug("Notification sink rejected event", "recipient", recipientUsername, "error", err)
			continue
		}
		pushed++
	}
	return pushed
}
