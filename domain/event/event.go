package event

import (
	"heartline/domain"
)

// DomainEvent is anything the hub pushes to connected clients.
// EventName is the protocol-level discriminator of the frame.
type DomainEvent interface {
	EventName() string
}

// NewMessage is broadcast to every connection of a conversation group
// once the message has been persisted.
type NewMessage struct {
	Message domain.Message `json:"message"`
}

func (NewMessage) EventName() string { return "newMessage" }

// MessageThread is delivered to the joining caller only.
type MessageThread struct {
	Messages []domain.Message `json:"messages"`
}

func (MessageThread) EventName() string { return "receiveMessageThread" }

// UpdatedGroup is broadcast to a conversation group whenever its membership changes.
type UpdatedGroup struct {
	Group domain.ConversationGroup `json:"group"`
}

func (UpdatedGroup) EventName() string { return "updatedGroup" }

// UserOnline announces a user's first live connection to every other presence subscriber.
type UserOnline struct {
	Username string `json:"username"`
}

func (UserOnline) EventName() string { return "userIsOnline" }

// UserOffline announces that a user's last connection is gone.
type UserOffline struct {
	Username string `json:"username"`
}

func (UserOffline) EventName() string { return "userIsOffline" }

// OnlineUsers is the full presence snapshot sent to every joining caller.
type OnlineUsers struct {
	Usernames []string `json:"usernames"`
}

func (OnlineUsers) EventName() string { return "onlineUsers" }

// MessageNotification reaches a recipient who is online but not viewing
// the conversation the message belongs to.
type MessageNotification struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
}

func (MessageNotification) EventName() string { return "newMessageReceived" }

// SearchResults answers a searchMessages request, caller only.
type SearchResults struct {
	Query    string           `json:"query"`
	Messages []domain.Message `json:"messages"`
}

func (SearchResults) EventName() string { return "searchResults" }

// ErrorEvent surfaces a protocol error to the originating caller only.
type ErrorEvent struct {
	Reason string `json:"reason"`
}

func (ErrorEvent) EventName() string { return "error" }

// ThreadViewed records that a user has just been shown a conversation and
// its pending messages were marked read. It reaches projection taps only,
// never a client connection.
type ThreadViewed struct {
	Username string `json:"username"`
	GroupKey string `json:"groupKey"`
}

func (ThreadViewed) EventName() string { return "threadViewed" }
