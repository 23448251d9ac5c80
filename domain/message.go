// Package domain contains core concepts of the presence and routing system.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single chat message between two users.
// A nil ReadAt means the recipient has not seen it yet.
type Message struct {
	ID                uuid.UUID  `json:"id"`
	SenderUsername    string     `json:"senderUsername"`
	RecipientUsername string     `json:"recipientUsername"`
	Content           string     `json:"content"`
	SentAt            time.Time  `json:"sentAt"`
	ReadAt            *time.Time `json:"readAt,omitempty"`
	SenderDeleted     bool       `json:"senderDeleted"`
	RecipientDeleted  bool       `json:"recipientDeleted"`
}

// Read reports whether the recipient has seen the message.
func (m Message) Read() bool {
	return m.ReadAt != nil
}

// VisibleTo reports whether the given side still sees the message.
// A message soft-deleted by the recipient must still appear in the sender's view.
func (m Message) VisibleTo(username string) bool {
	switch username {
	case m.SenderUsername:
		return !m.SenderDeleted
	case m.RecipientUsername:
		return !m.RecipientDeleted
	default:
		return false
	}
}
