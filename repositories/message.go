package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"heartline/domain"
)

// MessageRepository persists conversation threads in BadgerDB.
//
// The key is formatted as "msg:{groupKey}:{timestamp_padded}:{uuid}" to:
//  1. Scope a whole conversation under one prefix scan.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  3. Prevent data loss by using the message UUID as a collision
//     disconnector if two messages arrive at the same nanosecond.
type MessageRepository struct {
	db        *badger.DB
	log       *slog.Logger
	maxThread *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, maxThread *int) MessageRepository {
	return MessageRepository{db: db, log: log, maxThread: maxThread}
}

func messageKey(message domain.Message) []byte {
	groupKey := domain.GroupKey(message.SenderUsername, message.RecipientUsername)
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", groupKey, message.SentAt.UnixNano(), message.ID))
}

func threadPrefix(userA, userB string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", domain.GroupKey(userA, userB)))
}

// Append stores one message. Messages are immutable except for their read
// and soft-delete flags.
func (r MessageRepository) Append(message domain.Message) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
}

// Thread returns the full conversation between two users ordered by SentAt
// ascending, capped at maxThread most recent messages when configured.
func (r MessageRepository) Thread(userA, userB string) ([]domain.Message, error) {
	var messages []domain.Message
	prefix := threadPrefix(userA, userB)

	err := r.db.View(func(txn *badger.Txn) error {
		// Reverse scan so the cap keeps the most recent messages
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if r.maxThread != nil && len(messages) == *r.maxThread {
				r.log.Debug(fmt.Sprintf("Thread capped at %d messages", *r.maxThread))
				break
			}
			var m domain.Message
			if err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &m)
			}); err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reverse(messages)
	return messages, nil
}

// ThreadPage returns one page of history, newest page first (pageNumber 1 is
// the most recent), each page ordered by SentAt ascending.
func (r MessageRepository) ThreadPage(userA, userB string, pageNumber, pageSize int) ([]domain.Message, error) {
	if pageNumber < 1 || pageSize < 1 {
		return nil, nil
	}

	var messages []domain.Message
	prefix := threadPrefix(userA, userB)
	skip := (pageNumber - 1) * pageSize

	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < skip {
				skipped++
				continue
			}
			if len(messages) == pageSize {
				break
			}
			var m domain.Message
			if err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &m)
			}); err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reverse(messages)
	return messages, nil
}

// MarkRead stamps the given messages of a conversation as read. Messages
// already read or missing are silently skipped.
func (r MessageRepository) MarkRead(groupKey string, ids []uuid.UUID, readAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	prefix := []byte(fmt.Sprintf("msg:%s:", groupKey))

	return r.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var m domain.Message
			if err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &m)
			}); err != nil {
				return err
			}
			if _, ok := wanted[m.ID]; !ok || m.Read() {
				continue
			}
			at := readAt
			m.ReadAt = &at
			bytes, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := txn.Set(item.KeyCopy(nil), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteForUser soft-deletes a message for one side of the conversation.
// The entry is physically removed only once both sides have deleted it; a
// message deleted by the recipient alone must still appear in the sender's
// view.
func (r MessageRepository) DeleteForUser(groupKey string, id uuid.UUID, username string) error {
	prefix := []byte(fmt.Sprintf("msg:%s:", groupKey))

	return r.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var m domain.Message
			if err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &m)
			}); err != nil {
				return err
			}
			if m.ID != id {
				continue
			}

			switch username {
			case m.SenderUsername:
				m.SenderDeleted = true
			case m.RecipientUsername:
				m.RecipientDeleted = true
			default:
				return nil
			}

			key := item.KeyCopy(nil)
			if m.SenderDeleted && m.RecipientDeleted {
				return txn.Delete(key)
			}
			bytes, err := json.Marshal(m)
			if err != nil {
				return err
			}
			return txn.Set(key, bytes)
		}
		return nil
	})
}

func reverse(messages []domain.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
