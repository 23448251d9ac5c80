package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"heartline/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func message(sender, recipient, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:                uuid.New(),
		SenderUsername:    sender,
		RecipientUsername: recipient,
		Content:           content,
		SentAt:            at,
	}
}

func TestMessageRepository_ThreadOrdering(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()

	// Given messages appended out of chronological order, from both sides
	m1 := message("alice", "bob", "first", at)
	m2 := message("bob", "alice", "second", at.Add(1*time.Minute))
	m3 := message("alice", "bob", "third", at.Add(2*time.Minute))
	for _, m := range []domain.Message{m3, m1, m2} {
		req.NoError(repo.Append(m))
	}

	// When the thread is fetched from either side
	forward, err := repo.Thread("alice", "bob")
	req.NoError(err)
	backward, err := repo.Thread("bob", "alice")
	req.NoError(err)

	// Then both views are identical and sorted by SentAt ascending
	req.Equal(forward, backward)
	req.Len(forward, 3)
	req.Equal([]string{"first", "second", "third"},
		lo.Map(forward, func(m domain.Message, _ int) string { return m.Content }))
}

func TestMessageRepository_ThreadCap(t *testing.T) {
	req := require.New(t)
	limit := 2
	repo := NewMessageRepository(openTestDB(t), slog.Default(), &limit)
	at := time.Now().UTC()

	for i := 0; i < 5; i++ {
		req.NoError(repo.Append(message("alice", "bob", "msg", at.Add(time.Duration(i)*time.Minute))))
	}

	thread, err := repo.Thread("alice", "bob")
	req.NoError(err)

	// The cap keeps the most recent messages
	req.Len(thread, limit)
	req.Equal(at.Add(4*time.Minute), thread[1].SentAt)
}

func TestMessageRepository_ThreadPage(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()

	for i := 0; i < 5; i++ {
		req.NoError(repo.Append(message("alice", "bob", string(rune('a'+i)), at.Add(time.Duration(i)*time.Minute))))
	}

	// Page 1 holds the most recent two, ascending
	page1, err := repo.ThreadPage("alice", "bob", 1, 2)
	req.NoError(err)
	req.Equal([]string{"d", "e"},
		lo.Map(page1, func(m domain.Message, _ int) string { return m.Content }))

	// Page 2 goes further back
	page2, err := repo.ThreadPage("alice", "bob", 2, 2)
	req.NoError(err)
	req.Equal([]string{"b", "c"},
		lo.Map(page2, func(m domain.Message, _ int) string { return m.Content }))

	// Past the end is empty, not an error
	page4, err := repo.ThreadPage("alice", "bob", 4, 2)
	req.NoError(err)
	req.Empty(page4)
}

func TestMessageRepository_MarkRead(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()

	m1 := message("alice", "bob", "unread", at)
	m2 := message("bob", "alice", "other way", at.Add(time.Minute))
	req.NoError(repo.Append(m1))
	req.NoError(repo.Append(m2))

	readAt := at.Add(2 * time.Minute)
	req.NoError(repo.MarkRead("alice-bob", []uuid.UUID{m1.ID}, readAt))

	thread, err := repo.Thread("alice", "bob")
	req.NoError(err)
	req.True(thread[0].Read())
	req.Equal(readAt, *thread[0].ReadAt)
	req.False(thread[1].Read())

	// Marking again is a no-op: the original stamp is preserved
	req.NoError(repo.MarkRead("alice-bob", []uuid.UUID{m1.ID}, readAt.Add(time.Hour)))
	thread, err = repo.Thread("alice", "bob")
	req.NoError(err)
	req.Equal(readAt, *thread[0].ReadAt)
}

func TestMessageRepository_SoftDeleteLifecycle(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	m := message("alice", "bob", "delete me", time.Now().UTC())
	req.NoError(repo.Append(m))

	// When the recipient deletes, the sender still sees the message
	req.NoError(repo.DeleteForUser("alice-bob", m.ID, "bob"))
	thread, err := repo.Thread("alice", "bob")
	req.NoError(err)
	req.Len(thread, 1)
	req.True(thread[0].RecipientDeleted)
	req.True(thread[0].VisibleTo("alice"))
	req.False(thread[0].VisibleTo("bob"))

	// When the sender deletes too, the entry is gone for good
	req.NoError(repo.DeleteForUser("alice-bob", m.ID, "alice"))
	thread, err = repo.Thread("alice", "bob")
	req.NoError(err)
	req.Empty(thread)
}

func TestUserRepository_RoundTripAndAbsence(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t), slog.Default())

	req.NoError(repo.Save(domain.UserRecord{Username: "alice", FirstName: "Alice", City: "Lyon"}))

	record, found, err := repo.FindByUsername("alice")
	req.NoError(err)
	req.True(found)
	req.Equal("Alice", record.FirstName)

	// Absence is a valid state, not an error
	_, found, err = repo.FindByUsername("nobody")
	req.NoError(err)
	req.False(found)
}
